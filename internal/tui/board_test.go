package tui

import "testing"

func TestShortID(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"0b9f3c2a-1d4e-4f6a-8b7c-9d0e1f2a3b4c", "0b9f3c2a"},
		{"12345678", "12345678"},
		{"abc", "abc"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := shortID(tt.id); got != tt.want {
			t.Errorf("shortID(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}
