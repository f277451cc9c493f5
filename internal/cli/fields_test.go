package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

// newContentCmd builds a command carrying the content flags, isolated from
// the registered commands so tests can set flags freely.
func newContentCmd(t *testing.T) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringVar(&fieldContent, "content", "", "")
	cmd.Flags().StringVar(&fieldContentFile, "content-file", "", "")
	t.Cleanup(func() {
		fieldContent = ""
		fieldContentFile = ""
	})
	return cmd
}

func TestResolveContent(t *testing.T) {
	t.Run("inline content", func(t *testing.T) {
		cmd := newContentCmd(t)
		cmd.Flags().Set("content", "## Review\nlooks good")

		got, err := resolveContent(cmd)
		if err != nil {
			t.Fatalf("resolveContent: %v", err)
		}
		if got != "## Review\nlooks good" {
			t.Errorf("content = %q", got)
		}
	})

	t.Run("explicit empty content is a valid payload", func(t *testing.T) {
		cmd := newContentCmd(t)
		cmd.Flags().Set("content", "")

		got, err := resolveContent(cmd)
		if err != nil {
			t.Fatalf("resolveContent: %v", err)
		}
		if got != "" {
			t.Errorf("content = %q, want empty", got)
		}
	})

	t.Run("content file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "notes.md")
		if err := os.WriteFile(path, []byte("## Coder Results\ndone"), 0644); err != nil {
			t.Fatal(err)
		}
		cmd := newContentCmd(t)
		cmd.Flags().Set("content-file", path)

		got, err := resolveContent(cmd)
		if err != nil {
			t.Fatalf("resolveContent: %v", err)
		}
		if got != "## Coder Results\ndone" {
			t.Errorf("content = %q", got)
		}
	})

	t.Run("missing content file", func(t *testing.T) {
		cmd := newContentCmd(t)
		cmd.Flags().Set("content-file", filepath.Join(t.TempDir(), "nope.md"))

		if _, err := resolveContent(cmd); err == nil {
			t.Fatal("expected error for unreadable file")
		}
	})

	t.Run("both flags rejected", func(t *testing.T) {
		cmd := newContentCmd(t)
		cmd.Flags().Set("content", "x")
		cmd.Flags().Set("content-file", "y")

		_, err := resolveContent(cmd)
		if err == nil || !strings.Contains(err.Error(), "not both") {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("neither flag rejected", func(t *testing.T) {
		cmd := newContentCmd(t)

		_, err := resolveContent(cmd)
		if err == nil || !strings.Contains(err.Error(), "required") {
			t.Errorf("err = %v", err)
		}
	})
}
