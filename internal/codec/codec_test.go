package codec

import (
	"strings"
	"testing"

	"github.com/imkarma/loom/internal/bead"
)

func TestRenderWorkSpec(t *testing.T) {
	step := bead.Step{
		Title:          "Wire the parser",
		Tasks:          []string{"add lexer", "add parser"},
		Artifacts:      []string{"internal/parse/parse.go"},
		CommitTemplate: "parse: add recursive descent parser",
	}

	got := RenderWorkSpec(step)
	want := "## Tasks\n- add lexer\n- add parser\n\n" +
		"## Artifacts\n- internal/parse/parse.go\n\n" +
		"## Commit Template\nparse: add recursive descent parser"
	if got != want {
		t.Errorf("RenderWorkSpec:\ngot  %q\nwant %q", got, want)
	}
}

func TestRenderWorkSpec_OmitsEmptySections(t *testing.T) {
	step := bead.Step{Title: "only tasks", Tasks: []string{"one thing"}}

	got := RenderWorkSpec(step)
	if strings.Contains(got, "Artifacts") || strings.Contains(got, "Commit Template") {
		t.Errorf("empty sections rendered: %q", got)
	}
	if got != "## Tasks\n- one thing" {
		t.Errorf("got %q", got)
	}
}

func TestRenderWorkSpec_AllEmpty(t *testing.T) {
	if got := RenderWorkSpec(bead.Step{Title: "bare"}); got != "" {
		t.Errorf("expected empty render, got %q", got)
	}
}

func TestRenderAcceptance(t *testing.T) {
	step := bead.Step{
		Tests:       []string{"go test ./internal/parse"},
		Checkpoints: []string{"parser handles empty input"},
	}

	got := RenderAcceptance(step)
	want := "## Tests\n- go test ./internal/parse\n\n" +
		"## Checkpoints\n- parser handles empty input"
	if got != want {
		t.Errorf("RenderAcceptance:\ngot  %q\nwant %q", got, want)
	}
}

func TestRenderDesignReferences(t *testing.T) {
	decisions := []bead.Decision{
		{ID: "D01", Title: "Use recursive descent", Status: "decided"},
		{ID: "D02", Title: "No external parser generator", Status: "decided"},
	}
	step := bead.Step{
		References: []string{"D01", "D99", "#error-handling", "D02"},
	}

	got := RenderDesignReferences(step, decisions)
	want := "## References\n" +
		"- [D01] Use recursive descent\n" +
		"- D99\n" +
		"- [D02] No external parser generator\n\n" +
		"Anchors:\n" +
		"- #error-handling"
	if got != want {
		t.Errorf("RenderDesignReferences:\ngot  %q\nwant %q", got, want)
	}
}

func TestRenderDesignReferences_Empty(t *testing.T) {
	if got := RenderDesignReferences(bead.Step{}, nil); got != "" {
		t.Errorf("expected empty render, got %q", got)
	}
}

func TestExtractSection(t *testing.T) {
	doc := `# Plan

## Overview {#overview}
The big picture.

## Strategy {#strategy}
Step one.

### Details
Sub-content stays in.

## Next {#next}
Not included.`

	tests := []struct {
		name   string
		anchor string
		want   string
		ok     bool
	}{
		{
			name:   "attribute anchor with nested subsection",
			anchor: "strategy",
			want:   "Step one.\n\n### Details\nSub-content stays in.",
			ok:     true,
		},
		{
			name:   "leading hash accepted",
			anchor: "#overview",
			want:   "The big picture.",
			ok:     true,
		},
		{
			name:   "last section runs to end of document",
			anchor: "next",
			want:   "Not included.",
			ok:     true,
		},
		{
			name:   "absent anchor",
			anchor: "nowhere",
			ok:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractSection(doc, tt.anchor)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractSection_BareHeadingText(t *testing.T) {
	doc := "## Architect Strategy\ncontent here\n\n## Review\nother"

	got, ok := ExtractSection(doc, "Architect Strategy")
	if !ok {
		t.Fatal("expected section")
	}
	if got != "content here" {
		t.Errorf("got %q", got)
	}
}
