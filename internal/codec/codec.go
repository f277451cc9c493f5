// Package codec renders step content into the markdown that seeds bead
// fields, and extracts sections back out of accumulated field text. All
// functions are pure; no I/O happens here.
package codec

import (
	"fmt"
	"strings"

	"github.com/imkarma/loom/internal/bead"
)

// RenderWorkSpec renders the work specification that becomes a bead's
// description: tasks, artifacts, and the commit template. Empty sections are
// omitted entirely so the field never carries empty headings.
func RenderWorkSpec(step bead.Step) string {
	var sections []string

	if len(step.Tasks) > 0 {
		sections = append(sections, listSection("Tasks", step.Tasks))
	}
	if len(step.Artifacts) > 0 {
		sections = append(sections, listSection("Artifacts", step.Artifacts))
	}
	if step.CommitTemplate != "" {
		sections = append(sections, "## Commit Template\n"+strings.TrimSpace(step.CommitTemplate))
	}

	return strings.Join(sections, "\n\n")
}

// RenderAcceptance renders the acceptance_criteria field: tests and
// checkpoints, same pattern as RenderWorkSpec.
func RenderAcceptance(step bead.Step) string {
	var sections []string

	if len(step.Tests) > 0 {
		sections = append(sections, listSection("Tests", step.Tests))
	}
	if len(step.Checkpoints) > 0 {
		sections = append(sections, listSection("Checkpoints", step.Checkpoints))
	}

	return strings.Join(sections, "\n\n")
}

// RenderDesignReferences resolves a step's reference tokens against the known
// decisions and renders the initial design field. Tokens matching a decision
// id become "- [id] title"; anchor-style tokens (leading '#') are listed
// separately under their own line; anything else passes through verbatim.
func RenderDesignReferences(step bead.Step, decisions []bead.Decision) string {
	if len(step.References) == 0 {
		return ""
	}

	byID := make(map[string]bead.Decision, len(decisions))
	for _, d := range decisions {
		byID[d.ID] = d
	}

	var refs, anchors []string
	for _, token := range step.References {
		if strings.HasPrefix(token, "#") {
			anchors = append(anchors, "- "+token)
			continue
		}
		if d, ok := byID[token]; ok {
			refs = append(refs, fmt.Sprintf("- [%s] %s", d.ID, d.Title))
		} else {
			refs = append(refs, "- "+token)
		}
	}

	var sb strings.Builder
	sb.WriteString("## References")
	for _, r := range refs {
		sb.WriteString("\n" + r)
	}
	if len(anchors) > 0 {
		sb.WriteString("\n\nAnchors:")
		for _, a := range anchors {
			sb.WriteString("\n" + a)
		}
	}
	return sb.String()
}

// ExtractSection returns the content under the heading carrying the given
// anchor, up to (not including) the next heading of equal or higher level,
// or end of document. The anchor matches either a "{#anchor}" attribute on
// the heading or the heading text itself. Returns ok=false if absent.
func ExtractSection(doc, anchor string) (string, bool) {
	lines := strings.Split(doc, "\n")

	level := 0
	start := -1
	for i, line := range lines {
		l := headingLevel(line)
		if l == 0 {
			continue
		}
		if headingMatches(line, anchor) {
			level = l
			start = i + 1
			break
		}
	}
	if start < 0 {
		return "", false
	}

	end := len(lines)
	for i := start; i < len(lines); i++ {
		if l := headingLevel(lines[i]); l > 0 && l <= level {
			end = i
			break
		}
	}

	return strings.TrimSpace(strings.Join(lines[start:end], "\n")), true
}

// headingLevel returns the ATX heading level of a line, or 0 if the line is
// not a heading.
func headingLevel(line string) int {
	trimmed := strings.TrimLeft(line, " ")
	n := 0
	for n < len(trimmed) && trimmed[n] == '#' {
		n++
	}
	if n == 0 || n > 6 {
		return 0
	}
	if n < len(trimmed) && trimmed[n] != ' ' {
		return 0
	}
	return n
}

func headingMatches(line, anchor string) bool {
	text := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "#"))

	// Explicit "{#anchor}" attribute.
	attr := "{#" + strings.TrimPrefix(anchor, "#") + "}"
	if strings.Contains(text, attr) {
		return true
	}

	// Bare heading text match, attribute stripped.
	if idx := strings.Index(text, "{#"); idx >= 0 {
		text = strings.TrimSpace(text[:idx])
	}
	return strings.EqualFold(text, strings.TrimPrefix(anchor, "#"))
}

func listSection(title string, items []string) string {
	var sb strings.Builder
	sb.WriteString("## " + title)
	for _, item := range items {
		sb.WriteString("\n- " + item)
	}
	return sb.String()
}
