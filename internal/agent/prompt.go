package agent

import (
	"fmt"
	"os"
	"strings"
)

// BuildPrompt assembles the dispatch prompt: the worker definition itself,
// then the dispatch context (bead id and working directory, never field
// content), then the response-format contract.
func BuildPrompt(req Request) (string, error) {
	definition, err := os.ReadFile(req.WorkerPath)
	if err != nil {
		return "", fmt.Errorf("read worker definition: %w", err)
	}

	var parts []string
	parts = append(parts, strings.TrimSpace(string(definition)))
	parts = append(parts, dispatchSection(req))
	if req.Summary != "" {
		parts = append(parts, "## Step Summary\n"+req.Summary)
	}
	parts = append(parts, resultInstructions(req.Role))

	return strings.Join(parts, "\n\n"), nil
}

func dispatchSection(req Request) string {
	var sb strings.Builder
	sb.WriteString("## Dispatch\n")
	sb.WriteString(fmt.Sprintf("Bead: %s\n", req.BeadID))
	sb.WriteString(fmt.Sprintf("Working directory: %s\n", req.WorkDir))
	sb.WriteString(fmt.Sprintf("\nRead your inputs with: loom inspect %s --working-dir %s --json\n", req.BeadID, req.WorkDir))
	return sb.String()
}

// resultInstructions spells out the structured result contract per role.
// The orchestrator decides on this result alone; it never parses bead
// fields.
func resultInstructions(role string) string {
	var extra string
	switch role {
	case "strategist":
		extra = `Write your strategy to the bead with:
  loom append-design <bead> --content "..." (or --content-file)`
	case "implementer":
		extra = `Write your results to the bead with:
  loom update-notes <bead> --content "..." (overwrite, do not append)
Include "files_touched" and "expected_files" so drift can be assessed.`
	case "verifier":
		extra = `Write your review to the bead with:
  loom append-notes <bead> --content "..."
Set "verdict" to approve, revise, or escalate.`
	case "finalizer":
		extra = `Do not write any bead field. Report the commit id and a
one-line summary in the result block.`
	}

	return `## Response Format
End your output with a fenced json block:

` + "```json" + `
{"status": "done", "verdict": "", "drift": "", "files_touched": [], "expected_files": [], "commit": "", "summary": "", "blocked": ""}
` + "```" + `

Set "status" to done, blocked, or failed. If blocked, put your question in
"blocked".

` + extra
}
