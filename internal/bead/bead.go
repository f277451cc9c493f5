// Package bead defines the shared work-item record ("bead") that workers
// coordinate through, plus the planning-time Step and Decision types that
// seed it.
package bead

import "fmt"

// Status is the store-owned lifecycle state of a bead.
type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// Field names a writable bead field. The coordination protocol only ever
// touches these four; everything else on the record is store-owned.
type Field string

const (
	FieldDescription Field = "description"
	FieldAcceptance  Field = "acceptance_criteria"
	FieldDesign      Field = "design"
	FieldNotes       Field = "notes"
)

// Bead is one work item as returned by `bd show --json`.
type Bead struct {
	ID           string            `json:"id"`
	Title        string            `json:"title"`
	Description  string            `json:"description,omitempty"`
	Acceptance   string            `json:"acceptance_criteria,omitempty"`
	Design       string            `json:"design,omitempty"`
	Notes        string            `json:"notes,omitempty"`
	CloseReason  string            `json:"close_reason,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	Status       Status            `json:"status"`
	Dependencies []string          `json:"dependencies,omitempty"`
	Dependents   []string          `json:"dependents,omitempty"`
}

// FieldValue returns the current content of a protocol field.
func (b *Bead) FieldValue(f Field) string {
	switch f {
	case FieldDescription:
		return b.Description
	case FieldAcceptance:
		return b.Acceptance
	case FieldDesign:
		return b.Design
	case FieldNotes:
		return b.Notes
	}
	return ""
}

// CloseReason formats the terminal close_reason string: a commit or result
// identifier plus a one-line summary.
func CloseReason(commitID, summary string) string {
	if commitID == "" {
		commitID = "none"
	}
	return fmt.Sprintf("completed [%s]: %s", commitID, summary)
}
