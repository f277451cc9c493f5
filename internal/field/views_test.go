package field

import (
	"fmt"
	"strings"
	"testing"

	"github.com/imkarma/loom/internal/bead"
	"github.com/imkarma/loom/internal/beadstore"
)

// memStore is an in-memory stand-in honoring the store contract, including
// the append separator.
type memStore struct {
	beads map[string]*bead.Bead
	next  int
}

func newMemStore() *memStore {
	return &memStore{beads: make(map[string]*bead.Bead)}
}

func (m *memStore) Create(spec beadstore.CreateSpec, workingDir string) (string, error) {
	m.next++
	id := fmt.Sprintf("bead-%d", m.next)
	m.beads[id] = &bead.Bead{
		ID:          id,
		Title:       spec.Title,
		Description: spec.Description,
		Acceptance:  spec.Acceptance,
		Design:      spec.Design,
		Notes:       spec.Notes,
		Status:      bead.StatusOpen,
	}
	return id, nil
}

func (m *memStore) Show(id, workingDir string) (*bead.Bead, error) {
	b, ok := m.beads[id]
	if !ok {
		return nil, beadstore.ErrNotFound
	}
	copied := *b
	return &copied, nil
}

func (m *memStore) UpdateField(id string, field bead.Field, content, workingDir string) error {
	b, ok := m.beads[id]
	if !ok {
		return beadstore.ErrNotFound
	}
	switch field {
	case bead.FieldDescription:
		b.Description = content
	case bead.FieldAcceptance:
		b.Acceptance = content
	case bead.FieldDesign:
		b.Design = content
	case bead.FieldNotes:
		b.Notes = content
	}
	return nil
}

func (m *memStore) AppendField(id string, field bead.Field, content, workingDir string) error {
	b, err := m.Show(id, workingDir)
	if err != nil {
		return err
	}
	return m.UpdateField(id, field, b.FieldValue(field)+beadstore.Separator+content, workingDir)
}

func (m *memStore) Close(id, reason, workingDir string) error {
	b, ok := m.beads[id]
	if !ok {
		return beadstore.ErrNotFound
	}
	already := b.Status == bead.StatusClosed
	b.Status = bead.StatusClosed
	b.CloseReason = reason
	if already {
		return beadstore.ErrAlreadyClosed
	}
	return nil
}

func (m *memStore) AddDependency(id, dependsOn, workingDir string) error {
	b, ok := m.beads[id]
	if !ok {
		return beadstore.ErrNotFound
	}
	b.Dependencies = append(b.Dependencies, dependsOn)
	if root, ok := m.beads[dependsOn]; ok {
		root.Dependents = append(root.Dependents, id)
	}
	return nil
}

func TestStrategistAppendsBelowReferences(t *testing.T) {
	s := newMemStore()
	producer := NewProducerView(s)

	id, err := producer.CreateBead(beadstore.CreateSpec{
		Title:  "step one",
		Design: "## References\n- [D01] X",
	}, "")
	if err != nil {
		t.Fatalf("CreateBead: %v", err)
	}

	strategist := NewStrategistView(s)
	if err := strategist.AppendDesign(id, "## Architect Strategy\ndo it simply", ""); err != nil {
		t.Fatalf("AppendDesign: %v", err)
	}

	b, _ := strategist.Show(id, "")
	want := "## References\n- [D01] X\n\n---\n\n## Architect Strategy\ndo it simply"
	if b.Design != want {
		t.Errorf("design = %q, want %q", b.Design, want)
	}
}

func TestStrategistAppendToUnseededDesign(t *testing.T) {
	s := newMemStore()
	producer := NewProducerView(s)

	// A step with no references seeds an empty design field.
	id, _ := producer.CreateBead(beadstore.CreateSpec{Title: "step"}, "")

	strategist := NewStrategistView(s)
	if err := strategist.AppendDesign(id, "## Architect Strategy\nplan", ""); err != nil {
		t.Fatalf("AppendDesign: %v", err)
	}

	b, _ := strategist.Show(id, "")
	want := beadstore.Separator + "## Architect Strategy\nplan"
	if b.Design != want {
		t.Errorf("design = %q, want %q", b.Design, want)
	}
}

func TestNotesRevisionCycle(t *testing.T) {
	s := newMemStore()
	producer := NewProducerView(s)
	id, _ := producer.CreateBead(beadstore.CreateSpec{Title: "step"}, "")

	implementer := NewImplementerView(s)
	verifier := NewVerifierView(s)

	// First cycle.
	if err := implementer.OverwriteNotes(id, "## Coder Results\nfirst pass", ""); err != nil {
		t.Fatalf("OverwriteNotes: %v", err)
	}
	if err := verifier.AppendNotes(id, "## Review\nneeds work", ""); err != nil {
		t.Fatalf("AppendNotes: %v", err)
	}

	// Revise: implementer overwrites, discarding the stale review.
	if err := implementer.OverwriteNotes(id, "## Coder Results\nsecond pass", ""); err != nil {
		t.Fatalf("OverwriteNotes (retry): %v", err)
	}
	if err := verifier.AppendNotes(id, "## Review\nlooks good", ""); err != nil {
		t.Fatalf("AppendNotes (retry): %v", err)
	}

	b, _ := verifier.Show(id, "")
	want := "## Coder Results\nsecond pass" + beadstore.Separator + "## Review\nlooks good"
	if b.Notes != want {
		t.Errorf("notes = %q, want %q", b.Notes, want)
	}
	if n := strings.Count(b.Notes, "## "); n != 2 {
		t.Errorf("notes has %d sections, want exactly 2", n)
	}
	if strings.Contains(b.Notes, "first pass") || strings.Contains(b.Notes, "needs work") {
		t.Error("stale cycle content survived the overwrite")
	}
}

func TestFinalizerCloses(t *testing.T) {
	s := newMemStore()
	producer := NewProducerView(s)
	id, _ := producer.CreateBead(beadstore.CreateSpec{Title: "step"}, "")

	finalizer := NewFinalizerView(s)
	reason := bead.CloseReason("abc123", "parser wired and tested")
	if err := finalizer.CloseBead(id, reason, ""); err != nil {
		t.Fatalf("CloseBead: %v", err)
	}

	b, _ := s.Show(id, "")
	if b.Status != bead.StatusClosed {
		t.Errorf("status = %q", b.Status)
	}
	if b.CloseReason != "completed [abc123]: parser wired and tested" {
		t.Errorf("close_reason = %q", b.CloseReason)
	}
}

func TestProducerWiresDependencies(t *testing.T) {
	s := newMemStore()
	producer := NewProducerView(s)

	rootID, _ := producer.CreateBead(beadstore.CreateSpec{Title: "plan"}, "")
	stepID, _ := producer.CreateBead(beadstore.CreateSpec{Title: "step"}, "")

	if err := producer.AddDependency(stepID, rootID, ""); err != nil {
		t.Fatalf("AddDependency: %v", err)
	}

	root, _ := s.Show(rootID, "")
	if len(root.Dependents) != 1 || root.Dependents[0] != stepID {
		t.Errorf("root dependents = %v", root.Dependents)
	}
}
