// Package field enforces the per-role field ownership protocol. The store
// itself is a dumb field store with no access control, so each worker role
// gets a restricted view exposing only the operations its row in the
// ownership table allows. A role that is never handed a write method cannot
// call it.
//
//	role        description  acceptance  design   notes
//	producer    write-once   write-once  once     —
//	strategist  read         read        append   —
//	implementer read         —           read     overwrite
//	verifier    read         read        read     append
//	finalizer   —            —           —        close only
package field

import (
	"github.com/imkarma/loom/internal/bead"
	"github.com/imkarma/loom/internal/beadstore"
)

// Store is the subset of the bead store the views are built on.
type Store interface {
	Create(spec beadstore.CreateSpec, workingDir string) (string, error)
	Show(id, workingDir string) (*bead.Bead, error)
	UpdateField(id string, field bead.Field, content, workingDir string) error
	AppendField(id string, field bead.Field, content, workingDir string) error
	Close(id, reason, workingDir string) error
	AddDependency(id, dependsOn, workingDir string) error
}

// ProducerView creates beads with their write-once initial fields and wires
// dependencies. It has no update path at all: once a bead exists the
// producer is done with it.
type ProducerView struct {
	store Store
}

func NewProducerView(s Store) *ProducerView { return &ProducerView{store: s} }

func (v *ProducerView) CreateBead(spec beadstore.CreateSpec, workingDir string) (string, error) {
	return v.store.Create(spec, workingDir)
}

func (v *ProducerView) Show(id, workingDir string) (*bead.Bead, error) {
	return v.store.Show(id, workingDir)
}

func (v *ProducerView) AddDependency(id, dependsOn, workingDir string) error {
	return v.store.AddDependency(id, dependsOn, workingDir)
}

// StrategistView reads the bead and appends the strategy section to design.
type StrategistView struct {
	store Store
}

func NewStrategistView(s Store) *StrategistView { return &StrategistView{store: s} }

func (v *StrategistView) Show(id, workingDir string) (*bead.Bead, error) {
	return v.store.Show(id, workingDir)
}

func (v *StrategistView) AppendDesign(id, content, workingDir string) error {
	return v.store.AppendField(id, bead.FieldDesign, content, workingDir)
}

// ImplementerView reads description and design and overwrites notes. The
// overwrite (never append) guarantees a retry cycle discards stale verifier
// feedback from earlier cycles.
type ImplementerView struct {
	store Store
}

func NewImplementerView(s Store) *ImplementerView { return &ImplementerView{store: s} }

func (v *ImplementerView) Show(id, workingDir string) (*bead.Bead, error) {
	return v.store.Show(id, workingDir)
}

func (v *ImplementerView) OverwriteNotes(id, content, workingDir string) error {
	return v.store.UpdateField(id, bead.FieldNotes, content, workingDir)
}

// VerifierView reads everything and appends its review below the
// implementer's fresh notes.
type VerifierView struct {
	store Store
}

func NewVerifierView(s Store) *VerifierView { return &VerifierView{store: s} }

func (v *VerifierView) Show(id, workingDir string) (*bead.Bead, error) {
	return v.store.Show(id, workingDir)
}

func (v *VerifierView) AppendNotes(id, content, workingDir string) error {
	return v.store.AppendField(id, bead.FieldNotes, content, workingDir)
}

// FinalizerView closes the bead. Its summary input comes from the
// orchestrator, never from the store, so no read methods are exposed.
type FinalizerView struct {
	store Store
}

func NewFinalizerView(s Store) *FinalizerView { return &FinalizerView{store: s} }

func (v *FinalizerView) CloseBead(id, reason, workingDir string) error {
	return v.store.Close(id, reason, workingDir)
}
