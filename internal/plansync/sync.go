package plansync

import (
	"fmt"

	"github.com/imkarma/loom/internal/beadstore"
	"github.com/imkarma/loom/internal/codec"
	"github.com/imkarma/loom/internal/field"
)

// StepError records one step that failed to sync.
type StepError struct {
	Title string
	Err   error
}

// Report summarizes a sync: the root bead, every step bead created in plan
// order, and the failures collected along the way.
type Report struct {
	RootID  string
	StepIDs []string
	Failed  []StepError
}

// Syncer populates beads from a plan through the producer view.
type Syncer struct {
	producer   *field.ProducerView
	workingDir string
}

// NewSyncer creates a Syncer operating in the given working directory.
func NewSyncer(producer *field.ProducerView, workingDir string) *Syncer {
	return &Syncer{producer: producer, workingDir: workingDir}
}

// Sync creates the root bead and one bead per step, wiring each step as a
// dependent of the root. Step creation is best-effort: a failing step is
// collected and the batch continues. Only a root-bead failure aborts, since
// nothing can be attached without it.
func (s *Syncer) Sync(plan *Plan) (*Report, error) {
	rootID, err := s.producer.CreateBead(beadstore.CreateSpec{
		Title:       plan.Title,
		Description: plan.Summary,
	}, s.workingDir)
	if err != nil {
		return nil, fmt.Errorf("create plan root bead: %w", err)
	}

	report := &Report{RootID: rootID}
	for _, step := range plan.Steps {
		id, err := s.producer.CreateBead(beadstore.CreateSpec{
			Title:       step.Title,
			Description: codec.RenderWorkSpec(step),
			Acceptance:  codec.RenderAcceptance(step),
			Design:      codec.RenderDesignReferences(step, plan.Decisions),
		}, s.workingDir)
		if err != nil {
			report.Failed = append(report.Failed, StepError{Title: step.Title, Err: err})
			continue
		}
		if err := s.producer.AddDependency(id, rootID, s.workingDir); err != nil {
			report.Failed = append(report.Failed, StepError{Title: step.Title, Err: err})
			continue
		}
		report.StepIDs = append(report.StepIDs, id)
	}
	return report, nil
}
