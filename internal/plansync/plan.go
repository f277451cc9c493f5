// Package plansync turns a plan file into beads: one root bead for the plan
// plus one bead per step, seeded through the producer's write-once fields.
package plansync

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/imkarma/loom/internal/bead"
)

// Plan is the planning-time input: ordered steps plus the decisions their
// references resolve against.
type Plan struct {
	Title     string          `yaml:"title"`
	Summary   string          `yaml:"summary,omitempty"`
	Steps     []bead.Step     `yaml:"steps"`
	Decisions []bead.Decision `yaml:"decisions,omitempty"`
}

// LoadPlan reads and validates a plan file.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}

	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse plan: %w", err)
	}

	if p.Title == "" {
		return nil, fmt.Errorf("plan %s: title is required", path)
	}
	if len(p.Steps) == 0 {
		return nil, fmt.Errorf("plan %s: at least one step is required", path)
	}
	for i, s := range p.Steps {
		if s.Title == "" {
			return nil, fmt.Errorf("plan %s: step %d: title is required", path, i+1)
		}
	}
	return &p, nil
}
