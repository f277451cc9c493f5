// Package agent dispatches worker processes and interprets their structured
// results. A worker is handed only a bead id and a working directory; it
// self-fetches everything else through the store. The one exception is the
// finalizer, which receives an orchestrator-assembled summary.
package agent

import (
	"context"

	"github.com/imkarma/loom/internal/config"
)

// Status is the top-level outcome a worker reports.
type Status string

const (
	StatusDone    Status = "done"
	StatusBlocked Status = "blocked"
	StatusFailed  Status = "failed"
)

// Verdict is the verifier's judgment of the implementation.
type Verdict string

const (
	VerdictApprove  Verdict = "approve"
	VerdictRevise   Verdict = "revise"
	VerdictEscalate Verdict = "escalate"
)

// DriftLevel classifies how far actual file changes deviated from the
// expected set. Moderate or above surfaces a decision point.
type DriftLevel string

const (
	DriftNone     DriftLevel = "none"
	DriftMinor    DriftLevel = "minor"
	DriftModerate DriftLevel = "moderate"
	DriftMajor    DriftLevel = "major"
)

// Request identifies what a worker is dispatched against. It never carries
// field content; workers read the bead themselves.
type Request struct {
	BeadID     string
	Role       string
	WorkerPath string // resolved worker definition file
	WorkDir    string
	Summary    string // finalizer only: orchestrator-assembled summary
	TimeoutSec int
}

// Result is the structured return value the orchestrator decides on. It is
// parsed from the worker's output, never from the store.
type Result struct {
	Status        Status     `json:"status"`
	Verdict       Verdict    `json:"verdict,omitempty"`
	Drift         DriftLevel `json:"drift,omitempty"`
	FilesTouched  []string   `json:"files_touched,omitempty"`
	ExpectedFiles []string   `json:"expected_files,omitempty"`
	CommitID      string     `json:"commit,omitempty"`
	Summary       string     `json:"summary,omitempty"`
	Blocked       string     `json:"blocked,omitempty"` // question for the human, when status=blocked
	Duration      float64    `json:"-"`                 // seconds, filled by the runner
}

// Runner dispatches one worker role.
type Runner interface {
	// Dispatch runs the worker and returns its structured result. An error
	// means the worker never produced a parsable result; that is fatal to
	// the step.
	Dispatch(ctx context.Context, req Request) (*Result, error)

	// Name returns the configured agent name.
	Name() string
}

// NewRunner creates the CLI runner for a configured agent.
func NewRunner(name string, agentCfg config.Agent) Runner {
	return NewCLIRunner(name, agentCfg)
}
