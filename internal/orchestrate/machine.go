// Package orchestrate drives one step (and, one level up, a whole plan)
// through the fixed worker sequence. Dispatch is strictly sequential: at
// most one worker is ever active, which is what makes the store's
// non-atomic read-modify-write appends safe.
package orchestrate

import (
	"context"
	"fmt"

	"github.com/imkarma/loom/internal/agent"
	"github.com/imkarma/loom/internal/config"
	"github.com/imkarma/loom/internal/workers"
)

// State is a step's position in the machine.
type State string

const (
	StateStrategize State = "strategize"
	StateImplement  State = "implement"
	StateVerify     State = "verify"
	StateFinalize   State = "finalize"
	StateDone       State = "done"
	StateEscalate   State = "escalate" // human decision point, halts the plan
	StateAbort      State = "abort"    // user abort, halts the plan
)

// StepResult is the terminal outcome of one step.
type StepResult struct {
	BeadID   string
	State    State
	Retries  int    // non-approving verify outcomes consumed
	CommitID string // from the finalizer, when done
	Summary  string
	Reason   string // why escalated/aborted, when not done
}

// Recorder receives progress events for the run ledger. All methods are
// best-effort; recording failures never affect orchestration.
type Recorder interface {
	StepStarted(beadID string)
	Dispatched(beadID, role string, result *agent.Result, err error)
	StepEnded(beadID string, state State, retries int)
}

// nopRecorder is used when no ledger is wired.
type nopRecorder struct{}

func (nopRecorder) StepStarted(string)                              {}
func (nopRecorder) Dispatched(string, string, *agent.Result, error) {}
func (nopRecorder) StepEnded(string, State, int)                    {}

// Machine runs steps through the worker sequence.
type Machine struct {
	cfg         *config.Config
	projectRoot string
	recorder    Recorder
	logf        func(format string, args ...any)

	// newRunner is swappable in tests.
	newRunner func(name string, agentCfg config.Agent) agent.Runner
}

// Option configures a Machine.
type Option func(*Machine)

// WithRecorder wires a run ledger.
func WithRecorder(r Recorder) Option {
	return func(m *Machine) { m.recorder = r }
}

// WithLogf wires progress output.
func WithLogf(logf func(format string, args ...any)) Option {
	return func(m *Machine) { m.logf = logf }
}

// WithRunnerFactory replaces worker dispatch, for tests.
func WithRunnerFactory(f func(name string, agentCfg config.Agent) agent.Runner) Option {
	return func(m *Machine) { m.newRunner = f }
}

// New creates a Machine for the given project.
func New(cfg *config.Config, projectRoot string, opts ...Option) *Machine {
	m := &Machine{
		cfg:         cfg,
		projectRoot: projectRoot,
		recorder:    nopRecorder{},
		logf:        func(string, ...any) {},
		newRunner:   agent.NewRunner,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Preflight resolves every required worker before any dispatch happens.
func (m *Machine) Preflight() error {
	names := make([]string, 0, len(config.RequiredRoles))
	for _, role := range config.RequiredRoles {
		_, agentCfg, ok := m.cfg.AgentByRole(role)
		if !ok {
			return fmt.Errorf("no agent configured for role %q", role)
		}
		names = append(names, agentCfg.WorkerName())
	}
	return workers.VerifyRequired(names, m.projectRoot)
}

// RunStep drives one bead through strategize -> implement -> verify
// (-> implement on revise, bounded) -> finalize. Any worker error before a
// structured result is fatal and returned as err; everything else lands in
// the StepResult.
func (m *Machine) RunStep(ctx context.Context, beadID, workDir string) (*StepResult, error) {
	m.recorder.StepStarted(beadID)
	res, err := m.runStep(ctx, beadID, workDir)
	if err != nil {
		m.recorder.StepEnded(beadID, StateAbort, 0)
		return nil, err
	}
	m.recorder.StepEnded(beadID, res.State, res.Retries)
	return res, nil
}

func (m *Machine) runStep(ctx context.Context, beadID, workDir string) (*StepResult, error) {
	result := &StepResult{BeadID: beadID}

	// Strategize. The strategist appends to design; the orchestrator only
	// inspects the structured return.
	stratRes, err := m.dispatch(ctx, beadID, workDir, config.RoleStrategist, "")
	if err != nil {
		return nil, err
	}
	if halted := m.checkHalt(result, config.RoleStrategist, stratRes); halted {
		return result, nil
	}

	retryCap := m.cfg.EffectiveRetryCap()
	var implRes, verifyRes *agent.Result

	for {
		// Implement. On a retry cycle the implementer overwrites notes, so
		// stale verifier feedback never accumulates.
		implRes, err = m.dispatch(ctx, beadID, workDir, config.RoleImplementer, "")
		if err != nil {
			return nil, err
		}
		if halted := m.checkHalt(result, config.RoleImplementer, implRes); halted {
			return result, nil
		}
		if implRes.Drift == agent.DriftModerate || implRes.Drift == agent.DriftMajor {
			result.State = StateEscalate
			result.Reason = fmt.Sprintf("implementer drift %s: %d files touched", implRes.Drift, len(implRes.FilesTouched))
			return result, nil
		}

		// Verify.
		verifyRes, err = m.dispatch(ctx, beadID, workDir, config.RoleVerifier, "")
		if err != nil {
			return nil, err
		}
		if halted := m.checkHalt(result, config.RoleVerifier, verifyRes); halted {
			return result, nil
		}

		if verifyRes.Verdict == agent.VerdictApprove {
			break
		}

		// Every non-approving outcome consumes retry budget.
		result.Retries++
		if verifyRes.Verdict == agent.VerdictEscalate {
			result.State = StateEscalate
			result.Reason = "verifier escalated: " + verifyRes.Summary
			return result, nil
		}
		if result.Retries >= retryCap {
			result.State = StateEscalate
			result.Reason = fmt.Sprintf("retry budget exhausted after %d revise cycles", result.Retries)
			return result, nil
		}
		m.logf("verifier requested revision (%d/%d)", result.Retries, retryCap)
	}

	// Finalize. The one worker that does not self-fetch: it gets a summary
	// assembled from the structured returns, never from the store.
	summary := assembleSummary(implRes, verifyRes)
	finalRes, err := m.dispatch(ctx, beadID, workDir, config.RoleFinalizer, summary)
	if err != nil {
		return nil, err
	}
	if halted := m.checkHalt(result, config.RoleFinalizer, finalRes); halted {
		return result, nil
	}

	result.State = StateDone
	result.CommitID = finalRes.CommitID
	result.Summary = finalRes.Summary
	return result, nil
}

// dispatch resolves and runs one worker role against the bead.
func (m *Machine) dispatch(ctx context.Context, beadID, workDir, role, summary string) (*agent.Result, error) {
	name, agentCfg, ok := m.cfg.AgentByRole(role)
	if !ok {
		return nil, fmt.Errorf("no agent configured for role %q", role)
	}

	workerPath, ok := workers.Resolve(agentCfg.WorkerName(), m.projectRoot)
	if !ok {
		return nil, fmt.Errorf("worker %q not found for role %q", agentCfg.WorkerName(), role)
	}

	m.logf("dispatching %s (%s) on %s", role, name, beadID)

	runner := m.newRunner(name, agentCfg)
	res, err := runner.Dispatch(ctx, agent.Request{
		BeadID:     beadID,
		Role:       role,
		WorkerPath: workerPath,
		WorkDir:    workDir,
		Summary:    summary,
		TimeoutSec: agentCfg.DefaultTimeout(),
	})
	m.recorder.Dispatched(beadID, role, res, err)
	if err != nil {
		return nil, fmt.Errorf("dispatch %s on %s: %w", role, beadID, err)
	}
	return res, nil
}

// checkHalt folds blocked/failed worker statuses into the step result.
// Returns true when the step is terminal.
func (m *Machine) checkHalt(result *StepResult, role string, res *agent.Result) bool {
	switch res.Status {
	case agent.StatusBlocked:
		result.State = StateEscalate
		result.Reason = fmt.Sprintf("%s blocked: %s", role, res.Blocked)
		return true
	case agent.StatusFailed:
		result.State = StateEscalate
		result.Reason = fmt.Sprintf("%s reported failure: %s", role, res.Summary)
		return true
	}
	return false
}

// assembleSummary builds the finalizer's input from the implement/verify
// structured returns.
func assembleSummary(implRes, verifyRes *agent.Result) string {
	summary := fmt.Sprintf("Implementation: %s\nVerification: %s", implRes.Summary, verifyRes.Summary)
	if implRes.CommitID != "" {
		summary += "\nCommit: " + implRes.CommitID
	}
	if len(implRes.FilesTouched) > 0 {
		summary += fmt.Sprintf("\nFiles touched: %d (drift: %s)", len(implRes.FilesTouched), implRes.Drift)
	}
	return summary
}
