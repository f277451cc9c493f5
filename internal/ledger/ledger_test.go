package ledger

import (
	"path/filepath"
	"testing"

	"github.com/imkarma/loom/internal/agent"
	"github.com/imkarma/loom/internal/orchestrate"
)

func testLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := New(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestRunLifecycle(t *testing.T) {
	l := testLedger(t)

	id, err := l.StartRun("plan.yaml")
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}

	runs, err := l.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("runs = %d", len(runs))
	}
	if runs[0].ID != id || runs[0].Status != "running" || runs[0].Plan != "plan.yaml" {
		t.Errorf("run = %+v", runs[0])
	}

	if err := l.EndRun(id, "completed"); err != nil {
		t.Fatalf("EndRun: %v", err)
	}
	runs, _ = l.ListRuns()
	if runs[0].Status != "completed" {
		t.Errorf("status = %q", runs[0].Status)
	}
	if runs[0].EndedAt.IsZero() {
		t.Error("ended_at not set")
	}
}

func TestListInterruptedRuns(t *testing.T) {
	l := testLedger(t)

	done, _ := l.StartRun("a.yaml")
	l.EndRun(done, "completed")
	crashed, _ := l.StartRun("b.yaml")

	interrupted, err := l.ListInterruptedRuns()
	if err != nil {
		t.Fatalf("ListInterruptedRuns: %v", err)
	}
	if len(interrupted) != 1 || interrupted[0].ID != crashed {
		t.Errorf("interrupted = %+v", interrupted)
	}
}

func TestRecorderJournalsSteps(t *testing.T) {
	l := testLedger(t)
	runID, _ := l.StartRun("plan.yaml")
	rec := l.NewRecorder(runID)

	rec.StepStarted("bead-1")
	rec.Dispatched("bead-1", "strategist", &agent.Result{Status: agent.StatusDone}, nil)
	rec.Dispatched("bead-1", "implementer", &agent.Result{Status: agent.StatusDone, Drift: agent.DriftMinor}, nil)
	rec.StepEnded("bead-1", orchestrate.StateDone, 1)

	rec.StepStarted("bead-2")
	rec.StepEnded("bead-2", orchestrate.StateEscalate, 3)

	steps, err := l.ListStepRuns(runID)
	if err != nil {
		t.Fatalf("ListStepRuns: %v", err)
	}
	if len(steps) != 2 {
		t.Fatalf("steps = %d", len(steps))
	}

	if steps[0].BeadID != "bead-1" || steps[0].State != "done" || steps[0].Retries != 1 {
		t.Errorf("step[0] = %+v", steps[0])
	}
	if steps[0].EndedAt.IsZero() {
		t.Error("step[0] ended_at not set")
	}
	if steps[1].BeadID != "bead-2" || steps[1].State != "escalate" || steps[1].Retries != 3 {
		t.Errorf("step[1] = %+v", steps[1])
	}
}

func TestRecorderToleratesDispatchError(t *testing.T) {
	l := testLedger(t)
	runID, _ := l.StartRun("plan.yaml")
	rec := l.NewRecorder(runID)

	rec.StepStarted("bead-1")
	// Fatal dispatch: no result, only an error. Must not panic or block.
	rec.Dispatched("bead-1", "implementer", nil, errTimeout{})
	rec.StepEnded("bead-1", orchestrate.StateAbort, 0)

	steps, err := l.ListStepRuns(runID)
	if err != nil {
		t.Fatalf("ListStepRuns: %v", err)
	}
	if len(steps) != 1 || steps[0].State != "abort" {
		t.Errorf("steps = %+v", steps)
	}
}

type errTimeout struct{}

func (errTimeout) Error() string { return "timeout after 600s" }
