package orchestrate

import (
	"context"
	"fmt"
)

// PlanResult is the outcome of running a whole step queue.
type PlanResult struct {
	Steps  []StepResult
	Halted bool   // a step escalated/aborted before the queue drained
	Reason string // why, when halted
}

// RunPlan processes the step queue in order, halting immediately when a step
// escalates, aborts, or fails. The queue order is supplied by upstream
// dependency resolution; nothing is reordered here.
func (m *Machine) RunPlan(ctx context.Context, beadIDs []string, workDir string) (*PlanResult, error) {
	if err := m.Preflight(); err != nil {
		return nil, err
	}

	plan := &PlanResult{}
	for i, beadID := range beadIDs {
		select {
		case <-ctx.Done():
			plan.Halted = true
			plan.Reason = "aborted by user"
			return plan, nil
		default:
		}

		m.logf("step %d/%d: %s", i+1, len(beadIDs), beadID)

		res, err := m.RunStep(ctx, beadID, workDir)
		if err != nil {
			// Fatal: a partially completed step without a closing finalize
			// leaves the bead ambiguous, so the whole loop stops here.
			return plan, fmt.Errorf("step %s: %w", beadID, err)
		}
		plan.Steps = append(plan.Steps, *res)

		if res.State != StateDone {
			plan.Halted = true
			plan.Reason = fmt.Sprintf("step %s %s: %s", beadID, res.State, res.Reason)
			return plan, nil
		}
	}
	return plan, nil
}
