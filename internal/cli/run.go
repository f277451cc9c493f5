package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/imkarma/loom/internal/ledger"
	"github.com/imkarma/loom/internal/orchestrate"
)

var runCmd = &cobra.Command{
	Use:   "run <bead-id> [bead-id...]",
	Short: "Run the worker sequence over a queue of step beads",
	Long: `Drives each step bead through strategize -> implement -> verify -> finalize,
in the order given. Verification failures loop back to implement up to the
retry cap; escalations halt the whole queue at a human decision point.

Ctrl-C aborts between dispatches without cleanup beyond temp files.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

var (
	runWorkingDir string
	runRetryCap   int
)

func init() {
	runCmd.Flags().StringVar(&runWorkingDir, "working-dir", "", "Working directory passed to workers (default: current)")
	runCmd.Flags().IntVar(&runRetryCap, "retry-cap", 0, "Override the implement/verify retry budget")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := mustConfig()
	if err != nil {
		return err
	}
	if runRetryCap > 0 {
		cfg.RetryCap = runRetryCap
	}

	workDir := runWorkingDir
	if workDir == "" {
		workDir, _ = os.Getwd()
	}

	l, err := ledger.New(loomPath("ledger.db"))
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer l.Close()

	runID, err := l.StartRun(strings.Join(args, " "))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	machine := orchestrate.New(cfg, projectRoot(),
		orchestrate.WithRecorder(l.NewRecorder(runID)),
		orchestrate.WithLogf(func(format string, a ...any) {
			fmt.Printf("  %s%s%s\n", colorDim, fmt.Sprintf(format, a...), colorReset)
		}),
	)

	fmt.Printf("%s═══ loom run%s — %d steps, retry cap %d\n\n", colorBold, colorReset, len(args), cfg.EffectiveRetryCap())

	plan, err := machine.RunPlan(ctx, args, workDir)
	if err != nil {
		l.EndRun(runID, "failed")
		return err
	}

	printPlanSummary(plan)

	status := "completed"
	if plan.Halted {
		status = "halted"
	}
	l.EndRun(runID, status)

	if plan.Halted {
		return fmt.Errorf("run halted: %s", plan.Reason)
	}
	return nil
}

func printPlanSummary(plan *orchestrate.PlanResult) {
	fmt.Printf("\n%s═══ Summary%s\n", colorBold, colorReset)
	for _, step := range plan.Steps {
		icon, color := "✓", colorGreen
		if step.State != orchestrate.StateDone {
			icon, color = "⚠", colorYellow
		}
		fmt.Printf("  %s%s%s %s%s%s %s", color, icon, colorReset, colorYellow, step.BeadID, colorReset, step.State)
		if step.Retries > 0 {
			fmt.Printf(" %s(%d retries)%s", colorDim, step.Retries, colorReset)
		}
		fmt.Println()
		if step.Summary != "" {
			fmt.Printf("    %s%s%s\n", colorDim, step.Summary, colorReset)
		}
		if step.Reason != "" {
			fmt.Printf("    %s%s%s\n", colorRed, step.Reason, colorReset)
		}
	}
	if plan.Halted {
		fmt.Printf("\n  %s⚠ Halted:%s %s\n", colorYellow, colorReset, plan.Reason)
	}
}
