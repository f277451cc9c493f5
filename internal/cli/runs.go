package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/imkarma/loom/internal/ledger"
)

var runsCmd = &cobra.Command{
	Use:   "runs [run-id]",
	Short: "List recorded runs, or show one run's steps",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRuns,
}

func init() {
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	dbPath := loomPath("ledger.db")
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Printf("%sNo runs recorded yet.%s\n", colorDim, colorReset)
		return nil
	}

	l, err := ledger.New(dbPath)
	if err != nil {
		return err
	}
	defer l.Close()

	if len(args) == 1 {
		return showRun(l, args[0])
	}

	runs, err := l.ListRuns()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Printf("%sNo runs recorded yet.%s\n", colorDim, colorReset)
		return nil
	}

	for _, r := range runs {
		fmt.Printf("  %s%s%s %s%-10s%s %s %s%s%s\n",
			colorYellow, shortRunID(r.ID), colorReset,
			statusColor(r.Status), r.Status, colorReset,
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			colorDim, r.Plan, colorReset)
	}

	interrupted, _ := l.ListInterruptedRuns()
	if len(interrupted) > 0 {
		fmt.Printf("\n  %s⚠ %d run(s) still marked running (live or interrupted)%s\n",
			colorYellow, len(interrupted), colorReset)
	}
	return nil
}

func showRun(l *ledger.Ledger, prefix string) error {
	runs, err := l.ListRuns()
	if err != nil {
		return err
	}

	var match *ledger.Run
	for i := range runs {
		if runs[i].ID == prefix || (len(prefix) >= 4 && len(runs[i].ID) >= len(prefix) && runs[i].ID[:len(prefix)] == prefix) {
			match = &runs[i]
			break
		}
	}
	if match == nil {
		return fmt.Errorf("run %q not found", prefix)
	}

	fmt.Printf("  Run %s%s%s — %s%s%s\n\n", colorYellow, match.ID, colorReset,
		statusColor(match.Status), match.Status, colorReset)

	steps, err := l.ListStepRuns(match.ID)
	if err != nil {
		return err
	}
	for _, s := range steps {
		fmt.Printf("  %s%-16s%s %s%-10s%s", colorYellow, s.BeadID, colorReset,
			statusColor(s.State), s.State, colorReset)
		if s.Retries > 0 {
			fmt.Printf(" %s(%d retries)%s", colorDim, s.Retries, colorReset)
		}
		fmt.Println()
	}
	return nil
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func statusColor(status string) string {
	switch status {
	case "done", "completed":
		return colorGreen
	case "running":
		return colorBlue
	case "escalate", "halted":
		return colorYellow
	default:
		return colorRed
	}
}
