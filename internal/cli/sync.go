package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/imkarma/loom/internal/field"
	"github.com/imkarma/loom/internal/plansync"
)

var syncCmd = &cobra.Command{
	Use:   "sync <plan.yaml>",
	Short: "Populate beads from a plan file",
	Long: `Creates one root bead for the plan and one bead per step, seeded with the
rendered work spec, acceptance criteria, and design references. Step failures
are collected and reported at the end; the batch is not aborted.`,
	Args: cobra.ExactArgs(1),
	RunE: runSync,
}

var syncWorkingDir string

func init() {
	syncCmd.Flags().StringVar(&syncWorkingDir, "working-dir", "", "Resolve the store relative to this directory")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	plan, err := plansync.LoadPlan(args[0])
	if err != nil {
		return err
	}

	client, err := storeClient()
	if err != nil {
		return err
	}

	workDir := syncWorkingDir
	if workDir == "" {
		workDir, _ = os.Getwd()
	}

	syncer := plansync.NewSyncer(field.NewProducerView(client), workDir)
	report, err := syncer.Sync(plan)
	if err != nil {
		return err
	}

	fmt.Printf("%s═══ loom sync%s — %s\n\n", colorBold, colorReset, plan.Title)
	fmt.Printf("  Root: %s%s%s\n", colorYellow, report.RootID, colorReset)
	fmt.Printf("  %s✓ Created: %d steps%s\n", colorGreen, len(report.StepIDs), colorReset)
	if len(report.StepIDs) > 0 {
		fmt.Printf("    %s%s%s\n", colorDim, strings.Join(report.StepIDs, " "), colorReset)
	}
	if len(report.Failed) > 0 {
		fmt.Printf("  %s✗ Failed: %d%s\n", colorRed, len(report.Failed), colorReset)
		for _, f := range report.Failed {
			fmt.Printf("    %s%s: %v%s\n", colorRed, f.Title, f.Err, colorReset)
		}
		return fmt.Errorf("%d of %d steps failed to sync", len(report.Failed), len(plan.Steps))
	}
	fmt.Printf("\n  Run them: %sloom run %s%s\n", colorCyan, strings.Join(report.StepIDs, " "), colorReset)
	return nil
}
