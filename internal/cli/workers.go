package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/imkarma/loom/internal/config"
	"github.com/imkarma/loom/internal/workers"
)

var workersCmd = &cobra.Command{
	Use:   "workers",
	Short: "Inspect worker definition resolution",
}

var workersVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check that every required worker definition resolves",
	RunE:  runWorkersVerify,
}

var workersWhichCmd = &cobra.Command{
	Use:   "which <worker-name>",
	Short: "Show where a worker definition resolves from",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, ok := workers.Resolve(args[0], projectRoot())
		if !ok {
			return fmt.Errorf("worker %q not found", args[0])
		}
		fmt.Println(path)
		return nil
	},
}

func init() {
	workersCmd.AddCommand(workersVerifyCmd)
	workersCmd.AddCommand(workersWhichCmd)
	rootCmd.AddCommand(workersCmd)
}

func runWorkersVerify(cmd *cobra.Command, args []string) error {
	cfg, err := mustConfig()
	if err != nil {
		return err
	}

	var names []string
	for _, role := range config.RequiredRoles {
		_, agentCfg, ok := cfg.AgentByRole(role)
		if !ok {
			return fmt.Errorf("no agent configured for role %q", role)
		}
		names = append(names, agentCfg.WorkerName())
	}

	err = workers.VerifyRequired(names, projectRoot())
	var missing *workers.MissingWorkersError
	if errors.As(err, &missing) {
		fmt.Printf("%s✗ Missing workers:%s\n", colorRed, colorReset)
		for _, name := range missing.Missing {
			fmt.Printf("  %s%s%s\n", colorYellow, name, colorReset)
		}
		fmt.Printf("%sSearched:%s\n", colorDim, colorReset)
		for _, path := range missing.Searched {
			fmt.Printf("  %s%s%s\n", colorDim, path, colorReset)
		}
		return err
	}
	if err != nil {
		return err
	}

	for _, name := range names {
		path, _ := workers.Resolve(name, projectRoot())
		fmt.Printf("  %s✓%s %-14s %s%s%s\n", colorGreen, colorReset, name, colorDim, path, colorReset)
	}
	return nil
}
