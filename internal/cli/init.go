package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/imkarma/loom/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize loom in the current directory",
	RunE:  runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(loomPath("config.yaml")); err == nil {
		return fmt.Errorf("already initialized (%s exists)", loomPath("config.yaml"))
	}

	for _, dir := range []string{loomDirName, loomPath("workers")} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	cfg := config.DefaultConfig()
	cfg.Agents = map[string]config.Agent{
		"strategist":  {Role: config.RoleStrategist, Cmd: "claude", AutoAccept: true},
		"implementer": {Role: config.RoleImplementer, Cmd: "claude", AutoAccept: true},
		"verifier":    {Role: config.RoleVerifier, Cmd: "claude", AutoAccept: true},
		"finalizer":   {Role: config.RoleFinalizer, Cmd: "claude", AutoAccept: true},
	}
	if err := config.Save(loomPath("config.yaml"), cfg); err != nil {
		return err
	}

	fmt.Printf("%s✓%s Initialized %s/\n", colorGreen, colorReset, loomDirName)
	fmt.Printf("  Edit %s%s%s to configure agents.\n", colorCyan, loomPath("config.yaml"), colorReset)
	fmt.Printf("  Project-local worker overrides go in %s%s%s.\n", colorCyan, loomPath("workers"), colorReset)
	return nil
}
