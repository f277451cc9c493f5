package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "loom",
	Short: "Bead-mediated agent coordination",
	Long: "loom — drives a sequence of stateless workers through shared work items (beads).\n" +
		"Workers exchange data only through bead fields; loom dispatches them in order.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
