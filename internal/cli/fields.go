package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/imkarma/loom/internal/bead"
	"github.com/imkarma/loom/internal/beadstore"
	"github.com/imkarma/loom/internal/field"
)

// The field commands are the surface workers call to read and write bead
// fields. Each command maps to exactly one role's allowed operation, so a
// worker script physically cannot reach a field it does not own through
// loom. All of them emit the {status, data, issues} envelope on stdout.

var inspectCmd = &cobra.Command{
	Use:   "inspect <bead-id>",
	Short: "Print the full bead as structured data",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := storeClient()
		if err != nil {
			return emitError(err)
		}
		b, err := client.Show(args[0], fieldWorkingDir)
		if err != nil {
			return emitError(err)
		}
		return emitOK(b)
	},
}

var appendDesignCmd = &cobra.Command{
	Use:   "append-design <bead-id>",
	Short: "Append a section to the bead's design field (strategist)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := resolveContent(cmd)
		if err != nil {
			return emitError(err)
		}
		client, err := storeClient()
		if err != nil {
			return emitError(err)
		}
		view := field.NewStrategistView(client)
		if err := view.AppendDesign(args[0], content, fieldWorkingDir); err != nil {
			return emitError(err)
		}
		return emitOK(map[string]string{"id": args[0], "field": string(bead.FieldDesign), "op": "append"})
	},
}

var updateNotesCmd = &cobra.Command{
	Use:   "update-notes <bead-id>",
	Short: "Overwrite the bead's notes field (implementer)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := resolveContent(cmd)
		if err != nil {
			return emitError(err)
		}
		client, err := storeClient()
		if err != nil {
			return emitError(err)
		}
		view := field.NewImplementerView(client)
		if err := view.OverwriteNotes(args[0], content, fieldWorkingDir); err != nil {
			return emitError(err)
		}
		return emitOK(map[string]string{"id": args[0], "field": string(bead.FieldNotes), "op": "overwrite"})
	},
}

var appendNotesCmd = &cobra.Command{
	Use:   "append-notes <bead-id>",
	Short: "Append a section to the bead's notes field (verifier)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := resolveContent(cmd)
		if err != nil {
			return emitError(err)
		}
		client, err := storeClient()
		if err != nil {
			return emitError(err)
		}
		view := field.NewVerifierView(client)
		if err := view.AppendNotes(args[0], content, fieldWorkingDir); err != nil {
			return emitError(err)
		}
		return emitOK(map[string]string{"id": args[0], "field": string(bead.FieldNotes), "op": "append"})
	},
}

var closeCmd = &cobra.Command{
	Use:   "close <bead-id>",
	Short: "Close the bead with a commit id and one-line summary (finalizer)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := storeClient()
		if err != nil {
			return emitError(err)
		}
		view := field.NewFinalizerView(client)
		reason := bead.CloseReason(closeCommit, closeSummary)
		err = view.CloseBead(args[0], reason, fieldWorkingDir)
		if errors.Is(err, beadstore.ErrAlreadyClosed) {
			// The reason is still recorded; surface as a warning.
			return emitOK(map[string]string{"id": args[0], "close_reason": reason},
				"bead was already closed; reason updated")
		}
		if err != nil {
			return emitError(err)
		}
		return emitOK(map[string]string{"id": args[0], "close_reason": reason})
	},
}

var (
	fieldContent     string
	fieldContentFile string
	fieldWorkingDir  string
	closeCommit      string
	closeSummary     string
)

func init() {
	for _, cmd := range []*cobra.Command{inspectCmd, appendDesignCmd, updateNotesCmd, appendNotesCmd, closeCmd} {
		cmd.Flags().StringVar(&fieldWorkingDir, "working-dir", "", "Resolve the store relative to this directory")
		rootCmd.AddCommand(cmd)
	}
	// --json is accepted for compatibility; the envelope is always JSON.
	inspectCmd.Flags().Bool("json", true, "Emit JSON (always on)")

	for _, cmd := range []*cobra.Command{appendDesignCmd, updateNotesCmd, appendNotesCmd} {
		cmd.Flags().StringVar(&fieldContent, "content", "", "Field content, inline")
		cmd.Flags().StringVar(&fieldContentFile, "content-file", "", "Read field content from a file")
	}

	closeCmd.Flags().StringVar(&closeCommit, "commit", "", "Commit or result identifier")
	closeCmd.Flags().StringVar(&closeSummary, "summary", "", "One-line summary")
	closeCmd.MarkFlagRequired("summary")
}

// resolveContent returns the payload from --content or --content-file,
// requiring exactly one. Presence is checked on the flag, not the value, so
// --content "" is a deliberate empty payload (an implementer clearing notes)
// rather than a missing flag. The file form exists so callers can sidestep
// argument-length and quoting limits entirely.
func resolveContent(cmd *cobra.Command) (string, error) {
	contentSet := cmd.Flags().Changed("content")
	fileSet := cmd.Flags().Changed("content-file")

	switch {
	case contentSet && fileSet:
		return "", fmt.Errorf("use --content or --content-file, not both")
	case contentSet:
		return fieldContent, nil
	case fileSet:
		data, err := os.ReadFile(fieldContentFile)
		if err != nil {
			return "", fmt.Errorf("read content file: %w", err)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("--content or --content-file is required")
	}
}
