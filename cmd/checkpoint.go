package cmd

import (
	"github.com/spf13/cobra"
)

// checkpointCmd groups checkpoint inspection subcommands
var checkpointCmd = &cobra.Command{
	Use:   "checkpoint",
	Short: "Inspect or reset change-detection checkpoints",
	Long: `Inspect or reset the per-destination change-detection checkpoint.

Incremental backups archive only files modified after the destination's
checkpoint. Clearing the checkpoint makes the next incremental run
archive the full tree again.`,
}

// checkpointShowCmd prints the recorded checkpoint
var checkpointShowCmd = &cobra.Command{
	Use:   "show <destination>",
	Short: "Show the checkpoint recorded for a destination",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApplication()
		if err != nil {
			return err
		}
		defer app.Close()

		return app.ShowCheckpoint(args[0])
	},
}

// checkpointClearCmd removes the recorded checkpoint
var checkpointClearCmd = &cobra.Command{
	Use:   "clear <destination>",
	Short: "Remove the checkpoint recorded for a destination",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApplication()
		if err != nil {
			return err
		}
		defer app.Close()

		return app.ClearCheckpoint(args[0])
	},
}

func init() {
	rootCmd.AddCommand(checkpointCmd)
	checkpointCmd.AddCommand(checkpointShowCmd)
	checkpointCmd.AddCommand(checkpointClearCmd)
}
