package cli

import (
	"github.com/spf13/cobra"

	"github.com/rcliao/agent-state/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the full state as JSON",
		Long:  "Export every store (files with undo history, chat, model, caches) as one JSON document.",
		RunE:  runExport,
	}

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	return withState(cmd, false, func(s *session) error {
		return store.ExportJSON(cmd.OutOrStdout(), s.state.Snapshot())
	})
}
