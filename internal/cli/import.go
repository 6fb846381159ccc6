package cli

import (
	"github.com/spf13/cobra"

	"github.com/rcliao/agent-state/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import state from JSON",
		Long:  "Replace the whole state with a JSON document from stdin. Expects the format produced by export.",
		RunE:  runImport,
	}

	RootCmd.AddCommand(cmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	snap, err := store.ImportJSON(cmd.InOrStdin())
	if err != nil {
		return err
	}

	return withState(cmd, true, func(s *session) error {
		if err := s.state.Restore(snap); err != nil {
			return err
		}
		return printOK(cmd, "files", len(snap.Files), "messages", len(snap.Chat))
	})
}
