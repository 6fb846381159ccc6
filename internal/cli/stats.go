package cli

import (
	"github.com/spf13/cobra"

	"github.com/rcliao/agent-state/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show state and database statistics",
		RunE:  runStats,
	}

	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	return withState(cmd, false, func(s *session) error {
		info, err := s.db.Info(cmd.Context(), s.cfg.DBPath)
		if err != nil {
			return err
		}
		return printJSON(cmd, struct {
			store.Stats
			*store.DBInfo
		}{s.state.Stats(), info})
	})
}
