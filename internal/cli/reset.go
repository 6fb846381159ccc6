package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	clearCmd := &cobra.Command{
		Use:   "clear-memory",
		Short: "Empty the chat log; files, model and caches are kept",
		RunE:  runClearMemory,
	}

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Empty every store and restore the default model",
		RunE:  runReset,
	}

	RootCmd.AddCommand(clearCmd, resetCmd)
}

func runClearMemory(cmd *cobra.Command, args []string) error {
	return withState(cmd, true, func(s *session) error {
		s.state.ClearMemory()
		return printOK(cmd)
	})
}

func runReset(cmd *cobra.Command, args []string) error {
	return withState(cmd, true, func(s *session) error {
		s.state.ResetAll()
		return printOK(cmd, "model", s.state.CurrentModel())
	})
}
