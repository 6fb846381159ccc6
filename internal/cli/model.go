package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	modelCmd := &cobra.Command{
		Use:   "model",
		Short: "Current model setting",
	}

	setCmd := &cobra.Command{
		Use:   "set <name>",
		Short: "Change the current model",
		Args:  cobra.ExactArgs(1),
		RunE:  runModelSet,
	}
	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Print the current model",
		RunE:  runModelGet,
	}

	modelCmd.AddCommand(setCmd, getCmd)
	RootCmd.AddCommand(modelCmd)
}

func runModelSet(cmd *cobra.Command, args []string) error {
	name := strings.TrimSpace(args[0])
	if name == "" {
		return fmt.Errorf("model name must not be empty")
	}
	return withState(cmd, true, func(s *session) error {
		s.state.ChangeModel(name)
		return printOK(cmd, "model", name)
	})
}

func runModelGet(cmd *cobra.Command, args []string) error {
	return withState(cmd, false, func(s *session) error {
		name := s.state.CurrentModel()
		if s.cfg.Format == "text" {
			fmt.Fprintln(cmd.OutOrStdout(), name)
			return nil
		}
		return printJSON(cmd, map[string]string{"model": name})
	})
}
