package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	chatCmd := &cobra.Command{
		Use:   "chat",
		Short: "Append-only chat log",
	}

	addCmd := &cobra.Command{
		Use:   "add [content]",
		Short: "Append a message",
		Long:  "Append a message. Content can be a positional arg or piped via stdin.",
		RunE:  runChatAdd,
	}
	addCmd.Flags().StringP("role", "r", "user", "Message role, e.g. user or assistant")

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Print the chat log in order",
		RunE:  runChatHistory,
	}

	chatCmd.AddCommand(addCmd, historyCmd)
	RootCmd.AddCommand(chatCmd)
}

func runChatAdd(cmd *cobra.Command, args []string) error {
	role, _ := cmd.Flags().GetString("role")
	content, err := readContent(cmd, args)
	if err != nil {
		return err
	}
	return withState(cmd, true, func(s *session) error {
		s.state.AddMessage(role, content)
		return printOK(cmd, "role", role)
	})
}

func runChatHistory(cmd *cobra.Command, args []string) error {
	return withState(cmd, false, func(s *session) error {
		msgs := s.state.ChatHistory()
		if s.cfg.Format == "text" {
			for _, m := range msgs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", m.Role, m.Content)
			}
			return nil
		}
		return printJSON(cmd, msgs)
	})
}
