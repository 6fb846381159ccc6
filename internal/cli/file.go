package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	fileCmd := &cobra.Command{
		Use:   "file",
		Short: "Versioned file store with one-step undo",
	}

	createCmd := &cobra.Command{
		Use:   "create [content]",
		Short: "Create a file (fails if the path exists)",
		Long:  "Create a file. Content can be a positional arg or piped via stdin.",
		RunE:  runFileCreate,
	}
	newCmd := &cobra.Command{
		Use:   "new [content]",
		Short: "Create a file; same rules as create",
		RunE:  runFileNew,
	}
	editCmd := &cobra.Command{
		Use:   "edit [content]",
		Short: "Replace a file's content, keeping the old content for undo",
		RunE:  runFileEdit,
	}
	undoCmd := &cobra.Command{
		Use:   "undo",
		Short: "Restore the content from before the last edit",
		RunE:  runFileUndo,
	}
	catCmd := &cobra.Command{
		Use:   "cat",
		Short: "Print a file's current content",
		RunE:  runFileCat,
	}
	lsCmd := &cobra.Command{
		Use:   "ls",
		Short: "List file paths",
		RunE:  runFileLs,
	}

	for _, c := range []*cobra.Command{createCmd, newCmd, editCmd, undoCmd, catCmd} {
		c.Flags().StringP("path", "p", "", "File path (required)")
		c.MarkFlagRequired("path")
	}

	fileCmd.AddCommand(createCmd, newCmd, editCmd, undoCmd, catCmd, lsCmd)
	RootCmd.AddCommand(fileCmd)
}

func runFileCreate(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("path")
	content, err := readContent(cmd, args)
	if err != nil {
		return err
	}
	return withState(cmd, true, func(s *session) error {
		if err := s.state.CreateFile(path, content); err != nil {
			return err
		}
		return printOK(cmd, "path", path)
	})
}

func runFileNew(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("path")
	content, err := readContent(cmd, args)
	if err != nil {
		return err
	}
	return withState(cmd, true, func(s *session) error {
		if err := s.state.CreateNewFile(path, content); err != nil {
			return err
		}
		return printOK(cmd, "path", path)
	})
}

func runFileEdit(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("path")
	content, err := readContent(cmd, args)
	if err != nil {
		return err
	}
	return withState(cmd, true, func(s *session) error {
		if err := s.state.EditFile(path, content); err != nil {
			return err
		}
		return printOK(cmd, "path", path)
	})
}

func runFileUndo(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("path")
	return withState(cmd, true, func(s *session) error {
		if err := s.state.UndoEdit(path); err != nil {
			return err
		}
		return printOK(cmd, "path", path)
	})
}

func runFileCat(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("path")
	return withState(cmd, false, func(s *session) error {
		fc, err := s.state.GetFileContent(path)
		if err != nil {
			return err
		}
		if s.cfg.Format == "text" {
			fmt.Fprint(cmd.OutOrStdout(), fc.Content)
			return nil
		}
		return printJSON(cmd, fc)
	})
}

func runFileLs(cmd *cobra.Command, args []string) error {
	return withState(cmd, false, func(s *session) error {
		paths := s.state.ListFiles()
		if s.cfg.Format == "text" {
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		}
		return printJSON(cmd, paths)
	})
}
