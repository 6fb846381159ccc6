// Package cli implements the agent-state CLI commands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/agent-state/internal/config"
	"github.com/rcliao/agent-state/internal/store"
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:           "agent-state",
	Short:         "Versioned files, chat log and caches for an assistant backend",
	Long:          "Stateful backend for an assistant: a file store with one-step undo, a chat log, the current model, and image/search caches. SQLite-backed, single binary.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	RootCmd.PersistentFlags().StringP(config.KeyDB, "d", "", "Database path (default: $AGENT_STATE_DB or ~/.agent-state/state.db)")
	RootCmd.PersistentFlags().StringP(config.KeyFormat, "f", "", "Output format: json or text (default json)")
	RootCmd.PersistentFlags().String(config.KeyDefaultModel, "", "Model used at start and after reset (default gpt-3.5-turbo)")
	RootCmd.PersistentFlags().String(config.KeyLogLevel, "", "Log level: debug, info, warn, error (default info)")
}

// session is the persisted state opened for one command.
type session struct {
	cfg   *config.Config
	db    *store.SQLiteStore
	state *store.State
}

func openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	db, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	st := store.New(store.Options{DefaultModel: cfg.DefaultModel})
	return &session{cfg: cfg, db: db, state: st}, nil
}

// load restores the in-memory state from the database.
func (s *session) load(ctx context.Context) error {
	snap, err := s.db.Load(ctx)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	if err := s.state.Restore(snap); err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	return nil
}

// commit runs mutate against the latest saved state and saves the result
// while holding the database write lock.
func (s *session) commit(ctx context.Context, mutate func() error) error {
	return s.db.Apply(ctx, s.state, mutate)
}

func (s *session) Close() error {
	return s.db.Close()
}

// withState runs fn against the persisted state. With mutate set, fn runs
// inside a write transaction and its changes are saved; a failing fn saves
// nothing.
func withState(cmd *cobra.Command, mutate bool, fn func(s *session) error) error {
	sess, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	if mutate {
		return sess.commit(cmd.Context(), func() error { return fn(sess) })
	}
	if err := sess.load(cmd.Context()); err != nil {
		return err
	}
	return fn(sess)
}

// readContent takes content from positional args, falling back to piped stdin.
func readContent(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok {
		stat, err := f.Stat()
		if err != nil || stat.Mode()&os.ModeCharDevice != 0 {
			return "", fmt.Errorf("content is required (positional arg or stdin)")
		}
	}
	b, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(b), nil
}

func printJSON(cmd *cobra.Command, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return nil
}

func printOK(cmd *cobra.Command, fields ...any) error {
	out := map[string]any{"ok": true}
	for i := 0; i+1 < len(fields); i += 2 {
		out[fmt.Sprint(fields[i])] = fields[i+1]
	}
	b, _ := json.Marshal(out)
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return nil
}
