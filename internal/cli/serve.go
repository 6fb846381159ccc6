package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rcliao/agent-state/internal/config"
	"github.com/rcliao/agent-state/internal/logging"
	"github.com/rcliao/agent-state/internal/server"
)

const shutdownTimeout = 10 * time.Second

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the state operations over HTTP",
		Long:  "Serve /rpc/<operation> calls. Every mutating call is saved to the database before it is answered.",
		RunE:  runServe,
	}

	cmd.Flags().StringP(config.KeyAddr, "a", "", "Listen address (default: $AGENT_STATE_ADDR or :8080)")

	RootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	sess, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.load(cmd.Context()); err != nil {
		return err
	}

	logger := logging.New(cmd.ErrOrStderr(), sess.cfg.LogLevel)

	srv := &http.Server{
		Addr:              sess.cfg.Addr,
		Handler:           server.New(sess.state, logger, server.WithCommit(sess.commit)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logger.Info("listening", "addr", sess.cfg.Addr, "db", sess.cfg.DBPath, "model", sess.state.CurrentModel())

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown", "err", err)
	}
	logger.Info("stopped")
	return nil
}
