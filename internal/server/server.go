// Package server exposes the state operations as JSON remote procedures
// over HTTP.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v5"

	"github.com/rcliao/agent-state/internal/store"
)

// CommitFunc runs a state mutation and makes it durable.
type CommitFunc func(ctx context.Context, mutate func() error) error

// Option configures a Server.
type Option func(*Server)

// WithCommit routes every mutating call through fn. Without it mutations
// only change the in-memory state.
func WithCommit(fn CommitFunc) Option {
	return func(s *Server) {
		s.commit = fn
	}
}

// Server routes /rpc/<operation> calls to a store.Store.
type Server struct {
	store  store.Store
	logger *slog.Logger
	echo   *echo.Echo
	commit CommitFunc
}

// New builds the HTTP handler for st.
func New(st store.Store, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{store: st, logger: logger, echo: echo.New()}
	for _, opt := range opts {
		opt(s)
	}
	if s.commit == nil {
		s.commit = func(_ context.Context, mutate func() error) error { return mutate() }
	}

	s.echo.Use(s.requestLogger)
	s.echo.GET("/healthz", s.healthz)

	g := s.echo.Group("/rpc")

	g.POST("/createFile", s.createFile)
	g.POST("/addFile", s.createFile)
	g.POST("/createNewFile", s.createNewFile)
	g.POST("/editFile", s.editFile)
	g.POST("/undoEdit", s.undoEdit)
	g.POST("/getFileContent", s.getFileContent)
	g.POST("/listFiles", s.listFiles)

	g.POST("/addMessage", s.addMessage)
	g.POST("/getChatHistory", s.getChatHistory)

	g.POST("/changeModel", s.changeModel)
	g.POST("/getCurrentModel", s.getCurrentModel)

	g.POST("/storeImage", s.storeImage)
	g.POST("/getStoredImage", s.getStoredImage)
	g.POST("/storeSearch", s.storeSearch)
	g.POST("/getStoredSearch", s.getStoredSearch)

	g.POST("/clearMemory", s.clearMemory)
	g.POST("/resetAll", s.resetAll)
	g.GET("/stats", s.stats)

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

func (s *Server) healthz(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
