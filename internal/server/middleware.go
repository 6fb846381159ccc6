package server

import (
	"time"

	"github.com/labstack/echo/v5"
	"github.com/oklog/ulid/v2"

	"github.com/rcliao/agent-state/internal/logging"
)

const headerRequestID = "X-Request-ID"

// requestLogger tags every request with an ID (the caller's X-Request-ID or
// a new ULID), stores a request-scoped logger in the context, and logs the
// call once it returns.
func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c *echo.Context) error {
		start := time.Now()
		req := c.Request()

		id := req.Header.Get(headerRequestID)
		if id == "" {
			id = ulid.Make().String()
		}
		c.Response().Header().Set(headerRequestID, id)

		l := s.logger.With("request_id", id)
		c.SetRequest(req.WithContext(logging.WithLogger(req.Context(), l)))

		err := next(c)

		attrs := []any{
			"method", req.Method,
			"path", req.URL.Path,
			"latency_ms", time.Since(start).Milliseconds(),
		}
		if err != nil {
			l.Warn("request failed", append(attrs, "err", err)...)
		} else {
			l.Info("request", attrs...)
		}
		return err
	}
}
