package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v5"
	"github.com/pkg/errors"

	"github.com/rcliao/agent-state/internal/logging"
	"github.com/rcliao/agent-state/internal/model"
	"github.com/rcliao/agent-state/internal/store"
)

// Request bodies.

type fileRequest struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

type messageRequest struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type modelRequest struct {
	Name string `json:"name"`
}

type keyRequest struct {
	Key string `json:"key"`
}

type imageRequest struct {
	Key   string          `json:"key"`
	Image model.ImageJSON `json:"image"`
}

type searchRequest struct {
	Key     string               `json:"key"`
	Results []model.SearchResult `json:"results"`
}

// Response bodies. Every call answers {"ok": value} or {"err": message}.

type okResponse struct {
	OK any `json:"ok"`
}

type errResponse struct {
	Err string `json:"err"`
}

type imageLookup struct {
	Found bool             `json:"found"`
	Image *model.ImageJSON `json:"image,omitempty"`
}

type searchLookup struct {
	Found   bool                  `json:"found"`
	Results *[]model.SearchResult `json:"results,omitempty"`
}

// File handlers.

func (s *Server) createFile(c *echo.Context) error {
	return s.withFile(c, func(req fileRequest) error {
		return s.store.CreateFile(req.Path, req.Content)
	})
}

func (s *Server) createNewFile(c *echo.Context) error {
	return s.withFile(c, func(req fileRequest) error {
		return s.store.CreateNewFile(req.Path, req.Content)
	})
}

func (s *Server) editFile(c *echo.Context) error {
	return s.withFile(c, func(req fileRequest) error {
		return s.store.EditFile(req.Path, req.Content)
	})
}

func (s *Server) undoEdit(c *echo.Context) error {
	return s.withFile(c, func(req fileRequest) error {
		return s.store.UndoEdit(req.Path)
	})
}

func (s *Server) getFileContent(c *echo.Context) error {
	var req fileRequest
	if valid, err := bindPath(c, &req); !valid {
		return err
	}
	fc, err := s.store.GetFileContent(req.Path)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fc)
}

func (s *Server) listFiles(c *echo.Context) error {
	return ok(c, s.store.ListFiles())
}

// withFile binds a fileRequest, runs op, and writes its result.
func (s *Server) withFile(c *echo.Context, op func(fileRequest) error) error {
	var req fileRequest
	if valid, err := bindPath(c, &req); !valid {
		return err
	}
	if err := s.mutate(c, func() error { return op(req) }); err != nil {
		return fail(c, err)
	}
	return ok(c, nil)
}

// Chat and model handlers.

func (s *Server) addMessage(c *echo.Context) error {
	var req messageRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	err := s.mutate(c, func() error {
		s.store.AddMessage(req.Role, req.Content)
		return nil
	})
	if err != nil {
		return fail(c, err)
	}
	return ok(c, nil)
}

func (s *Server) getChatHistory(c *echo.Context) error {
	return ok(c, s.store.ChatHistory())
}

func (s *Server) changeModel(c *echo.Context) error {
	var req modelRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if strings.TrimSpace(req.Name) == "" {
		return badRequest(c, "name is required")
	}
	err := s.mutate(c, func() error {
		s.store.ChangeModel(req.Name)
		return nil
	})
	if err != nil {
		return fail(c, err)
	}
	logging.FromContext(c.Request().Context()).Info("model changed", "model", req.Name)
	return ok(c, nil)
}

func (s *Server) getCurrentModel(c *echo.Context) error {
	return ok(c, s.store.CurrentModel())
}

// Cache handlers.

func (s *Server) storeImage(c *echo.Context) error {
	var req imageRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	img, err := req.Image.Decode()
	if err != nil {
		return badRequest(c, err.Error())
	}
	err = s.mutate(c, func() error {
		s.store.StoreImage(req.Key, img)
		return nil
	})
	if err != nil {
		return fail(c, err)
	}
	return ok(c, nil)
}

func (s *Server) getStoredImage(c *echo.Context) error {
	var req keyRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	img, found := s.store.StoredImage(req.Key)
	if !found {
		return ok(c, imageLookup{})
	}
	j, err := model.EncodeImage(img)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, imageLookup{Found: true, Image: &j})
}

func (s *Server) storeSearch(c *echo.Context) error {
	var req searchRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	err := s.mutate(c, func() error {
		s.store.StoreSearch(req.Key, req.Results)
		return nil
	})
	if err != nil {
		return fail(c, err)
	}
	return ok(c, nil)
}

func (s *Server) getStoredSearch(c *echo.Context) error {
	var req keyRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	results, found := s.store.StoredSearch(req.Key)
	if !found {
		return ok(c, searchLookup{})
	}
	return ok(c, searchLookup{Found: true, Results: &results})
}

// Reset handlers.

func (s *Server) clearMemory(c *echo.Context) error {
	err := s.mutate(c, func() error {
		s.store.ClearMemory()
		return nil
	})
	if err != nil {
		return fail(c, err)
	}
	logging.FromContext(c.Request().Context()).Info("chat memory cleared")
	return ok(c, nil)
}

func (s *Server) resetAll(c *echo.Context) error {
	err := s.mutate(c, func() error {
		s.store.ResetAll()
		return nil
	})
	if err != nil {
		return fail(c, err)
	}
	logging.FromContext(c.Request().Context()).Info("state reset")
	return ok(c, nil)
}

func (s *Server) stats(c *echo.Context) error {
	return ok(c, s.store.Stats())
}

// Helpers.

// mutate runs fn through the configured commit with the request context.
func (s *Server) mutate(c *echo.Context, fn func() error) error {
	return s.commit(c.Request().Context(), fn)
}

func bindPath(c *echo.Context, req *fileRequest) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, badRequest(c, "invalid request body")
	}
	if req.Path == "" {
		return false, badRequest(c, "path is required")
	}
	return true, nil
}

func ok(c *echo.Context, v any) error {
	return c.JSON(http.StatusOK, okResponse{OK: v})
}

func badRequest(c *echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, errResponse{Err: msg})
}

// fail writes a file-operation error with a status matching its kind.
func fail(c *echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrAlreadyExists), errors.Is(err, store.ErrNoPriorEdit):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		logging.FromContext(c.Request().Context()).Error("operation failed", "err", err)
		return c.JSON(status, errResponse{Err: "internal server error"})
	}
	return c.JSON(status, errResponse{Err: err.Error()})
}
