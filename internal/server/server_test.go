package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/agent-state/internal/server"
	"github.com/rcliao/agent-state/internal/store"
)

func newTestServer(t *testing.T) (http.Handler, *store.State) {
	t.Helper()
	st := store.New(store.Options{DefaultModel: "base-model"})
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return server.New(st, logger), st
}

// newDurableServer commits every mutation to a SQLite database at path.
func newDurableServer(t *testing.T, path string) (http.Handler, *store.State) {
	t.Helper()
	db, err := store.NewSQLiteStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st := store.New(store.Options{DefaultModel: "base-model"})
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	commit := func(ctx context.Context, mutate func() error) error {
		return db.Apply(ctx, st, mutate)
	}
	return server.New(st, logger, server.WithCommit(commit)), st
}

type result struct {
	OK  json.RawMessage `json:"ok"`
	Err string          `json:"err"`
}

func call(t *testing.T, h http.Handler, op, body string) (int, result) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(http.MethodPost, "/rpc/"+op, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var res result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res), "body=%s", w.Body.String())
	return w.Code, res
}

func TestHealthz(t *testing.T) {
	h, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()

	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRequestIDIsEchoed(t *testing.T) {
	h, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc123")
	w := httptest.NewRecorder()

	h.ServeHTTP(w, req)

	assert.Equal(t, "abc123", w.Header().Get("X-Request-ID"))
}

func TestFileLifecycle(t *testing.T) {
	h, _ := newTestServer(t)

	code, res := call(t, h, "createFile", `{"path":"a.txt","content":"v1"}`)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `null`, string(res.OK))

	code, res = call(t, h, "createFile", `{"path":"a.txt","content":"other"}`)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "file already exists: a.txt", res.Err)

	code, _ = call(t, h, "editFile", `{"path":"a.txt","content":"v2"}`)
	require.Equal(t, http.StatusOK, code)

	code, res = call(t, h, "getFileContent", `{"path":"a.txt"}`)
	require.Equal(t, http.StatusOK, code)
	var fc struct {
		Content      string `json:"content"`
		LastModified int64  `json:"last_modified"`
	}
	require.NoError(t, json.Unmarshal(res.OK, &fc))
	assert.Equal(t, "v2", fc.Content)
	assert.NotZero(t, fc.LastModified)

	code, _ = call(t, h, "undoEdit", `{"path":"a.txt"}`)
	require.Equal(t, http.StatusOK, code)

	code, res = call(t, h, "undoEdit", `{"path":"a.txt"}`)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "no prior edit to undo: a.txt", res.Err)

	code, res = call(t, h, "getFileContent", `{"path":"a.txt"}`)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(res.OK, &fc))
	assert.Equal(t, "v1", fc.Content)
}

func TestFileNotFound(t *testing.T) {
	h, st := newTestServer(t)

	for _, op := range []string{"editFile", "undoEdit", "getFileContent"} {
		code, res := call(t, h, op, `{"path":"missing.txt","content":"x"}`)
		assert.Equal(t, http.StatusNotFound, code, op)
		assert.Equal(t, "file not found: missing.txt", res.Err, op)
	}
	assert.Empty(t, st.ListFiles())
}

func TestAddFileAndCreateNewFileAliases(t *testing.T) {
	h, st := newTestServer(t)

	code, _ := call(t, h, "addFile", `{"path":"a","content":"1"}`)
	require.Equal(t, http.StatusOK, code)
	code, _ = call(t, h, "createNewFile", `{"path":"b","content":"2"}`)
	require.Equal(t, http.StatusOK, code)
	code, _ = call(t, h, "createNewFile", `{"path":"a","content":"3"}`)
	assert.Equal(t, http.StatusConflict, code)

	assert.Equal(t, []string{"a", "b"}, st.ListFiles())

	code, res := call(t, h, "listFiles", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `["a","b"]`, string(res.OK))
}

func TestBadRequests(t *testing.T) {
	h, _ := newTestServer(t)

	code, res := call(t, h, "createFile", `{"content":"no path"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "path is required", res.Err)

	code, _ = call(t, h, "createFile", `{not json`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, res = call(t, h, "changeModel", `{"name":"  "}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "name is required", res.Err)

	code, _ = call(t, h, "storeImage", `{"key":"k","image":{}}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestChatAndModel(t *testing.T) {
	h, _ := newTestServer(t)

	call(t, h, "addMessage", `{"role":"user","content":"hi"}`)
	call(t, h, "addMessage", `{"role":"assistant","content":"Echo: hi"}`)

	_, res := call(t, h, "getChatHistory", "")
	assert.JSONEq(t, `[{"role":"user","content":"hi"},{"role":"assistant","content":"Echo: hi"}]`, string(res.OK))

	_, res = call(t, h, "getCurrentModel", "")
	assert.JSONEq(t, `"base-model"`, string(res.OK))

	code, _ := call(t, h, "changeModel", `{"name":"gpt-4"}`)
	require.Equal(t, http.StatusOK, code)
	_, res = call(t, h, "getCurrentModel", "")
	assert.JSONEq(t, `"gpt-4"`, string(res.OK))
}

func TestCaches(t *testing.T) {
	h, _ := newTestServer(t)

	_, res := call(t, h, "getStoredImage", `{"key":"logo"}`)
	assert.JSONEq(t, `{"found":false}`, string(res.OK))

	code, _ := call(t, h, "storeImage", `{"key":"logo","image":{"url":"https://x/logo.png"}}`)
	require.Equal(t, http.StatusOK, code)
	call(t, h, "storeImage", `{"key":"logo","image":{"base64":"aGk="}}`)

	_, res = call(t, h, "getStoredImage", `{"key":"logo"}`)
	assert.JSONEq(t, `{"found":true,"image":{"base64":"aGk="}}`, string(res.OK))

	_, res = call(t, h, "getStoredSearch", `{"key":"q"}`)
	assert.JSONEq(t, `{"found":false}`, string(res.OK))

	call(t, h, "storeSearch", `{"key":"q","results":[{"title":"Result 1","body":"a"},{"title":"Result 2","body":"b"}]}`)
	_, res = call(t, h, "getStoredSearch", `{"key":"q"}`)
	assert.JSONEq(t, `{"found":true,"results":[{"title":"Result 1","body":"a"},{"title":"Result 2","body":"b"}]}`, string(res.OK))
}

func TestClearMemoryAndResetAll(t *testing.T) {
	h, st := newTestServer(t)

	call(t, h, "createFile", `{"path":"a.txt","content":"v1"}`)
	call(t, h, "addMessage", `{"role":"user","content":"hi"}`)
	call(t, h, "changeModel", `{"name":"gpt-4"}`)
	call(t, h, "storeSearch", `{"key":"q","results":[]}`)

	_, res := call(t, h, "getStoredSearch", `{"key":"q"}`)
	assert.JSONEq(t, `{"found":true,"results":[]}`, string(res.OK))

	code, _ := call(t, h, "clearMemory", "")
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, st.ChatHistory())
	assert.Equal(t, []string{"a.txt"}, st.ListFiles())
	assert.Equal(t, "gpt-4", st.CurrentModel())

	code, _ = call(t, h, "resetAll", "")
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, st.ListFiles())
	assert.Equal(t, "base-model", st.CurrentModel())
	_, found := st.StoredSearch("q")
	assert.False(t, found)
}

func TestStats(t *testing.T) {
	h, st := newTestServer(t)
	require.NoError(t, st.CreateFile("a", "1"))

	req := httptest.NewRequest(http.MethodGet, "/rpc/stats", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var res struct {
		OK store.Stats `json:"ok"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, 1, res.OK.Files)
	assert.Equal(t, "base-model", res.OK.Model)
}

func TestMutationsAreSavedBeforeReply(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	h, _ := newDurableServer(t, path)

	call(t, h, "createFile", `{"path":"a.txt","content":"v1"}`)
	call(t, h, "addMessage", `{"role":"user","content":"hi"}`)
	call(t, h, "storeImage", `{"key":"logo","image":{"url":"https://x/logo.png"}}`)
	code, res := call(t, h, "undoEdit", `{"path":"a.txt"}`)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "no prior edit to undo: a.txt", res.Err)

	other, err := store.NewSQLiteStore(path)
	require.NoError(t, err)
	defer other.Close()

	snap, err := other.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Files, 1)
	assert.Equal(t, "v1", snap.Files[0].Current.Content)
	assert.Nil(t, snap.Files[0].Previous)
	assert.Len(t, snap.Chat, 1)
	assert.Len(t, snap.Images, 1)
}

func TestMutationsKeepOtherWriters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	h, st := newDurableServer(t, path)
	call(t, h, "addMessage", `{"role":"user","content":"first"}`)

	// Another process writes to the same database.
	other, err := store.NewSQLiteStore(path)
	require.NoError(t, err)
	defer other.Close()
	cli := store.New(store.Options{DefaultModel: "base-model"})
	require.NoError(t, other.Apply(context.Background(), cli, func() error {
		return cli.CreateFile("cli.txt", "x")
	}))

	call(t, h, "addMessage", `{"role":"assistant","content":"second"}`)

	assert.Equal(t, []string{"cli.txt"}, st.ListFiles())
	snap, err := other.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Files, 1)
	assert.Len(t, snap.Chat, 2)
}
