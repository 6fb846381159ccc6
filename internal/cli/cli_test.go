package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/agent-state/internal/store"
)

// run executes the root command against db with empty stdin.
func run(t *testing.T, db string, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetErr(&out)
	RootCmd.SetIn(strings.NewReader(stdin))
	RootCmd.SetArgs(append([]string{"--db", db, "--format", "json"}, args...))
	err := RootCmd.Execute()
	return out.String(), err
}

func testDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "state.db")
}

func TestFileCommandsPersistAcrossRuns(t *testing.T) {
	db := testDB(t)

	_, err := run(t, db, "", "file", "create", "-p", "a.txt", "v1")
	require.NoError(t, err)

	_, err = run(t, db, "", "file", "create", "-p", "a.txt", "again")
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	_, err = run(t, db, "", "file", "edit", "-p", "a.txt", "v2")
	require.NoError(t, err)

	out, err := run(t, db, "", "file", "cat", "-p", "a.txt", "--format", "text")
	require.NoError(t, err)
	assert.Equal(t, "v2", out)

	_, err = run(t, db, "", "file", "undo", "-p", "a.txt")
	require.NoError(t, err)

	out, err = run(t, db, "", "file", "cat", "-p", "a.txt", "--format", "text")
	require.NoError(t, err)
	assert.Equal(t, "v1", out)

	_, err = run(t, db, "", "file", "undo", "-p", "a.txt")
	assert.ErrorIs(t, err, store.ErrNoPriorEdit)
}

func TestFileContentFromStdin(t *testing.T) {
	db := testDB(t)

	_, err := run(t, db, "line one\nline two\n", "file", "new", "-p", "notes.md")
	require.NoError(t, err)

	out, err := run(t, db, "", "file", "ls")
	require.NoError(t, err)
	var paths []string
	require.NoError(t, json.Unmarshal([]byte(out), &paths))
	assert.Equal(t, []string{"notes.md"}, paths)

	out, err = run(t, db, "", "file", "cat", "-p", "notes.md", "--format", "text")
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two\n", out)
}

func TestChatModelAndClearMemory(t *testing.T) {
	db := testDB(t)

	_, err := run(t, db, "", "chat", "add", "--role", "user", "hello")
	require.NoError(t, err)
	_, err = run(t, db, "", "chat", "add", "--role", "assistant", "Echo: hello")
	require.NoError(t, err)
	_, err = run(t, db, "", "model", "set", "gpt-4")
	require.NoError(t, err)
	_, err = run(t, db, "", "file", "create", "-p", "keep.txt", "kept")
	require.NoError(t, err)

	out, err := run(t, db, "", "chat", "history", "--format", "text")
	require.NoError(t, err)
	assert.Equal(t, "user: hello\nassistant: Echo: hello\n", out)

	_, err = run(t, db, "", "clear-memory")
	require.NoError(t, err)

	out, err = run(t, db, "", "chat", "history")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, out)

	out, err = run(t, db, "", "model", "get")
	require.NoError(t, err)
	assert.JSONEq(t, `{"model":"gpt-4"}`, out)

	out, err = run(t, db, "", "file", "cat", "-p", "keep.txt", "--format", "text")
	require.NoError(t, err)
	assert.Equal(t, "kept", out)
}

func TestCachesAndReset(t *testing.T) {
	db := testDB(t)

	out, err := run(t, db, "", "image", "get", "-k", "logo")
	require.NoError(t, err)
	assert.JSONEq(t, `{"found":false}`, out)

	_, err = run(t, db, "", "image", "put", "-k", "logo", "--url", "https://x/logo.png")
	require.NoError(t, err)

	out, err = run(t, db, "", "image", "get", "-k", "logo")
	require.NoError(t, err)
	assert.JSONEq(t, `{"found":true,"image":{"url":"https://x/logo.png"}}`, out)

	_, err = run(t, db, `[{"title":"Result 1","body":"a"},{"title":"Result 2","body":"b"}]`, "search", "put", "-k", "go")
	require.NoError(t, err)

	out, err = run(t, db, "", "search", "get", "-k", "go")
	require.NoError(t, err)
	assert.JSONEq(t, `{"found":true,"results":[{"title":"Result 1","body":"a"},{"title":"Result 2","body":"b"}]}`, out)

	_, err = run(t, db, "", "reset")
	require.NoError(t, err)

	out, err = run(t, db, "", "search", "get", "-k", "go")
	require.NoError(t, err)
	assert.JSONEq(t, `{"found":false}`, out)

	out, err = run(t, db, "", "model", "get", "--format", "text")
	require.NoError(t, err)
	assert.Equal(t, "gpt-3.5-turbo\n", out)
}

func TestExportImport(t *testing.T) {
	src := testDB(t)
	dst := testDB(t)

	_, err := run(t, src, "", "file", "create", "-p", "a.txt", "v1")
	require.NoError(t, err)
	_, err = run(t, src, "", "file", "edit", "-p", "a.txt", "v2")
	require.NoError(t, err)

	exported, err := run(t, src, "", "export")
	require.NoError(t, err)

	_, err = run(t, dst, exported, "import")
	require.NoError(t, err)

	// Undo history came along.
	_, err = run(t, dst, "", "file", "undo", "-p", "a.txt")
	require.NoError(t, err)
	out, err := run(t, dst, "", "file", "cat", "-p", "a.txt", "--format", "text")
	require.NoError(t, err)
	assert.Equal(t, "v1", out)
}

func TestStats(t *testing.T) {
	db := testDB(t)

	_, err := run(t, db, "", "file", "create", "-p", "a.txt", "v1")
	require.NoError(t, err)

	out, err := run(t, db, "", "stats")
	require.NoError(t, err)

	var st map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.EqualValues(t, 1, st["files"])
	assert.Equal(t, db, st["db_path"])
	assert.NotEmpty(t, st["snapshot_id"])
}

func TestChatAddAcceptsEmptyContent(t *testing.T) {
	db := testDB(t)

	_, err := run(t, db, "", "chat", "add", "--role", "system")
	require.NoError(t, err)

	out, err := run(t, db, "", "chat", "history")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"role":"system","content":""}]`, out)
}

func TestSequentialCommandsAppend(t *testing.T) {
	db := testDB(t)

	for i := 0; i < 3; i++ {
		_, err := run(t, db, "", "chat", "add", "--role", "user", "again")
		require.NoError(t, err)
	}
	_, err := run(t, db, "", "file", "undo", "-p", "missing.txt")
	require.ErrorIs(t, err, store.ErrNotFound)

	out, err := run(t, db, "", "stats")
	require.NoError(t, err)
	var got struct {
		Messages int `json:"messages"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 3, got.Messages)
}
