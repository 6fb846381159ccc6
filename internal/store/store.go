// Package store provides the in-memory state container, its operation
// contract, and SQLite snapshot persistence.
package store

import "github.com/rcliao/agent-state/internal/model"

// Store is the operation contract served to callers. Every method is a
// single synchronous step; file operations fail with an error wrapping
// ErrAlreadyExists, ErrNotFound or ErrNoPriorEdit.
type Store interface {
	// CreateFile adds a new path. It never overwrites an existing one.
	CreateFile(path, content string) error

	// CreateNewFile behaves exactly like CreateFile.
	CreateNewFile(path, content string) error

	// EditFile replaces the content of path and keeps the old content for one undo.
	EditFile(path, content string) error

	// UndoEdit restores the content from before the last edit.
	UndoEdit(path string) error

	// GetFileContent returns the current content of path.
	GetFileContent(path string) (model.FileContent, error)

	// ListFiles returns every known path in sorted order.
	ListFiles() []string

	// AddMessage appends one message to the chat log.
	AddMessage(role, content string)

	// ChatHistory returns the chat log oldest first.
	ChatHistory() []model.ChatMessage

	// ChangeModel sets the model name. Any string is accepted.
	ChangeModel(name string)

	// CurrentModel returns the model name in use.
	CurrentModel() string

	// StoreImage caches an image under key, last write wins.
	StoreImage(key string, img model.ImageData)

	// StoredImage reports false on a cache miss.
	StoredImage(key string) (model.ImageData, bool)

	// StoreSearch caches search results under key, last write wins.
	StoreSearch(key string, results []model.SearchResult)

	// StoredSearch reports false on a cache miss.
	StoredSearch(key string) ([]model.SearchResult, bool)

	// ClearMemory empties the chat log and nothing else.
	ClearMemory()

	// ResetAll empties every store and restores the default model.
	ResetAll()

	// Stats counts what each store holds.
	Stats() Stats
}

// Snapshotter copies state in and out for persistence.
type Snapshotter interface {
	Snapshot() model.Snapshot
	Restore(snap model.Snapshot) error
}

var (
	_ Store       = (*State)(nil)
	_ Snapshotter = (*State)(nil)
)
