package store

import (
	"slices"
	"sync"

	"github.com/rcliao/agent-state/internal/model"
)

// DefaultModel is used when Options.DefaultModel is empty.
const DefaultModel = "gpt-3.5-turbo"

// Options configures a State.
type Options struct {
	// DefaultModel is the model name at start and after ResetAll.
	DefaultModel string
	// Clock stamps file versions. Defaults to NewClock().
	Clock Clock
}

// State owns the file store, chat log, model setting and both caches. A
// single lock serializes every operation, so no caller sees a half-applied
// mutation.
type State struct {
	mu       sync.RWMutex
	files    *fileStore
	chat     *chatLog
	model    *modelSetting
	images   *KeyedCache[model.ImageData]
	searches *KeyedCache[[]model.SearchResult]
}

// New creates an empty State.
func New(opts Options) *State {
	if opts.DefaultModel == "" {
		opts.DefaultModel = DefaultModel
	}
	if opts.Clock == nil {
		opts.Clock = NewClock()
	}
	return &State{
		files:    newFileStore(opts.Clock),
		chat:     &chatLog{},
		model:    newModelSetting(opts.DefaultModel),
		images:   NewKeyedCache[model.ImageData](nil),
		searches: NewKeyedCache(slices.Clone[[]model.SearchResult]),
	}
}

// CreateFile stores content under a new path, failing with ErrAlreadyExists
// if the path is taken.
func (s *State) CreateFile(path, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.files.create(path, content)
}

// CreateNewFile is CreateFile under the name the prompt flow uses.
func (s *State) CreateNewFile(path, content string) error {
	return s.CreateFile(path, content)
}

// EditFile replaces the content of path. The replaced version becomes the
// only undo target.
func (s *State) EditFile(path, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.files.edit(path, content)
}

// UndoEdit swaps the previous version back in and forgets it.
func (s *State) UndoEdit(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.files.undo(path)
}

// GetFileContent returns the current version of path.
func (s *State) GetFileContent(path string) (model.FileContent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.files.read(path)
}

// ListFiles returns the known paths, sorted.
func (s *State) ListFiles() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.files.paths()
}

// AddMessage appends to the chat log. It always succeeds.
func (s *State) AddMessage(role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chat.append(role, content)
}

// ChatHistory returns a copy of the chat log in append order.
func (s *State) ChatHistory() []model.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chat.all()
}

// ChangeModel sets the current model name.
func (s *State) ChangeModel(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model.set(name)
}

// CurrentModel returns the current model name.
func (s *State) CurrentModel() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model.get()
}

// StoreImage caches img under key, replacing any earlier entry. A nil img
// is ignored.
func (s *State) StoreImage(key string, img model.ImageData) {
	if img == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images.Put(key, img)
}

// StoredImage returns the image cached under key.
func (s *State) StoredImage(key string) (model.ImageData, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.images.Get(key)
}

// StoreSearch caches a copy of results under key, replacing any earlier entry.
func (s *State) StoreSearch(key string, results []model.SearchResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searches.Put(key, results)
}

// StoredSearch returns a copy of the results cached under key.
func (s *State) StoredSearch(key string) ([]model.SearchResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.searches.Get(key)
}

// ClearMemory empties the chat log. Files, model and caches are kept.
func (s *State) ClearMemory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chat.clear()
}

// ResetAll empties every store and restores the default model.
func (s *State) ResetAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files.clear()
	s.chat.clear()
	s.images.Clear()
	s.searches.Clear()
	s.model.reset()
}
