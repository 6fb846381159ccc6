package store

import (
	"sort"

	"github.com/rcliao/agent-state/internal/model"
)

// fileStore maps paths to two-slot records. It is not safe for concurrent
// use on its own; State serializes access.
type fileStore struct {
	records map[string]*model.FileRecord
	clock   Clock
}

func newFileStore(clock Clock) *fileStore {
	return &fileStore{
		records: make(map[string]*model.FileRecord),
		clock:   clock,
	}
}

func (s *fileStore) create(path, content string) error {
	if _, ok := s.records[path]; ok {
		return fileErr(ErrAlreadyExists, path)
	}
	s.records[path] = &model.FileRecord{
		Current: model.FileContent{Content: content, LastModified: s.clock.NowMillis()},
	}
	return nil
}

// edit keeps exactly one level of history: the old previous is dropped.
func (s *fileStore) edit(path, content string) error {
	rec, ok := s.records[path]
	if !ok {
		return fileErr(ErrNotFound, path)
	}
	prev := rec.Current
	rec.Previous = &prev
	rec.Current = model.FileContent{Content: content, LastModified: s.clock.NowMillis()}
	return nil
}

func (s *fileStore) undo(path string) error {
	rec, ok := s.records[path]
	if !ok {
		return fileErr(ErrNotFound, path)
	}
	if rec.Previous == nil {
		return fileErr(ErrNoPriorEdit, path)
	}
	rec.Current = *rec.Previous
	rec.Previous = nil
	return nil
}

func (s *fileStore) read(path string) (model.FileContent, error) {
	rec, ok := s.records[path]
	if !ok {
		return model.FileContent{}, fileErr(ErrNotFound, path)
	}
	return rec.Current, nil
}

func (s *fileStore) paths() []string {
	out := make([]string, 0, len(s.records))
	for p := range s.records {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func (s *fileStore) withHistory() int {
	n := 0
	for _, rec := range s.records {
		if rec.Previous != nil {
			n++
		}
	}
	return n
}

func (s *fileStore) entries() []model.FileEntry {
	paths := s.paths()
	out := make([]model.FileEntry, 0, len(paths))
	for _, p := range paths {
		rec := s.records[p]
		e := model.FileEntry{Path: p, FileRecord: model.FileRecord{Current: rec.Current}}
		if rec.Previous != nil {
			prev := *rec.Previous
			e.Previous = &prev
		}
		out = append(out, e)
	}
	return out
}

func (s *fileStore) clear() {
	s.records = make(map[string]*model.FileRecord)
}

func (s *fileStore) len() int {
	return len(s.records)
}
