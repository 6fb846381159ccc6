package store

import (
	"github.com/pkg/errors"

	"github.com/rcliao/agent-state/internal/model"
)

// Snapshot returns a deep copy of every store.
func (s *State) Snapshot() model.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := model.Snapshot{
		Files:    s.files.entries(),
		Chat:     s.chat.all(),
		Model:    s.model.get(),
		Images:   make([]model.ImageEntry, 0, s.images.Len()),
		Searches: make([]model.SearchEntry, 0, s.searches.Len()),
	}
	for _, k := range s.images.Keys() {
		img, _ := s.images.Get(k)
		j, err := model.EncodeImage(img)
		if err != nil {
			continue
		}
		snap.Images = append(snap.Images, model.ImageEntry{Key: k, Image: j})
	}
	for _, k := range s.searches.Keys() {
		res, _ := s.searches.Get(k)
		snap.Searches = append(snap.Searches, model.SearchEntry{Key: k, Results: res})
	}
	return snap
}

// Restore replaces all state with snap. The snapshot is validated first; on
// error the current state is left as it was. An empty snap.Model keeps the
// current model.
func (s *State) Restore(snap model.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	files := newFileStore(s.files.clock)
	for _, f := range snap.Files {
		if _, dup := files.records[f.Path]; dup {
			return errors.Errorf("restore: duplicate path %q", f.Path)
		}
		rec := &model.FileRecord{Current: f.Current}
		if f.Previous != nil {
			prev := *f.Previous
			rec.Previous = &prev
		}
		files.records[f.Path] = rec
	}

	images := NewKeyedCache[model.ImageData](nil)
	for _, e := range snap.Images {
		img, err := e.Image.Decode()
		if err != nil {
			return errors.Wrapf(err, "restore image %q", e.Key)
		}
		images.Put(e.Key, img)
	}

	searches := NewKeyedCache(s.searches.clone)
	for _, e := range snap.Searches {
		searches.Put(e.Key, e.Results)
	}

	chat := &chatLog{}
	for _, m := range snap.Chat {
		chat.append(m.Role, m.Content)
	}

	s.files = files
	s.chat = chat
	s.images = images
	s.searches = searches
	if snap.Model != "" {
		s.model.set(snap.Model)
	}
	return nil
}
