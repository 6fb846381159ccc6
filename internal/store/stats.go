package store

import (
	"context"
	"os"
	"time"
)

// Stats holds state counters.
type Stats struct {
	Files            int    `json:"files"`
	FilesWithHistory int    `json:"files_with_history"`
	Messages         int    `json:"messages"`
	Images           int    `json:"images"`
	Searches         int    `json:"searches"`
	Model            string `json:"model"`
}

// Stats returns state counters.
func (s *State) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Stats{
		Files:            s.files.len(),
		FilesWithHistory: s.files.withHistory(),
		Messages:         s.chat.len(),
		Images:           s.images.Len(),
		Searches:         s.searches.Len(),
		Model:            s.model.get(),
	}
}

// DBInfo describes the persisted snapshot.
type DBInfo struct {
	DBPath      string     `json:"db_path"`
	DBSizeBytes int64      `json:"db_size_bytes"`
	SnapshotID  string     `json:"snapshot_id,omitempty"`
	SavedAt     *time.Time `json:"saved_at,omitempty"`
}

// Info returns database statistics for dbPath.
func (s *SQLiteStore) Info(ctx context.Context, dbPath string) (*DBInfo, error) {
	info := &DBInfo{DBPath: dbPath}

	if fi, err := os.Stat(dbPath); err == nil {
		info.DBSizeBytes = fi.Size()
	}

	id, err := s.SnapshotID(ctx)
	if err != nil {
		return info, err
	}
	if id != "" {
		info.SnapshotID = id
		if t, err := snapshotTime(id); err == nil {
			info.SavedAt = &t
		}
	}
	return info, nil
}
