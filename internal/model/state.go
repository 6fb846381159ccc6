// Package model defines the core state data types.
package model

// FileContent is one version of a file. LastModified is in epoch milliseconds.
type FileContent struct {
	Content      string `json:"content"`
	LastModified int64  `json:"last_modified"`
}

// FileRecord holds the live content of a path and at most one prior version.
type FileRecord struct {
	Current  FileContent  `json:"current"`
	Previous *FileContent `json:"previous,omitempty"`
}

// ChatMessage is a single role-tagged entry in the chat log.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SearchResult is one cached search hit.
type SearchResult struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// FileEntry pairs a path with its record inside a Snapshot.
type FileEntry struct {
	Path string `json:"path"`
	FileRecord
}

// ImageEntry pairs a cache key with its image inside a Snapshot.
type ImageEntry struct {
	Key   string    `json:"key"`
	Image ImageJSON `json:"image"`
}

// SearchEntry pairs a cache key with its results inside a Snapshot.
type SearchEntry struct {
	Key     string         `json:"key"`
	Results []SearchResult `json:"results"`
}

// Snapshot is a full copy of every store. Files, images and searches are
// sorted by key; chat keeps insertion order.
type Snapshot struct {
	Files    []FileEntry   `json:"files"`
	Chat     []ChatMessage `json:"chat"`
	Model    string        `json:"model"`
	Images   []ImageEntry  `json:"images"`
	Searches []SearchEntry `json:"searches"`
}
