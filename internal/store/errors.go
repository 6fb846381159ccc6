package store

import "github.com/pkg/errors"

// Failure kinds returned by the file operations. Match them with errors.Is.
var (
	ErrAlreadyExists = errors.New("file already exists")
	ErrNotFound      = errors.New("file not found")
	ErrNoPriorEdit   = errors.New("no prior edit to undo")
)

// FileError reports a failed file operation on Path.
type FileError struct {
	Kind error
	Path string
}

func (e *FileError) Error() string {
	return e.Kind.Error() + ": " + e.Path
}

func (e *FileError) Unwrap() error {
	return e.Kind
}

func fileErr(kind error, path string) error {
	return &FileError{Kind: kind, Path: path}
}
