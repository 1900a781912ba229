package adapter

import (
	"os"
	"path/filepath"

	m "github.com/marsh-hen/refix/internal/model"
)

const defaultFileMode = os.FileMode(0o644)

// FileSystem abstracts the file operations the replacer needs, so apply-phase
// logic can be exercised against failure-injecting fakes in tests.
type FileSystem interface {
	// ReadFile loads a file's contents.
	ReadFile(path m.Path) ([]byte, error)

	// WriteFileAtomic replaces the file at path with content, all or
	// nothing: on any failure the original file is left untouched.
	WriteFileAtomic(path m.Path, content []byte) error
}

// LocalFileSystem is the disk-backed FileSystem.
type LocalFileSystem struct{}

// NewLocalFileSystem constructs a LocalFileSystem.
func NewLocalFileSystem() *LocalFileSystem {
	return &LocalFileSystem{}
}

// ReadFile loads file contents from disk.
func (f *LocalFileSystem) ReadFile(path m.Path) ([]byte, error) {
	return os.ReadFile(string(path))
}

// WriteFileAtomic writes content to a temporary file in the target's
// directory and renames it into place, preserving the original's mode. The
// same-directory temp file keeps the rename on one filesystem so it is atomic.
func (f *LocalFileSystem) WriteFileAtomic(path m.Path, content []byte) error {
	dest := string(path)

	mode := defaultFileMode
	if info, err := os.Stat(dest); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".refix-*")
	if err != nil {
		return err
	}

	tmpName := tmp.Name()

	cleanup := func(err error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpName)

		return err
	}

	if _, err := tmp.Write(content); err != nil {
		return cleanup(err)
	}

	if err := tmp.Chmod(mode); err != nil {
		return cleanup(err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)

		return err
	}

	if err := os.Rename(tmpName, dest); err != nil {
		_ = os.Remove(tmpName)

		return err
	}

	return nil
}
