package fileutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Stamp identifies a file revision by size and modification time.
type Stamp struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// String renders the stamp for cache keys.
func (s Stamp) String() string {
	return fmt.Sprintf("%s:%d:%d", s.Path, s.Size, s.ModTime.UnixNano())
}

// StatStamp returns the stamp for path.
func StatStamp(path string) (Stamp, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Stamp{}, err
	}
	if info.IsDir() {
		return Stamp{}, fmt.Errorf("%s is a directory", path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return Stamp{Path: abs, Size: info.Size(), ModTime: info.ModTime().UTC()}, nil
}

// WriteFileAtomic writes through a temporary file in the target directory
// and renames it over path once write succeeds. On failure path is left
// untouched.
func WriteFileAtomic(path string, mode os.FileMode, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if err := write(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
