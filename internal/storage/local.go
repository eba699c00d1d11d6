package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage writes exports below a directory on disk.
type LocalStorage struct {
	dir string
}

// NewLocalStorage returns a LocalStorage rooted at dir, creating it if needed.
func NewLocalStorage(dir string) (*LocalStorage, error) {
	if strings.TrimSpace(dir) == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("local storage: create %s: %w", dir, err)
	}
	return &LocalStorage{dir: dir}, nil
}

// Save writes r to name inside the root directory and returns the file path.
// The file is written to a temporary name first and renamed into place.
func (l *LocalStorage) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	clean := filepath.Base(filepath.Clean("/" + name))
	if clean == "/" || clean == "." {
		return "", fmt.Errorf("local storage: empty name")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(l.dir, "."+clean+".*")
	if err != nil {
		return "", fmt.Errorf("local storage: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("local storage: write %s: %w", clean, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("local storage: close %s: %w", clean, err)
	}

	target := filepath.Join(l.dir, clean)
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("local storage: rename %s: %w", clean, err)
	}
	return target, nil
}
