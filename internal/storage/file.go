package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileStorage keeps objects as files in a single directory
type FileStorage struct {
	dir string
}

// Ensure FileStorage implements StorageInterface
var _ StorageInterface = (*FileStorage)(nil)

// NewFileStorage creates the data directory if needed
func NewFileStorage(dir string) (*FileStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}
	return &FileStorage{dir: dir}, nil
}

// Store writes data through a temporary file and a rename so readers never see a partial file
func (s *FileStorage) Store(filename string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, "."+filename+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", filename, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", filename, err)
	}

	if err := os.Rename(tmpName, filepath.Join(s.dir, filename)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", filename, err)
	}
	return nil
}

// Retrieve reads a file, returning ErrNotFound when it does not exist
func (s *FileStorage) Retrieve(filename string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, filename))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", filename, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	return data, nil
}

// List returns the sorted names of files starting with prefix
func (s *FileStorage) List(prefix string) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if strings.HasPrefix(entry.Name(), prefix) {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
