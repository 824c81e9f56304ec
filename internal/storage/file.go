package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// FileStore persists all keys as one YAML mapping. Every Set rewrites the
// file through a temporary file and a rename.
type FileStore struct {
	path    string
	mu      sync.Mutex
	values  map[string]string
	loadErr error
}

// NewFileStore opens path, creating parent directories as needed. A missing
// file is an empty store. An unreadable or corrupt file is reported by Get
// until the next successful Set replaces it.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("file store requires a path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	fs := &FileStore{path: path, values: make(map[string]string)}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		fs.loadErr = fmt.Errorf("reading %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &fs.values); err != nil {
			fs.values = make(map[string]string)
			fs.loadErr = fmt.Errorf("parsing %s: %w", path, err)
		}
		if fs.values == nil {
			fs.values = make(map[string]string)
		}
	}

	return fs, nil
}

func (f *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return "", false, f.loadErr
	}
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *FileStore) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	next := make(map[string]string, len(f.values)+1)
	for k, v := range f.values {
		next[k] = v
	}
	next[key] = value

	data, err := yaml.Marshal(next)
	if err != nil {
		return fmt.Errorf("encoding store: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing store: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replacing store: %w", err)
	}

	f.values = next
	f.loadErr = nil
	return nil
}

func (f *FileStore) Close() error { return nil }
