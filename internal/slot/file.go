package slot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileStore is a [Store] backed by a single JSON file.
//
// The whole file is loaded once at construction and rewritten on every Set
// or Delete. Writes go to a temporary file that is renamed over the original,
// so a crash mid-write leaves the previous contents intact. Values are kept
// as strings in the file to keep it human-readable.
type FileStore struct {
	path string

	mu    sync.RWMutex
	slots map[string]string
}

// NewFileStore opens the store at path, creating its directory if needed.
//
// A missing file is treated as an empty store. Returns an error if the file
// exists but cannot be read or is not a JSON object of strings.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("slot: file store requires a path")
	}

	fsStore := &FileStore{
		path:  path,
		slots: make(map[string]string),
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("slot: create directory for %s: %w", path, err)
		}
		return fsStore, nil
	case err != nil:
		return nil, fmt.Errorf("slot: read %s: %w", path, err)
	}

	if len(data) > 0 {
		if err := json.Unmarshal(data, &fsStore.slots); err != nil {
			return nil, fmt.Errorf("slot: parse %s: %w", path, err)
		}
	}
	return fsStore, nil
}

// Path returns the file backing the store.
func (f *FileStore) Path() string {
	return f.path
}

// Get returns the value stored under key.
func (f *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	v, ok := f.slots[key]
	if !ok {
		return nil, ErrNotFound
	}
	return []byte(v), nil
}

// Set stores value under key and rewrites the file.
func (f *FileStore) Set(_ context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	prev, existed := f.slots[key]
	f.slots[key] = string(value)
	if err := f.flushLocked(); err != nil {
		// keep memory consistent with what is on disk
		if existed {
			f.slots[key] = prev
		} else {
			delete(f.slots, key)
		}
		return err
	}
	return nil
}

// Delete removes key and rewrites the file.
func (f *FileStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	prev, existed := f.slots[key]
	if !existed {
		return nil
	}
	delete(f.slots, key)
	if err := f.flushLocked(); err != nil {
		f.slots[key] = prev
		return err
	}
	return nil
}

// Close is a no-op; every change is already on disk.
func (f *FileStore) Close() error {
	return nil
}

// flushLocked writes all slots to a temp file and renames it over the target.
// Caller must hold f.mu for writing.
func (f *FileStore) flushLocked() error {
	data, err := json.MarshalIndent(f.slots, "", "  ")
	if err != nil {
		return fmt.Errorf("slot: encode %s: %w", f.path, err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("slot: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("slot: replace %s: %w", f.path, err)
	}
	return nil
}
