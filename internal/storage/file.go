package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

var errCorrupt = errors.New("store file is not a JSON object of strings")

// File keeps every key in one JSON object on disk.
// Each write rewrites the whole file via tmp + rename.
type File struct {
	mu   sync.Mutex
	path string
}

// NewFile creates a File store at path, creating parent directories.
func NewFile(path string) (*File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &File{path: path}, nil
}

// Path returns the backing file path.
func (f *File) Path() string { return f.path }

func (f *File) GetItem(key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	items, err := f.read()
	if err != nil {
		return "", false, err
	}
	v, ok := items[key]
	return v, ok, nil
}

func (f *File) SetItem(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	items, err := f.readForWrite()
	if err != nil {
		return err
	}
	items[key] = value
	return f.write(items)
}

func (f *File) RemoveItem(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	items, err := f.readForWrite()
	if err != nil {
		return err
	}
	if _, ok := items[key]; !ok {
		return nil
	}
	delete(items, key)
	return f.write(items)
}

func (f *File) read() (map[string]string, error) {
	items := map[string]string{}

	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return items, nil
		}
		return nil, fmt.Errorf("read store: %w", err)
	}
	if len(data) == 0 {
		return items, nil
	}

	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("unmarshal store: %w: %w", errCorrupt, err)
	}
	return items, nil
}

// readForWrite is read for the write paths: an unparseable file is moved
// aside to path+".corrupt" and writing starts over from an empty object.
func (f *File) readForWrite() (map[string]string, error) {
	items, err := f.read()
	if !errors.Is(err, errCorrupt) {
		return items, err
	}

	aside := f.path + ".corrupt"
	slog.Warn("store file is malformed, moving it aside", "path", f.path, "moved_to", aside, "error", err)
	if err := os.Rename(f.path, aside); err != nil {
		return nil, fmt.Errorf("move corrupt store: %w", err)
	}
	return map[string]string{}, nil
}

func (f *File) write(items map[string]string) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write store tmp: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("rename store: %w", err)
	}
	return nil
}
