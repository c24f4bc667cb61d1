package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps settings in a small JSON file
type FileStore struct {
	path     string
	defaults Settings
	mu       sync.Mutex
}

// NewFileStore creates a JSON file store at path
func NewFileStore(path string, defaults Settings) *FileStore {
	return &FileStore{
		path:     path,
		defaults: defaults,
	}
}

// Load reads the settings file. A missing or corrupt file is replaced with
// the defaults.
func (fs *FileStore) Load(ctx context.Context) (Settings, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	s := fs.defaults
	data, err := os.ReadFile(fs.path)
	if err == nil {
		err = json.Unmarshal(data, &s)
		if err == nil {
			return s, nil
		}
		log.Printf("WARN: settings file %s is corrupt, restoring defaults: %v", fs.path, err)
	} else if !errors.Is(err, os.ErrNotExist) {
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}

	if err := fs.write(fs.defaults); err != nil {
		return Settings{}, err
	}
	return fs.defaults, nil
}

// Save writes the settings file
func (fs *FileStore) Save(ctx context.Context, s Settings) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.write(s)
}

// Reset overwrites the file with the defaults
func (fs *FileStore) Reset(ctx context.Context) error {
	return fs.Save(ctx, fs.defaults)
}

// Close is a no-op for the file store
func (fs *FileStore) Close() error {
	return nil
}

// write replaces the file through a temp file in the same directory
func (fs *FileStore) write(s Settings) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(fs.path)
	tmp, err := os.CreateTemp(dir, ".settings-*.json")
	if err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), fs.path); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}
