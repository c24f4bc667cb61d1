// Package apps manages the custom app files a user uploads from the setup
// page. Files live in a single directory; preserved files can be read but
// never overwritten or deleted.
package apps

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Naming rule for app files
const (
	NamePrefix = "custom_code_"
	NameSuffix = ".py"
)

var (
	ErrInvalidName = errors.New("invalid app file name")
	ErrPreserved   = errors.New("app file is preserved")
	ErrNotFound    = errors.New("app file not found")
)

// App is one entry of the app listing
type App struct {
	Name      string `json:"name"`
	Preserved bool   `json:"preserved"`
}

// Store reads and writes app files under dir
type Store struct {
	dir       string
	preserved map[string]bool

	mu sync.Mutex
}

// NewStore creates a store rooted at dir. The directory is created on the
// first write.
func NewStore(dir string, preserved []string) *Store {
	s := &Store{dir: dir, preserved: make(map[string]bool, len(preserved))}
	for _, name := range preserved {
		s.preserved[name] = true
	}
	return s
}

// ValidName reports whether name is a plain file name following the
// custom_code_*.py rule
func ValidName(name string) bool {
	if name == "" || filepath.Base(name) != name || strings.ContainsAny(name, `/\`) {
		return false
	}
	return strings.HasPrefix(name, NamePrefix) && strings.HasSuffix(name, NameSuffix) &&
		len(name) > len(NamePrefix)+len(NameSuffix)
}

// IsPreserved reports whether name is protected from changes
func (s *Store) IsPreserved(name string) bool {
	return s.preserved[name]
}

// List returns the .py files in the directory sorted by name. A missing
// directory lists as empty.
func (s *Store) List() ([]App, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return []App{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list apps: %w", err)
	}

	apps := []App{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), NameSuffix) {
			continue
		}
		apps = append(apps, App{Name: e.Name(), Preserved: s.preserved[e.Name()]})
	}
	sort.Slice(apps, func(i, j int) bool { return apps[i].Name < apps[j].Name })
	return apps, nil
}

// Get returns the contents of an app file
func (s *Store) Get(name string) ([]byte, error) {
	if !ValidName(name) {
		return nil, ErrInvalidName
	}
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

// Put creates or replaces an app file. Preserved files are checked before
// the name rule.
func (s *Store) Put(name string, code []byte) error {
	if s.preserved[name] {
		return ErrPreserved
	}
	if !ValidName(name) {
		return ErrInvalidName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create app dir: %w", err)
	}
	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, code, 0644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return os.Rename(tmp, path)
}

// Delete removes an app file
func (s *Store) Delete(name string) error {
	if s.preserved[name] {
		return ErrPreserved
	}
	if !ValidName(name) {
		return ErrInvalidName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotFound
	}
	return err
}
