package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

type preferences struct {
	Theme string `json:"theme"`
}

// Store persists UI preferences as a small JSON file.
type Store struct {
	path string

	mu sync.Mutex
}

func New(path string) *Store {
	return &Store{path: path}
}

// Theme returns the saved theme. A missing or unreadable file means light.
func (s *Store) Theme() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, _ := s.load()
	return p.Theme
}

// ToggleTheme flips between light and dark and saves the result. The new
// theme is returned even when saving fails.
func (s *Store) ToggleTheme() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, _ := s.load()
	if p.Theme == ThemeDark {
		p.Theme = ThemeLight
	} else {
		p.Theme = ThemeDark
	}
	return p.Theme, s.save(p)
}

func (s *Store) load() (preferences, error) {
	p := preferences{Theme: ThemeLight}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return p, nil
		}
		return p, err
	}
	var stored preferences
	if err := json.Unmarshal(data, &stored); err != nil {
		return p, fmt.Errorf("parse %s: %w", s.path, err)
	}
	if stored.Theme == ThemeDark {
		p.Theme = ThemeDark
	}
	return p, nil
}

func (s *Store) save(p preferences) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create preferences dir: %w", err)
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write preferences: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("write preferences: %w", err)
	}
	return nil
}
