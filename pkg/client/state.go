package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// Keys under which state is persisted.
const (
	AuthStorageKey  = "auth-storage"
	ThemeStorageKey = "theme-storage"
)

type themeState struct {
	Theme domain.Theme `json:"theme"`
}

// StateStore persists client state as one JSON document on disk.
type StateStore struct {
	path string
	mu   sync.Mutex
}

// NewStateStore returns a store backed by path. The file is created on
// first write.
func NewStateStore(path string) *StateStore {
	return &StateStore{path: path}
}

// Path returns the backing file.
func (s *StateStore) Path() string {
	return s.path
}

// LoadSession restores the saved session. A missing or unreadable entry
// yields an empty, incomplete session.
func (s *StateStore) LoadSession() (*Session, error) {
	var sess Session
	found, err := s.get(AuthStorageKey, &sess)
	if err != nil || !found {
		return &Session{}, err
	}
	return &sess, nil
}

// SaveSession persists sess.
func (s *StateStore) SaveSession(sess *Session) error {
	return s.put(AuthStorageKey, sess)
}

// ClearSession removes the saved session.
func (s *StateStore) ClearSession() error {
	return s.put(AuthStorageKey, nil)
}

// Theme returns the saved theme, defaulting to system.
func (s *StateStore) Theme() (domain.Theme, error) {
	var state themeState
	found, err := s.get(ThemeStorageKey, &state)
	if err != nil {
		return domain.ThemeSystem, err
	}
	if !found || !state.Theme.Valid() {
		return domain.ThemeSystem, nil
	}
	return state.Theme, nil
}

// SaveTheme persists theme.
func (s *StateStore) SaveTheme(theme domain.Theme) error {
	if !theme.Valid() {
		return fmt.Errorf("unknown theme %q", theme)
	}
	return s.put(ThemeStorageKey, themeState{Theme: theme})
}

func (s *StateStore) get(key string, dst any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		return false, err
	}
	raw, ok := doc[key]
	if !ok || string(raw) == "null" {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		// corrupt entries are treated as absent
		return false, nil
	}
	return true, nil
}

func (s *StateStore) put(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		return err
	}
	if value == nil {
		delete(doc, key)
	} else {
		raw, err := json.Marshal(value)
		if err != nil {
			return err
		}
		doc[key] = raw
	}
	return s.write(doc)
}

func (s *StateStore) read() (map[string]json.RawMessage, error) {
	doc := map[string]json.RawMessage{}
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}
	if len(raw) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		// start over rather than refuse to run
		return map[string]json.RawMessage{}, nil
	}
	return doc, nil
}

func (s *StateStore) write(doc map[string]json.RawMessage) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return os.Rename(tmp, s.path)
}
