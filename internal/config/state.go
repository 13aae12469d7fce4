package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// state is the on-disk form of the client-persisted state
type state struct {
	LastChatID string `json:"lastChatId"`
}

// StateStore persists the last active chat id between runs.
type StateStore struct {
	path string
	mu   sync.Mutex
}

// NewStateStore creates a store backed by dir/state.json.
func NewStateStore(dir string) (*StateStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	return &StateStore{path: filepath.Join(dir, "state.json")}, nil
}

// DefaultStateStore returns the store under the config directory.
func DefaultStateStore() (*StateStore, error) {
	dir, err := EnsureConfigDir()
	if err != nil {
		return nil, err
	}
	return NewStateStore(dir)
}

// LastChatID returns the remembered chat id, or "" when none is stored.
// A missing or unreadable file reads as no remembered chat.
func (s *StateStore) LastChatID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.read()
	if err != nil {
		return ""
	}
	return st.LastChatID
}

// SetLastChatID remembers id as the last active chat.
func (s *StateStore) SetLastChatID(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, _ := s.read()
	st.LastChatID = id

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	// write-then-rename so a crash never leaves a truncated file
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

func (s *StateStore) read() (state, error) {
	var st state
	data, err := os.ReadFile(s.path)
	if err != nil {
		return st, err
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return state{}, err
	}
	return st, nil
}
