package onboarding

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
)

// Store keeps one JSON state file per user under Dir.
type Store struct {
	Dir string
}

// NewStore creates dir if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create onboarding dir: %w", err)
	}
	return &Store{Dir: dir}, nil
}

func (s *Store) path(userID string) string {
	return filepath.Join(s.Dir, url.PathEscape(userID)+".json")
}

// Load returns the stored state, or the zero State for an unknown user.
func (s *Store) Load(userID string) (State, error) {
	data, err := os.ReadFile(s.path(userID))
	if errors.Is(err, fs.ErrNotExist) {
		return State{}, nil
	}
	if err != nil {
		return State{}, fmt.Errorf("read onboarding state: %w", err)
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return State{}, fmt.Errorf("parse onboarding state for %s: %w", userID, err)
	}
	return st, nil
}

// Save writes st atomically.
func (s *Store) Save(userID string, st State) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal onboarding state: %w", err)
	}
	tmp, err := os.CreateTemp(s.Dir, ".onboarding-*.tmp")
	if err != nil {
		return fmt.Errorf("write onboarding state: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("write onboarding state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write onboarding state: %w", err)
	}
	return os.Rename(tmp.Name(), s.path(userID))
}
