package draft

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// FileStore keeps one JSON file per key under Dir. Writes go to a temp file
// that is renamed into place, so a crash never leaves a half-written draft.
type FileStore struct {
	Dir string
	// TTL discards drafts older than this on load. Zero keeps them forever.
	TTL time.Duration
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string, ttl time.Duration) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create draft dir: %w", err)
	}
	return &FileStore{Dir: dir, TTL: ttl}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.Dir, url.PathEscape(key)+".json")
}

func (s *FileStore) Save(_ context.Context, key string, snap *Snapshot) error {
	data, err := encode(snap)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.Dir, ".draft-*.tmp")
	if err != nil {
		return fmt.Errorf("write draft: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write draft: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write draft: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		return fmt.Errorf("write draft: %w", err)
	}
	return nil
}

func (s *FileStore) Load(_ context.Context, key string) (*Snapshot, error) {
	p := s.path(key)
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read draft: %w", err)
	}
	snap, err := decode(data)
	if err != nil {
		return nil, err
	}
	if s.TTL > 0 && !snap.SavedAt.IsZero() && time.Since(snap.SavedAt) > s.TTL {
		_ = os.Remove(p)
		return nil, ErrNotFound
	}
	return snap, nil
}

func (s *FileStore) Clear(_ context.Context, key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("clear draft: %w", err)
	}
	return nil
}
