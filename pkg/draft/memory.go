package draft

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// MemoryStore is a bounded in-process store. The least recently used draft
// is evicted once size is reached. Snapshots are kept encoded so callers
// never share maps with the store.
type MemoryStore struct {
	cache *lru.Cache[string, []byte]
}

// NewMemoryStore returns a store holding at most size drafts.
func NewMemoryStore(size int) (*MemoryStore, error) {
	if size <= 0 {
		size = 1024
	}
	cache, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("create draft cache: %w", err)
	}
	return &MemoryStore{cache: cache}, nil
}

func (s *MemoryStore) Save(_ context.Context, key string, snap *Snapshot) error {
	data, err := encode(snap)
	if err != nil {
		return err
	}
	s.cache.Add(key, data)
	return nil
}

func (s *MemoryStore) Load(_ context.Context, key string) (*Snapshot, error) {
	data, ok := s.cache.Get(key)
	if !ok {
		return nil, ErrNotFound
	}
	return decode(data)
}

func (s *MemoryStore) Clear(_ context.Context, key string) error {
	s.cache.Remove(key)
	return nil
}

// Len reports how many drafts are held.
func (s *MemoryStore) Len() int { return s.cache.Len() }
