// Package draft persists in-progress wizard sessions so a listing can be
// resumed after the user leaves. Backends store one JSON snapshot per key.
package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/propertyshodh/shodh/pkg/catalog"
)

// SnapshotVersion is written into every snapshot.
const SnapshotVersion = 1

var (
	// ErrNotFound means no draft is stored under the key.
	ErrNotFound = errors.New("draft not found")
	// ErrCorrupt means a stored draft could not be decoded.
	ErrCorrupt = errors.New("draft corrupt")
)

// Snapshot is the persisted form of a wizard session.
type Snapshot struct {
	Version      int             `json:"version"`
	Catalog      string          `json:"catalog"`
	Answers      catalog.Answers `json:"answers"`
	CurrentIndex int             `json:"current_index"`
	SavedAt      time.Time       `json:"saved_at"`
}

// Store saves, loads and clears snapshots by key. Load returns ErrNotFound
// when nothing is stored.
type Store interface {
	Save(ctx context.Context, key string, snap *Snapshot) error
	Load(ctx context.Context, key string) (*Snapshot, error)
	Clear(ctx context.Context, key string) error
}

const keyPrefix = "listing-draft"

// UserKey is the draft key for a signed-in user.
func UserKey(catalogName, userID string) string {
	return fmt.Sprintf("%s:%s:user:%s", keyPrefix, catalogName, strings.TrimSpace(userID))
}

// GuestKey is the draft key for an anonymous session.
func GuestKey(catalogName string) string {
	return fmt.Sprintf("%s:%s:guest", keyPrefix, catalogName)
}

// KeyFor picks UserKey when userID is set, GuestKey otherwise.
func KeyFor(catalogName, userID string) string {
	if strings.TrimSpace(userID) == "" {
		return GuestKey(catalogName)
	}
	return UserKey(catalogName, userID)
}

func encode(snap *Snapshot) ([]byte, error) {
	if snap == nil {
		return nil, fmt.Errorf("encode draft: nil snapshot")
	}
	cp := *snap
	if cp.Version == 0 {
		cp.Version = SnapshotVersion
	}
	if cp.Answers == nil {
		cp.Answers = catalog.Answers{}
	}
	data, err := json.MarshalIndent(&cp, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal draft: %w", err)
	}
	return data, nil
}

func decode(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if snap.Version > SnapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, snap.Version)
	}
	if snap.Answers == nil {
		snap.Answers = catalog.Answers{}
	}
	return &snap, nil
}
