package draft

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/propertyshodh/shodh/pkg/catalog"
	"github.com/propertyshodh/shodh/pkg/config"
)

func sampleSnapshot(idx int) *Snapshot {
	return &Snapshot{
		Catalog:      "property-listing",
		Answers:      catalog.Answers{"category": "residential", "price": 4500000.0, "amenities": []string{"gym"}},
		CurrentIndex: idx,
		SavedAt:      time.Now().UTC().Truncate(time.Second),
	}
}

func TestKeys(t *testing.T) {
	if got := UserKey("property-listing", "u1"); got != "listing-draft:property-listing:user:u1" {
		t.Errorf("UserKey = %q", got)
	}
	if got := KeyFor("quick-listing", " "); got != GuestKey("quick-listing") {
		t.Errorf("KeyFor blank user = %q", got)
	}
}

func TestFileStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir(), 0)
	if err != nil {
		t.Fatal(err)
	}
	key := UserKey("property-listing", "u/1")

	if _, err := s.Load(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("empty load err = %v, want ErrNotFound", err)
	}
	in := sampleSnapshot(3)
	if err := s.Save(ctx, key, in); err != nil {
		t.Fatal(err)
	}
	got, err := s.Load(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	if got.CurrentIndex != 3 || got.Catalog != in.Catalog || got.Version != SnapshotVersion {
		t.Errorf("got %+v", got)
	}
	if got.Answers["price"] != 4500000.0 {
		t.Errorf("price = %v", got.Answers["price"])
	}

	if err := s.Clear(ctx, key); err != nil {
		t.Fatal(err)
	}
	if err := s.Clear(ctx, key); err != nil {
		t.Errorf("second clear: %v", err)
	}
	if _, err := s.Load(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Errorf("after clear err = %v", err)
	}
}

func TestFileStore_Corrupt(t *testing.T) {
	dir := t.TempDir()
	s, _ := NewFileStore(dir, 0)
	key := GuestKey("property-listing")
	if err := os.WriteFile(s.path(key), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Load(context.Background(), key); !errors.Is(err, ErrCorrupt) {
		t.Errorf("err = %v, want ErrCorrupt", err)
	}
}

func TestFileStore_TTL(t *testing.T) {
	s, _ := NewFileStore(t.TempDir(), time.Hour)
	old := sampleSnapshot(1)
	old.SavedAt = time.Now().Add(-2 * time.Hour)
	ctx := context.Background()
	if err := s.Save(ctx, "k", old); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Load(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expired draft err = %v, want ErrNotFound", err)
	}
}

func TestFileStore_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	s, _ := NewFileStore(dir, 0)
	for i := 0; i < 3; i++ {
		if err := s.Save(context.Background(), "k", sampleSnapshot(i)); err != nil {
			t.Fatal(err)
		}
	}
	matches, _ := filepath.Glob(filepath.Join(dir, ".draft-*"))
	if len(matches) != 0 {
		t.Errorf("temp files left: %v", matches)
	}
}

func TestMemoryStore_EvictsOldest(t *testing.T) {
	s, err := NewMemoryStore(2)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	for _, k := range []string{"a", "b", "c"} {
		_ = s.Save(ctx, k, sampleSnapshot(0))
	}
	if _, err := s.Load(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("a should be evicted, err = %v", err)
	}
	if s.Len() != 2 {
		t.Errorf("Len = %d", s.Len())
	}
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	s, _ := NewMemoryStore(4)
	ctx := context.Background()
	in := sampleSnapshot(0)
	_ = s.Save(ctx, "k", in)
	in.Answers["category"] = "commercial"
	got, _ := s.Load(ctx, "k")
	if got.Answers["category"] != "residential" {
		t.Errorf("store shares the caller's map")
	}
}

type fakeRedis struct {
	data map[string]string
	ttl  time.Duration
	err  error
}

func (f *fakeRedis) Get(_ context.Context, key string) *goredis.StringCmd {
	v, ok := f.data[key]
	if !ok {
		return goredis.NewStringResult("", goredis.Nil)
	}
	return goredis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, exp time.Duration) *goredis.StatusCmd {
	if f.err != nil {
		return goredis.NewStatusResult("", f.err)
	}
	f.data[key] = string(value.([]byte))
	f.ttl = exp
	return goredis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *goredis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return goredis.NewIntResult(n, nil)
}

func TestRedisStore(t *testing.T) {
	fr := &fakeRedis{data: map[string]string{}}
	s := NewRedisStore(fr, "shodh:draft:", 24*time.Hour)
	ctx := context.Background()

	if _, err := s.Load(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if err := s.Save(ctx, "k", sampleSnapshot(2)); err != nil {
		t.Fatal(err)
	}
	if _, ok := fr.data["shodh:draft:k"]; !ok {
		t.Fatalf("prefix not applied: %v", fr.data)
	}
	if fr.ttl != 24*time.Hour {
		t.Errorf("ttl = %v", fr.ttl)
	}
	got, err := s.Load(ctx, "k")
	if err != nil || got.CurrentIndex != 2 {
		t.Fatalf("Load = %+v, %v", got, err)
	}
	if err := s.Clear(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if len(fr.data) != 0 {
		t.Errorf("data after clear = %v", fr.data)
	}

	fr.err = errors.New("connection refused")
	if err := s.Save(ctx, "k", sampleSnapshot(0)); err == nil {
		t.Error("want save error")
	}
}

// gatedStore blocks the first Save until gate is closed.
type gatedStore struct {
	mu      sync.Mutex
	saved   []int
	cleared []string
	started chan struct{}
	gate    chan struct{}
	once    sync.Once
	fail    error
}

func (g *gatedStore) Save(_ context.Context, _ string, snap *Snapshot) error {
	g.once.Do(func() { close(g.started) })
	<-g.gate
	g.mu.Lock()
	defer g.mu.Unlock()
	g.saved = append(g.saved, snap.CurrentIndex)
	return g.fail
}

func (g *gatedStore) Load(context.Context, string) (*Snapshot, error) { return nil, ErrNotFound }

func (g *gatedStore) Clear(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cleared = append(g.cleared, key)
	return nil
}

func newGated() *gatedStore {
	return &gatedStore{started: make(chan struct{}), gate: make(chan struct{})}
}

func TestAsync_CoalescesPerKey(t *testing.T) {
	g := newGated()
	a := NewAsync(g)
	defer a.Close()
	ctx := context.Background()

	_ = a.Save(ctx, "k", sampleSnapshot(1))
	<-g.started
	for i := 2; i <= 4; i++ {
		_ = a.Save(ctx, "k", sampleSnapshot(i))
	}
	got, err := a.Load(ctx, "k")
	if err != nil || got.CurrentIndex != 4 {
		t.Fatalf("pending Load = %+v, %v", got, err)
	}
	close(g.gate)
	if err := a.Flush(ctx); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(g.saved, []int{1, 4}) {
		t.Errorf("saved = %v, want [1 4]", g.saved)
	}
}

func TestAsync_ClearWinsOverPendingSave(t *testing.T) {
	g := newGated()
	a := NewAsync(g)
	defer a.Close()
	ctx := context.Background()

	_ = a.Save(ctx, "other", sampleSnapshot(0))
	<-g.started
	_ = a.Save(ctx, "k", sampleSnapshot(7))
	_ = a.Clear(ctx, "k")
	if _, err := a.Load(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("pending clear Load err = %v", err)
	}
	close(g.gate)
	_ = a.Flush(ctx)

	if !reflect.DeepEqual(g.saved, []int{0}) || !reflect.DeepEqual(g.cleared, []string{"k"}) {
		t.Errorf("saved = %v cleared = %v", g.saved, g.cleared)
	}
}

func TestAsync_ReportsErrors(t *testing.T) {
	g := newGated()
	close(g.gate)
	g.fail = errors.New("disk full")

	var mu sync.Mutex
	var got []string
	a := NewAsync(g, OnError(func(key string, err error) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, key+": "+err.Error())
	}))
	if err := a.Save(context.Background(), "k", sampleSnapshot(0)); err != nil {
		t.Fatalf("Save must not surface backend errors: %v", err)
	}
	_ = a.Close()

	mu.Lock()
	defer mu.Unlock()
	if !reflect.DeepEqual(got, []string{"k: disk full"}) {
		t.Errorf("errors = %v", got)
	}
}

func TestAsync_Closed(t *testing.T) {
	a := NewAsync(newGated())
	_ = a.Close()
	if err := a.Save(context.Background(), "k", sampleSnapshot(0)); !errors.Is(err, ErrClosed) {
		t.Errorf("err = %v, want ErrClosed", err)
	}
	if err := a.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	s, closeFn, err := Open(ctx, config.DraftConfig{Backend: "memory", MaxEntries: 8})
	if err != nil {
		t.Fatal(err)
	}
	defer closeFn()
	if _, ok := s.(*MemoryStore); !ok {
		t.Errorf("got %T, want *MemoryStore", s)
	}

	s, _, err = Open(ctx, config.DraftConfig{Backend: "file", Dir: filepath.Join(t.TempDir(), "d")})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*FileStore); !ok {
		t.Errorf("got %T, want *FileStore", s)
	}

	if _, _, err := Open(ctx, config.DraftConfig{Backend: "etcd"}); err == nil {
		t.Error("want error for unknown backend")
	}
}
