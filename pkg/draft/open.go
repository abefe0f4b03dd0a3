package draft

import (
	"context"
	"fmt"

	"github.com/propertyshodh/shodh/pkg/config"
)

// Open builds the backend named by cfg.Backend. The returned close function
// releases any connection the backend holds.
func Open(ctx context.Context, cfg config.DraftConfig) (Store, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Backend {
	case "", "file":
		s, err := NewFileStore(cfg.Dir, cfg.TTL)
		if err != nil {
			return nil, nil, err
		}
		return s, noop, nil
	case "memory":
		s, err := NewMemoryStore(cfg.MaxEntries)
		if err != nil {
			return nil, nil, err
		}
		return s, noop, nil
	case "redis":
		rdb, err := DialRedis(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, nil, err
		}
		return NewRedisStore(rdb, cfg.RedisPrefix, cfg.TTL), rdb.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown draft backend %q (want file, memory or redis)", cfg.Backend)
}
