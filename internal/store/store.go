package store

import (
	"context"
	"fmt"
	"io"

	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/config"
	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/core/ports"
	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/store/memory"
	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/store/postgres"
	redisstore "github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/store/redis"
)

// Store é um DraftStore com recursos a liberar
type Store interface {
	ports.DraftStore
	io.Closer
}

type memoryStore struct {
	*memory.DraftStore
}

func (memoryStore) Close() error { return nil }

// Open escolhe o driver configurado (store.driver)
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Store.Driver {
	case "memory":
		return memoryStore{memory.New()}, nil
	case "redis":
		s, err := redisstore.New(redisstore.Config{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			DefaultTTL: cfg.Store.DraftTTL(),
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres":
		pool, err := postgres.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		s := postgres.New(pool)
		if err := s.CreateSchema(ctx); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("postgres schema: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
