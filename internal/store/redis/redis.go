package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/core/ports"
)

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ ports.DraftStore = (*RedisStore)(nil)

type Config struct {
	Addr       string
	Password   string
	DB         int
	PoolSize   int
	DefaultTTL time.Duration
}

func New(cfg Config) (*RedisStore, error) {
	if cfg.DefaultTTL == 0 {
		cfg.DefaultTTL = 72 * time.Hour
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &RedisStore{
		client: client,
		ttl:    cfg.DefaultTTL,
	}, nil
}

// Chaves Redis:
// draft:{key} -> hash {name, data, updated_at} com TTL
// drafts:index -> zset de keys, score = updated_at (unix ms)

func (r *RedisStore) draftKey(key string) string {
	return fmt.Sprintf("draft:%s", key)
}

func (r *RedisStore) indexKey() string {
	return "drafts:index"
}

func (r *RedisStore) SaveDraft(ctx context.Context, key, name string, data []byte) error {
	if key == "" {
		return fmt.Errorf("draft key is required")
	}
	now := time.Now().UTC()

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, r.draftKey(key), map[string]any{
		"name":       name,
		"data":       data,
		"updated_at": now.UnixMilli(),
	})
	pipe.Expire(ctx, r.draftKey(key), r.ttl)
	pipe.ZAdd(ctx, r.indexKey(), redis.Z{Score: float64(now.UnixMilli()), Member: key})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save draft %s: %w", key, err)
	}
	return nil
}

func (r *RedisStore) LoadDraft(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.HGet(ctx, r.draftKey(key), "data").Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("%w: %s", ports.ErrDraftNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("load draft %s: %w", key, err)
	}
	return data, nil
}

func (r *RedisStore) DeleteDraft(ctx context.Context, key string) error {
	pipe := r.client.TxPipeline()
	del := pipe.Del(ctx, r.draftKey(key))
	pipe.ZRem(ctx, r.indexKey(), key)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete draft %s: %w", key, err)
	}
	if del.Val() == 0 {
		return fmt.Errorf("%w: %s", ports.ErrDraftNotFound, key)
	}
	return nil
}

// ListDrafts do mais recente para o mais antigo; limpa do índice os que expiraram
func (r *RedisStore) ListDrafts(ctx context.Context) ([]ports.DraftInfo, error) {
	keys, err := r.client.ZRevRange(ctx, r.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	if len(keys) == 0 {
		return []ports.DraftInfo{}, nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.SliceCmd, len(keys))
	for i, k := range keys {
		cmds[i] = pipe.HMGet(ctx, r.draftKey(k), "name", "updated_at")
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}

	out := make([]ports.DraftInfo, 0, len(keys))
	var stale []any
	for i, cmd := range cmds {
		vals, err := cmd.Result()
		if err != nil || len(vals) < 2 || vals[1] == nil {
			stale = append(stale, keys[i])
			continue
		}
		name, _ := vals[0].(string)
		ms, _ := strconv.ParseInt(fmt.Sprint(vals[1]), 10, 64)
		out = append(out, ports.DraftInfo{
			Key:       keys[i],
			Name:      name,
			UpdatedAt: time.UnixMilli(ms).UTC(),
		})
	}

	if len(stale) > 0 {
		_ = r.client.ZRem(ctx, r.indexKey(), stale...).Err()
	}
	return out, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
