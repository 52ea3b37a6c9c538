package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/filatrack-backend/internal/logger"
)

// ShortIDCache maps a filament's public short id to its row id so the QR
// lookup path skips a table scan. All methods are best-effort: a cache
// failure is logged and treated as a miss.
type ShortIDCache interface {
	GetFilamentID(ctx context.Context, shortID string) (uuid.UUID, bool)
	SetFilamentID(ctx context.Context, shortID string, id uuid.UUID)
	Invalidate(ctx context.Context, shortID string)
	Close() error
}

type shortIDCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func NewShortIDCache(log *logger.Logger, addr string) (ShortIDCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis addr")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &shortIDCache{
		log: log.With("service", "RedisShortIDCache"),
		rdb: rdb,
		ttl: 24 * time.Hour,
	}, nil
}

func cacheKey(shortID string) string {
	return "filament:short_id:" + shortID
}

func (c *shortIDCache) GetFilamentID(ctx context.Context, shortID string) (uuid.UUID, bool) {
	val, err := c.rdb.Get(ctx, cacheKey(shortID)).Result()
	if err != nil {
		if err != goredis.Nil {
			c.log.Warn("Cache read failed", "error", err)
		}
		return uuid.Nil, false
	}
	id, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func (c *shortIDCache) SetFilamentID(ctx context.Context, shortID string, id uuid.UUID) {
	if err := c.rdb.Set(ctx, cacheKey(shortID), id.String(), c.ttl).Err(); err != nil {
		c.log.Warn("Cache write failed", "error", err)
	}
}

func (c *shortIDCache) Invalidate(ctx context.Context, shortID string) {
	if err := c.rdb.Del(ctx, cacheKey(shortID)).Err(); err != nil {
		c.log.Warn("Cache invalidation failed", "error", err)
	}
}

func (c *shortIDCache) Close() error {
	return c.rdb.Close()
}
