// Package cache keeps a Redis copy of the card listing, the hottest read of
// the board. A nil *BoardCache or a nil Redis client disables caching.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrijs2005/flowrev/internal/server/models"
)

const (
	boardKey      = "flowrev:cartoes"
	generationKey = "flowrev:cartoes:gen"
)

// Generation identifies the board state a listing was read from. Every
// Evict bumps it, and Store discards listings read under an older one.
type Generation int64

// BoardCache stores the full card list under a single key.
type BoardCache struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewBoardCache wraps client. A non-positive ttl stores nothing.
func NewBoardCache(client *redis.Client, ttl time.Duration) *BoardCache {
	if ttl < 0 {
		ttl = 0
	}
	return &BoardCache{redis: client, ttl: ttl}
}

// NewRedisClient parses a redis:// URL and checks the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

func (c *BoardCache) enabled() bool {
	return c != nil && c.redis != nil
}

// Load returns the cached listing. On a miss it returns the current
// generation, which must be read before the database is queried and handed
// back to Store. Any Redis or decoding error counts as a miss; corrupt
// entries are dropped.
func (c *BoardCache) Load(ctx context.Context) ([]*models.Card, Generation, bool) {
	if !c.enabled() {
		return nil, 0, false
	}
	data, err := c.redis.Get(ctx, boardKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			_ = c.redis.Del(ctx, boardKey).Err()
		}
		return nil, readGeneration(ctx, c.redis), false
	}
	var cards []*models.Card
	if err := json.Unmarshal(data, &cards); err != nil {
		_ = c.redis.Del(ctx, boardKey).Err()
		return nil, readGeneration(ctx, c.redis), false
	}
	if cards == nil {
		cards = []*models.Card{}
	}
	return cards, 0, true
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// readGeneration reads the counter; a missing key is generation 0 and an
// unreadable one is -1, which never matches and so blocks Store.
func readGeneration(ctx context.Context, r getter) Generation {
	n, err := r.Get(ctx, generationKey).Int64()
	switch {
	case errors.Is(err, redis.Nil):
		return 0
	case err != nil:
		return -1
	}
	return Generation(n)
}

// Store caches cards only if no Evict happened since gen was read. The
// counter is watched so an Evict racing the write aborts it.
func (c *BoardCache) Store(ctx context.Context, gen Generation, cards []*models.Card) {
	if !c.enabled() || c.ttl == 0 || gen < 0 {
		return
	}
	data, err := json.Marshal(cards)
	if err != nil {
		return
	}
	_ = c.redis.Watch(ctx, func(tx *redis.Tx) error {
		if readGeneration(ctx, tx) != gen {
			return errStale
		}
		_, err := tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, boardKey, data, c.ttl)
			return nil
		})
		return err
	}, generationKey)
}

var errStale = errors.New("board changed since listing was read")

// Evict drops the cached listing and bumps the generation. Called after
// every card mutation.
func (c *BoardCache) Evict(ctx context.Context) {
	if !c.enabled() {
		return
	}
	_, _ = c.redis.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, generationKey)
		p.Del(ctx, boardKey)
		return nil
	})
}

func (c *BoardCache) Close() error {
	if !c.enabled() {
		return nil
	}
	return c.redis.Close()
}
