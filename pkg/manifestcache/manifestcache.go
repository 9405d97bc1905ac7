// Package manifestcache is the keyed byte-store with TTL backing the
// resolver's memoized manifests. Keys are shaped
// "update-{from}-{to}-{os}-{texture}"; values are JSON-serialized
// domain.Manifest with a fixed 8-hour lifetime.
package manifestcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nextmu/updateservice/pkg/domain"
	"github.com/nextmu/updateservice/pkg/errs"
)

// TTL is the fixed manifest cache lifetime.
const TTL = 8 * time.Hour

// Cache wraps a Redis client for manifest memoization.
type Cache struct {
	rdb *redis.Client
}

// New wraps an already-constructed Redis client. The client is a
// process-singleton owned by the application shell and also backs
// pkg/queue.
func New(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb}
}

// Key renders the cache key for a (source, target, os, texture) lookup.
func Key(fromVersion, toVersion string, os domain.OS, texture domain.Texture) string {
	return fmt.Sprintf("update-%s-%s-%d-%d", fromVersion, toVersion, int(os), int(texture))
}

// Get looks up a memoized manifest. A miss returns (nil, false, nil) — never
// an error — so callers always fall through to recompute.
func (c *Cache) Get(ctx context.Context, key string) (*domain.Manifest, bool, error) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errs.Unavailable("manifestcache", err)
	}

	var m domain.Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		// A corrupt cache entry is treated as a miss rather than a hard
		// failure; the caller recomputes and overwrites it.
		return nil, false, nil
	}
	return &m, true, nil
}

// Set stores a manifest with the fixed 8-hour TTL. A successful compute
// always writes back regardless of a racing writer — last-write-wins is
// acceptable because every writer computes the same value from the same
// READY catalog.
func (c *Cache) Set(ctx context.Context, key string, m domain.Manifest) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return errs.Wrap(errs.Internal, "manifestcache: marshal manifest", err)
	}
	if err := c.rdb.Set(ctx, key, raw, TTL).Err(); err != nil {
		return errs.Unavailable("manifestcache", err)
	}
	return nil
}
