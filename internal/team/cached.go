package team

import (
	"context"
	"time"

	"github.com/fortuna/borealis/internal/cache"
)

const (
	cacheTTL     = 24 * time.Hour
	cacheTimeout = 2 * time.Second
)

// CachedDirectory layers Redis over another Directory so repeated lookups
// skip the backing store. Misses and Redis errors fall through to the
// wrapped directory; hits written back carry a 24h TTL.
type CachedDirectory struct {
	next  Directory
	cache *cache.RedisCache
}

// NewCachedDirectory wraps next with Redis-backed memoization.
func NewCachedDirectory(next Directory, rc *cache.RedisCache) *CachedDirectory {
	return &CachedDirectory{next: next, cache: rc}
}

// Abbreviation implements Directory.
func (d *CachedDirectory) Abbreviation(name string) (string, bool) {
	key := "team:abbr:" + normalize(name)
	if code, ok := d.lookup(key); ok {
		return code, true
	}
	code, ok := d.next.Abbreviation(name)
	if ok {
		d.writeBack(key, code)
	}
	return code, ok
}

// FullName implements Directory.
func (d *CachedDirectory) FullName(abbreviation string) (string, bool) {
	key := "team:name:" + normalize(abbreviation)
	if full, ok := d.lookup(key); ok {
		return full, true
	}
	full, ok := d.next.FullName(abbreviation)
	if ok {
		d.writeBack(key, full)
	}
	return full, ok
}

func (d *CachedDirectory) lookup(key string) (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), cacheTimeout)
	defer cancel()

	val, err := d.cache.Get(ctx, key)
	if err != nil || val == "" {
		return "", false
	}
	return val, true
}

// writeBack is best effort; a failed write just means the next lookup
// falls through again.
func (d *CachedDirectory) writeBack(key, value string) {
	ctx, cancel := context.WithTimeout(context.Background(), cacheTimeout)
	defer cancel()

	_ = d.cache.Set(ctx, key, value, cacheTTL)
}
