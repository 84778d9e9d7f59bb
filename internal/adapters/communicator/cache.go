package communicator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/allegro/bigcache/v3"
)

// NewCache creates the in-memory XForm cache. Entries expire after ttl and
// the cache never grows beyond maxMB megabytes.
func NewCache(ctx context.Context, ttl time.Duration, maxMB int) (*bigcache.BigCache, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("xform cache: ttl must be positive, got %s", ttl)
	}

	cfg := bigcache.DefaultConfig(ttl)
	cfg.Shards = 64
	cfg.MaxEntriesInWindow = 1024
	cfg.MaxEntrySize = 16 * 1024
	cfg.HardMaxCacheSize = maxMB
	cfg.CleanWindow = time.Minute
	if ttl < cfg.CleanWindow {
		cfg.CleanWindow = ttl
	}
	cfg.Verbose = false

	c, err := bigcache.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("xform cache: %w", err)
	}
	return c, nil
}

// cacheKey identifies one revision of a form.
func cacheKey(downloadURL, hash string) string {
	return downloadURL + "|" + hash
}

func isCacheMiss(err error) bool {
	return errors.Is(err, bigcache.ErrEntryNotFound)
}
