package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"github.com/artefactual/fixity/internal/errs"
	"github.com/artefactual/fixity/internal/ports"
)

// MemoryCache is a process-local 2Q cache. Entries are lost on exit, which
// suits one-off scans and tests.
type MemoryCache struct {
	entries *lru.TwoQueueCache
	now     func() time.Time
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

var _ ports.Cache = (*MemoryCache)(nil)

func NewMemoryCache(size int) (*MemoryCache, error) {
	if size <= 0 {
		size = 1024
	}
	entries, err := lru.New2Q(size)
	if err != nil {
		return nil, errs.Wrap(err, "create 2q cache")
	}
	return &MemoryCache{entries: entries, now: time.Now}, nil
}

func (c *MemoryCache) Get(ctx context.Context, key string) (string, bool, error) {
	trimmedKey, err := checkKey(ctx, key)
	if err != nil {
		return "", false, err
	}

	raw, ok := c.entries.Get(trimmedKey)
	if !ok {
		return "", false, nil
	}
	entry := raw.(memoryEntry)
	if !entry.expiresAt.IsZero() && !c.now().Before(entry.expiresAt) {
		c.entries.Remove(trimmedKey)
		return "", false, nil
	}
	return entry.value, true, nil
}

func (c *MemoryCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	trimmedKey, err := checkKey(ctx, key)
	if err != nil {
		return err
	}

	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = c.now().Add(ttl)
	}
	c.entries.Add(trimmedKey, entry)
	return nil
}

func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	trimmedKey, err := checkKey(ctx, key)
	if err != nil {
		return err
	}
	c.entries.Remove(trimmedKey)
	return nil
}
