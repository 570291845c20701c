package cache

import (
	"context"
	"sync"
	"time"

	"github.com/dfryer1193/alttext/media/application"
	"github.com/dfryer1193/alttext/media/domain"
)

var _ application.StatsCache = (*MemoryCache)(nil)

// MemoryCache is the process-local stats cache used when Redis is not configured
type MemoryCache struct {
	mu      sync.Mutex
	stats   *domain.Stats
	expires time.Time
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{ttl: ttl, now: time.Now}
}

func (c *MemoryCache) GetStats(ctx context.Context) (*domain.Stats, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stats == nil || !c.now().Before(c.expires) {
		return nil, false
	}
	return copyStats(c.stats), true
}

func (c *MemoryCache) SetStats(ctx context.Context, stats *domain.Stats) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats = copyStats(stats)
	c.expires = c.now().Add(c.ttl)
	return nil
}

func (c *MemoryCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats = nil
	return nil
}

func copyStats(s *domain.Stats) *domain.Stats {
	if s == nil {
		return nil
	}
	cp := *s
	cp.ByMimeType = make(map[string]int, len(s.ByMimeType))
	for k, v := range s.ByMimeType {
		cp.ByMimeType[k] = v
	}
	return &cp
}
