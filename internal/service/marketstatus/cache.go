package marketstatus

import (
	"context"
	"sync"
	"time"

	"GoldPulse/internal/domain/models"
)

const DefaultTTL = 5 * time.Minute

// Source produces a fresh remote status.
type Source interface {
	Fetch(ctx context.Context) (*models.RemoteMarketStatus, error)
}

// Cache holds the single remote status shared across refresh cycles.
// The entry is swapped wholesale, never mutated in place.
type Cache struct {
	mu    sync.RWMutex
	entry *models.RemoteMarketStatus
	ttl   time.Duration
}

func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{ttl: ttl}
}

func (c *Cache) Get() *models.RemoteMarketStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entry
}

func (c *Cache) Replace(s *models.RemoteMarketStatus) {
	c.mu.Lock()
	c.entry = s
	c.mu.Unlock()
}

// Valid is false for a missing, expired or unknown entry.
func (c *Cache) Valid(now time.Time) bool {
	return c.valid(c.Get(), now)
}

func (c *Cache) valid(s *models.RemoteMarketStatus, now time.Time) bool {
	if s == nil || s.State == models.MarketUnknown {
		return false
	}
	return now.Sub(s.FetchedAt) <= c.ttl
}

// Current returns the entry if it is valid at now, else nil.
func (c *Cache) Current(now time.Time) *models.RemoteMarketStatus {
	s := c.Get()
	if !c.valid(s, now) {
		return nil
	}
	return s
}

// Refresh fetches from src when the entry is not valid. The fresh entry is stamped with now
// so expiry follows the caller's clock. On failure the old entry stays and the error is
// returned for logging.
func (c *Cache) Refresh(ctx context.Context, src Source, now time.Time) (*models.RemoteMarketStatus, error) {
	if src == nil {
		return c.Current(now), nil
	}
	if s := c.Current(now); s != nil {
		return s, nil
	}
	fresh, err := src.Fetch(ctx)
	if err != nil {
		return c.Current(now), err
	}
	stamped := *fresh
	stamped.FetchedAt = now
	c.Replace(&stamped)
	return c.Current(now), nil
}
