package profile

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/davidbz/waypost/internal/domain"
	"github.com/davidbz/waypost/internal/observability"
)

// cachedProfile is one local cache entry. A nil profile is a cached
// "not found" result, kept to avoid hammering the remote service for
// unregistered users.
type cachedProfile struct {
	profile   *domain.Profile
	fetchedAt time.Time
}

// CachedClient is a process-local read-through cache over a remote
// profile service. Entries are read and invalidated from different
// request-handling goroutines simultaneously; all map access is guarded.
type CachedClient struct {
	remote domain.ProfileService
	ttl    time.Duration
	now    func() time.Time

	mu      sync.RWMutex
	entries map[int64]cachedProfile
}

// NewCachedClient wraps a remote profile service with a TTL cache.
func NewCachedClient(remote domain.ProfileService, ttl time.Duration) *CachedClient {
	return &CachedClient{
		remote:  remote,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[int64]cachedProfile),
	}
}

// Get returns the cached profile when still within TTL, otherwise asks
// the remote service and caches both positive and negative outcomes.
// When the remote service is unreachable the result is "unknown"
// (nil, nil) rather than an error, and the caller falls back to locally
// available hints.
func (c *CachedClient) Get(ctx context.Context, id int64) (*domain.Profile, error) {
	c.mu.RLock()
	entry, ok := c.entries[id]
	c.mu.RUnlock()

	if ok && c.fresh(entry) {
		if entry.profile == nil {
			return nil, domain.ErrNotFound
		}
		return entry.profile, nil
	}

	profile, err := c.remote.Get(ctx, id)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotFound):
		profile = nil
	default:
		observability.FromContext(ctx).Error("profile service unreachable",
			observability.Int64("user_id", id),
			observability.Error(err))
		return nil, nil
	}

	c.mu.Lock()
	c.entries[id] = cachedProfile{profile: profile, fetchedAt: c.now()}
	c.mu.Unlock()

	if profile == nil {
		return nil, domain.ErrNotFound
	}
	return profile, nil
}

// SetLanguage updates the remote profile and invalidates the cache entry
// so the next read is forced to the remote service.
func (c *CachedClient) SetLanguage(ctx context.Context, id int64, code string) error {
	if err := c.remote.SetLanguage(ctx, id, code); err != nil {
		return err
	}
	c.invalidate(id)
	return nil
}

// SetLocation updates the remote profile and invalidates the cache entry.
func (c *CachedClient) SetLocation(ctx context.Context, id int64, latitude, longitude float64) error {
	if err := c.remote.SetLocation(ctx, id, latitude, longitude); err != nil {
		return err
	}
	c.invalidate(id)
	return nil
}

// Sweep removes entries older than the TTL, bounding memory growth
// independent of read traffic.
func (c *CachedClient) Sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, entry := range c.entries {
		if !c.fresh(entry) {
			delete(c.entries, id)
		}
	}
}

// StartJanitor runs periodic sweeps until the context is cancelled.
func (c *CachedClient) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.Sweep()
			}
		}
	}()
}

func (c *CachedClient) invalidate(id int64) {
	c.mu.Lock()
	delete(c.entries, id)
	c.mu.Unlock()
}

func (c *CachedClient) fresh(entry cachedProfile) bool {
	return c.now().Sub(entry.fetchedAt) < c.ttl
}
