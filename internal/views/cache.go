package views

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cliptube/backend/internal/models"
)

// ErrSourceUnavailable indicates the caching layer has no underlying source.
var ErrSourceUnavailable = errors.New("profile source unavailable")

// ProfileSource produces channel profiles. *Assembler satisfies it.
type ProfileSource interface {
	ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error)
}

type cacheEntry struct {
	profile models.ChannelProfile
	expires time.Time
}

// CachingProfileSource wraps a ProfileSource with a TTL-based in-memory
// cache. The cache key includes the viewer because IsSubscribed is
// viewer-relative.
type CachingProfileSource struct {
	base ProfileSource
	ttl  time.Duration

	mu    sync.RWMutex
	items map[string]cacheEntry
}

// NewCachingProfileSource returns a ProfileSource that caches lookups for the
// provided TTL.
func NewCachingProfileSource(base ProfileSource, ttl time.Duration) *CachingProfileSource {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachingProfileSource{
		base:  base,
		ttl:   ttl,
		items: make(map[string]cacheEntry),
	}
}

// ChannelProfile returns a cached profile when available, otherwise it
// delegates to the underlying source and stores the result. Errors are never
// cached.
func (c *CachingProfileSource) ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error) {
	if c == nil || c.base == nil {
		return models.ChannelProfile{}, ErrSourceUnavailable
	}

	key := username + "\x00" + viewerID
	now := time.Now()

	c.mu.RLock()
	entry, ok := c.items[key]
	c.mu.RUnlock()
	if ok && now.Before(entry.expires) {
		return entry.profile, nil
	}

	profile, err := c.base.ChannelProfile(ctx, username, viewerID)
	if err != nil {
		return models.ChannelProfile{}, err
	}

	c.mu.Lock()
	c.items[key] = cacheEntry{profile: profile, expires: now.Add(c.ttl)}
	c.mu.Unlock()

	return profile, nil
}
