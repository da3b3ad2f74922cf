package metadata

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/koral-build/koral/internal/ctxlog"
	"github.com/koral-build/koral/internal/maven"
)

// Cache wraps a Provider with a session-scoped, thread-safe descriptor
// store. Concurrent requests for the same (coordinate, version) share one
// in-flight fetch via single-flight; completed fetches are reused across all
// variants of one resolution run. The cache is the only synchronization
// point in the resolver.
type Cache struct {
	provider Provider

	mu        sync.RWMutex
	store     map[string]*PackageDescriptor
	snapshots map[string]string

	flight singleflight.Group
}

// NewCache creates a cache around a provider.
func NewCache(provider Provider) *Cache {
	return &Cache{
		provider:  provider,
		store:     make(map[string]*PackageDescriptor),
		snapshots: make(map[string]string),
	}
}

var _ Provider = (*Cache)(nil)

// Fetch returns the cached descriptor or dispatches a single shared fetch.
func (c *Cache) Fetch(ctx context.Context, coord maven.Coordinate, version string) (*PackageDescriptor, error) {
	key := coord.Key() + ":" + version

	c.mu.RLock()
	if d, ok := c.store[key]; ok {
		c.mu.RUnlock()
		return d, nil
	}
	c.mu.RUnlock()

	v, err, _ := c.flight.Do(key, func() (any, error) {
		ctxlog.FromContext(ctx).Debug("fetching descriptor", "coordinate", coord.Key(), "version", version)
		d, err := c.provider.Fetch(ctx, coord, version)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.store[key] = d
		c.mu.Unlock()
		return d, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*PackageDescriptor), nil
}

// LatestSnapshot caches SNAPSHOT timestamp answers for the session so all
// variants pin the same build.
func (c *Cache) LatestSnapshot(ctx context.Context, coord maven.Coordinate, baseVersion string) (string, error) {
	key := coord.Key() + ":" + baseVersion + "-SNAPSHOT"

	c.mu.RLock()
	if v, ok := c.snapshots[key]; ok {
		c.mu.RUnlock()
		return v, nil
	}
	c.mu.RUnlock()

	v, err, _ := c.flight.Do(key, func() (any, error) {
		resolved, err := c.provider.LatestSnapshot(ctx, coord, baseVersion)
		if err != nil {
			return "", err
		}
		c.mu.Lock()
		c.snapshots[key] = resolved
		c.mu.Unlock()
		return resolved, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// PrefetchRequest names one descriptor to warm into the cache.
type PrefetchRequest struct {
	Coordinate maven.Coordinate
	Version    string
}

// Prefetch warms the cache with bounded concurrency. Failures are not
// returned: missing descriptors surface later, on the resolution path that
// actually needs them, where the full dependency path is known.
func (c *Cache) Prefetch(ctx context.Context, reqs []PrefetchRequest, workers int) {
	if workers < 1 {
		workers = 1
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, req := range reqs {
		g.Go(func() error {
			_, _ = c.Fetch(ctx, req.Coordinate, req.Version)
			return nil
		})
	}
	_ = g.Wait()
}

// Size returns the number of cached descriptors.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}
