package metadata

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/koral-build/koral/internal/maven"
)

// MemoryProvider serves descriptors from an in-process table. It backs tests
// and the -offline mode, where only pre-registered metadata is available.
type MemoryProvider struct {
	mu          sync.RWMutex
	descriptors map[string]*PackageDescriptor
	snapshots   map[string]string

	fetchCount atomic.Int64
}

// NewMemoryProvider creates an empty provider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		descriptors: make(map[string]*PackageDescriptor),
		snapshots:   make(map[string]string),
	}
}

var _ Provider = (*MemoryProvider)(nil)

// Add registers a descriptor. The coordinate/version key is derived from the
// descriptor itself.
func (m *MemoryProvider) Add(d *PackageDescriptor) *MemoryProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.Source == "" {
		d.Source = "memory"
	}
	m.descriptors[d.Coordinate.Key()+":"+d.Version] = d
	return m
}

// AddSnapshot registers the latest timestamped build for a SNAPSHOT base
// version.
func (m *MemoryProvider) AddSnapshot(coord maven.Coordinate, baseVersion, timestamped string) *MemoryProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[coord.Key()+":"+baseVersion] = timestamped
	return m
}

// Fetch implements Provider.
func (m *MemoryProvider) Fetch(_ context.Context, coord maven.Coordinate, version string) (*PackageDescriptor, error) {
	m.fetchCount.Add(1)
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.descriptors[coord.Key()+":"+version]
	if !ok {
		return nil, &NotFoundError{Coordinate: coord, Version: version}
	}
	return d, nil
}

// LatestSnapshot implements Provider.
func (m *MemoryProvider) LatestSnapshot(_ context.Context, coord maven.Coordinate, baseVersion string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.snapshots[coord.Key()+":"+baseVersion]
	if !ok {
		return "", &NotFoundError{Coordinate: coord, Version: baseVersion + "-SNAPSHOT"}
	}
	return v, nil
}

// FetchCount reports how many Fetch calls reached the provider. Tests use it
// to prove the cache's single-flight behavior.
func (m *MemoryProvider) FetchCount() int64 {
	return m.fetchCount.Load()
}
