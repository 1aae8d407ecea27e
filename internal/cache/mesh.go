package cache

import (
	"fmt"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/dotmap/dotmap/pkg/core"
)

// MeshCache memoizes generated meshes. Cached meshes are shared and must
// not be mutated by callers.
type MeshCache struct {
	c *ristretto.Cache[string, *core.Mesh]
}

// NewMeshCache creates a cache bounded by total vertex count.
func NewMeshCache(maxVertices int64) (*MeshCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, *core.Mesh]{
		NumCounters: 10 * 1024,
		MaxCost:     maxVertices,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("creating mesh cache: %w", err)
	}
	return &MeshCache{c: c}, nil
}

// Get returns a cached mesh.
func (m *MeshCache) Get(key string) (*core.Mesh, bool) {
	return m.c.Get(key)
}

// Set stores a mesh, costed by its vertex count. Set waits for the write to
// be applied so an immediate Get sees it unless it was rejected.
func (m *MeshCache) Set(key string, mesh *core.Mesh) {
	if mesh == nil {
		return
	}
	cost := int64(len(mesh.Positions))
	if cost == 0 {
		cost = 1
	}
	m.c.Set(key, mesh, cost)
	m.c.Wait()
}

// Close stops the cache's background goroutines.
func (m *MeshCache) Close() {
	m.c.Close()
}
