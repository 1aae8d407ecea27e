package geometry

import (
	"fmt"
	"log/slog"

	"github.com/dotmap/dotmap/internal/cache"
	"github.com/dotmap/dotmap/pkg/core"
)

// Factory builds marker meshes and memoizes them by preset and dimensions.
type Factory struct {
	meshes *cache.MeshCache
	logger *slog.Logger
}

// NewFactory creates a factory. A nil cache disables memoization.
func NewFactory(meshes *cache.MeshCache, logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{meshes: meshes, logger: logger}
}

// Key identifies a mesh by preset identity and dimension tuple.
func Key(p Preset, radius, height float64) string {
	return fmt.Sprintf("%s|%s|%d|%.5f|%.5f|%+v", p.Name, p.Kind, p.RadialSegments, radius, height, shapeOf(p))
}

// shapeOf strips fields that do not affect geometry from the key.
func shapeOf(p Preset) Preset {
	p.Name = ""
	p.Material = MaterialHints{}
	return p
}

// Mesh returns the marker mesh for the preset, building it on a miss.
func (f *Factory) Mesh(p Preset, radius, height float64) *core.Mesh {
	key := Key(p, radius, height)
	if f.meshes != nil {
		if m, ok := f.meshes.Get(key); ok {
			return m
		}
	}

	m := Build(p, radius, height)
	f.logger.Debug("built marker mesh",
		"preset", p.Name, "kind", p.Kind.String(),
		"vertices", len(m.Positions), "triangles", m.TriangleCount())

	if f.meshes != nil {
		f.meshes.Set(key, m)
	}
	return m
}
