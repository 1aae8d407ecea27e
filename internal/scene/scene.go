// Package scene assembles the dot field, hover engine, hotspot registry and
// arc builder from configuration and source data.
package scene

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dotmap/dotmap/internal/arc"
	"github.com/dotmap/dotmap/internal/cache"
	"github.com/dotmap/dotmap/internal/config"
	"github.com/dotmap/dotmap/internal/dotfield"
	"github.com/dotmap/dotmap/internal/geo"
	"github.com/dotmap/dotmap/internal/geometry"
	"github.com/dotmap/dotmap/internal/hotspot"
	"github.com/dotmap/dotmap/internal/hover"
	"github.com/dotmap/dotmap/internal/source"
)

// Config is everything needed to assemble a scene.
type Config struct {
	Dots     dotfield.Config
	Hotspots hotspot.Config
	Hover    hover.Config
	Arcs     arc.Config
	Sources  source.Config

	Projection geo.Mode
	// MapWidth and MapHeight set the projection grid; zero fits the dots.
	MapWidth  float64
	MapHeight float64

	// MeshCacheVertices bounds the marker mesh cache; zero disables it.
	MeshCacheVertices int64
}

// Scene is an assembled, bound map.
type Scene struct {
	Field     *dotfield.Field
	Hover     *hover.Engine
	Registry  *hotspot.Registry
	Arcs      *arc.Builder
	Projector *geo.Projector
	Sources   []string

	meshes *cache.MeshCache
}

// Load reads the sources and builds a scene. On any failure it returns nil
// and the error; nothing is partially built.
func Load(ctx context.Context, cfg Config, logger *slog.Logger) (*Scene, error) {
	data, err := source.Load(ctx, cfg.Sources)
	if err != nil {
		return nil, fmt.Errorf("failed to load sources: %w", err)
	}
	return Build(cfg, data, logger)
}

// Build binds data into a new scene.
func Build(cfg Config, data *source.Data, logger *slog.Logger) (*Scene, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var meshes *cache.MeshCache
	if cfg.MeshCacheVertices > 0 {
		var err error
		meshes, err = cache.NewMeshCache(cfg.MeshCacheVertices)
		if err != nil {
			return nil, fmt.Errorf("failed to create mesh cache: %w", err)
		}
	}

	field := dotfield.New(data.Points, cfg.Dots)
	proj := geo.NewProjector(cfg.Projection, geo.GridBound(cfg.MapWidth, cfg.MapHeight, field.Bounds()))

	reg := hotspot.NewRegistry(field, geometry.NewFactory(meshes, logger), cfg.Hotspots, logger)
	reg.Bind(data.Hotspots, proj)

	arcs := arc.NewBuilder(reg, cfg.Arcs, logger)
	arcs.Build()

	logger.Info("scene assembled",
		"dots", field.Len(),
		"hotspots", reg.Len(),
		"groups", len(reg.Groups()),
		"pairs", len(arcs.Pairs()),
		"projection", proj.Mode().String(),
	)

	return &Scene{
		Field:     field,
		Hover:     hover.New(field, cfg.Hover, logger),
		Registry:  reg,
		Arcs:      arcs,
		Projector: proj,
		Sources:   data.Names,
		meshes:    meshes,
	}, nil
}

// Close drops derived state and releases the mesh cache.
func (s *Scene) Close() {
	s.Arcs.Reset()
	s.Registry.Reset()
	s.Hover.Reset()
	s.Field.ResetLift()
	if s.meshes != nil {
		s.meshes.Close()
	}
}

// FromConfig reads the scene configuration from the loaded config.
func FromConfig() (Config, error) {
	hs, err := config.GetHotspotsConfig()
	if err != nil {
		return Config{}, err
	}
	pairs, err := config.GetConnectionPairs()
	if err != nil {
		return Config{}, err
	}
	src, err := config.GetSourcesConfig()
	if err != nil {
		return Config{}, err
	}
	mapCfg := config.GetMapConfig()
	mode, err := geo.ParseMode(mapCfg.Projection)
	if err != nil {
		return Config{}, err
	}

	dots := config.GetDotsConfig()
	fx := config.GetEffectsConfig()
	hv := config.GetHoverConfig()
	inter := config.GetInteractionConfig()
	line := config.GetConnectionLineConfig()

	files := make([]source.HotspotFile, len(src.Hotspots))
	for i, h := range src.Hotspots {
		files[i] = source.HotspotFile{Type: h.Type, Path: h.Path}
	}

	return Config{
		Dots: dotfield.Config{
			Radius:   dots.Radius,
			Height:   dots.Height,
			Spacing:  dots.Spacing,
			CellSize: dots.CellSize,
		},
		Hotspots: hotspot.Config{
			RadiusMultiplier: hs.RadiusMultiplier,
			HeightMultiplier: hs.HeightMultiplier,
			Idle:             hotspot.IdleConfig(fx.Idle),
			Glow:             hotspot.GlowConfig(fx.Glow),
			Layout: hotspot.Layout{
				Active:  hs.Layout.Active,
				ByType:  hs.Layout.ByType,
				Presets: hs.Layout.Presets,
			},
		},
		Hover: hover.Config{
			Radius:         hv.Radius,
			MaxLift:        hv.MaxLift,
			Easing:         hv.Easing,
			Threshold:      hv.Threshold,
			CooldownFrames: inter.HoverCooldownFrames,
			Falloff:        inter.HoverFalloff,
		},
		Arcs: arc.Config{
			Enabled:        line.Enabled,
			DrawSequential: line.DrawSequential,
			Base:           line.Style,
			Pairs:          pairs,
		},
		Sources:           source.Config{Points: src.Points, Hotspots: files},
		Projection:        mode,
		MapWidth:          mapCfg.Width,
		MapHeight:         mapCfg.Height,
		MeshCacheVertices: config.GetFrameConfig().MeshCacheVertices,
	}, nil
}
