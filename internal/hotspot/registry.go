// Package hotspot binds hotspot records to dots, groups them by type into
// instanced mesh groups and drives their idle and glow animation.
package hotspot

import (
	"log/slog"
	"math"
	"strings"

	"github.com/dotmap/dotmap/internal/cache"
	"github.com/dotmap/dotmap/internal/dotfield"
	"github.com/dotmap/dotmap/internal/geometry"
	"github.com/dotmap/dotmap/pkg/core"
)

// goldenAngle spreads phases of neighbouring dots apart.
var goldenAngle = math.Pi * (3 - math.Sqrt(5))

// DefaultGroup is the group key for records without a type.
const DefaultGroup = "default"

// IdleConfig drives the vertical bob.
type IdleConfig struct {
	Enabled   bool
	Amplitude float64
	Speed     float64
	PhaseStep float64
}

// GlowConfig drives the scale pulse.
type GlowConfig struct {
	Enabled   bool
	Amplitude float64
	Speed     float64
}

// Layout picks marker presets. ByType maps a hotspot type to a preset
// name; types without an entry use Active.
type Layout struct {
	Active  string
	ByType  map[string]string
	Presets map[string]geometry.PresetOverrides
}

// Config sizes markers relative to dots.
type Config struct {
	RadiusMultiplier float64
	HeightMultiplier float64
	Idle             IdleConfig
	Glow             GlowConfig
	Layout           Layout
}

// Projector places geographic coordinates on the dot grid.
type Projector interface {
	Project(lat, lon float64) (x, y float64, err error)
}

// Group is one instanced mesh batch. Members and Transforms are indexed by
// slot.
type Group struct {
	Key        string
	Preset     geometry.Preset
	Mesh       *core.Mesh
	Members    []int
	Transforms []core.Transform
}

// Registry owns bound hotspots. It is not safe for concurrent use.
type Registry struct {
	cfg     Config
	field   *dotfield.Field
	factory *geometry.Factory
	logger  *slog.Logger

	hotspots []core.Hotspot
	ids      *cache.IDIndex
	groups   []*Group
	byKey    map[string]int
	selected int
	moved    []int
}

// NewRegistry returns an empty registry over field.
func NewRegistry(field *dotfield.Field, factory *geometry.Factory, cfg Config, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	if factory == nil {
		factory = geometry.NewFactory(nil, logger)
	}
	return &Registry{
		cfg:      cfg,
		field:    field,
		factory:  factory,
		logger:   logger,
		ids:      cache.NewIDIndex(),
		byKey:    make(map[string]int),
		selected: -1,
	}
}

// Phase returns the animation phase for a slot on a dot, in [0, 2π).
func Phase(slot, dot int, step float64) float64 {
	p := math.Mod(float64(slot)*step+float64(dot)*goldenAngle, 2*math.Pi)
	if p < 0 {
		p += 2 * math.Pi
	}
	return p
}

// IdleLift is the idle bob for a phase at elapsed seconds.
func IdleLift(cfg IdleConfig, phase, elapsed float64) float64 {
	if !cfg.Enabled {
		return 0
	}
	return math.Sin(elapsed*cfg.Speed+phase) * cfg.Amplitude
}

// GlowScale is the pulse scale for a phase at elapsed seconds.
func GlowScale(cfg GlowConfig, phase, elapsed float64) float64 {
	if !cfg.Enabled {
		return 1
	}
	return 1 + math.Sin(elapsed*cfg.Speed+phase)*cfg.Amplitude
}

// Bind resolves each source to its nearest dot and appends it. Records
// that cannot be placed are skipped. Bind returns the number bound.
func (r *Registry) Bind(sources []core.HotspotSource, proj Projector) int {
	if r.field.Len() == 0 {
		if len(sources) > 0 {
			r.logger.Warn("no dots to bind hotspots to", "skipped", len(sources))
		}
		return 0
	}
	dims := r.field.Config()
	height := dims.Height * r.cfg.HeightMultiplier
	radius := dims.Radius * r.cfg.RadiusMultiplier

	bound := 0
	for _, src := range sources {
		x, y, err := proj.Project(src.Lat, src.Lon)
		if err != nil {
			r.logger.Warn("skipping hotspot", "id", src.ID, "lat", src.Lat, "lon", src.Lon, "error", err)
			continue
		}
		dot, ok := r.field.Nearest(x, y)
		if !ok {
			continue
		}

		index := len(r.hotspots)
		if !r.ids.Set(src.ID, index) {
			r.logger.Warn("duplicate hotspot id, lookups resolve to the first", "id", src.ID)
		}
		if !r.field.SetHotspot(dot, index) {
			r.logger.Warn("dot already owns a hotspot",
				"dot", dot, "owner", r.field.Dot(dot).HotspotIndex, "id", src.ID)
		}

		g := r.group(src.Type, radius, height)
		slot := len(g.Members)
		g.Members = append(g.Members, index)
		g.Transforms = append(g.Transforms, core.Transform{Position: r.field.World(dot), Scale: 1})

		r.hotspots = append(r.hotspots, core.Hotspot{
			ID:       src.ID,
			Type:     src.Type,
			Label:    src.Label,
			Message:  src.Message,
			Lat:      src.Lat,
			Lon:      src.Lon,
			DotIndex: dot,
			Group:    g.Key,
			Slot:     slot,
			Height:   height,
			Radius:   radius,
			Phase:    Phase(slot, dot, r.cfg.Idle.PhaseStep),
			Scale:    1,
			Position: r.field.World(dot),
		})
		bound++
	}
	r.logger.Info("bound hotspots", "bound", bound, "sources", len(sources), "groups", len(r.groups))
	return bound
}

func (r *Registry) group(typ string, radius, height float64) *Group {
	key := strings.TrimSpace(typ)
	if key == "" {
		key = DefaultGroup
	}
	if i, ok := r.byKey[key]; ok {
		return r.groups[i]
	}
	name := r.cfg.Layout.Active
	if n := lookupFold(r.cfg.Layout.ByType, key); n != "" {
		name = n
	}
	preset := geometry.Resolve(name, r.overrides(name), r.overrides(geometry.ClassicPreset))
	g := &Group{
		Key:    key,
		Preset: preset,
		Mesh:   r.factory.Mesh(preset, radius, height),
	}
	r.byKey[key] = len(r.groups)
	r.groups = append(r.groups, g)
	return g
}

func (r *Registry) overrides(name string) *geometry.PresetOverrides {
	o, ok := r.cfg.Layout.Presets[name]
	if !ok {
		o, ok = r.cfg.Layout.Presets[strings.ToLower(name)]
	}
	if !ok {
		return nil
	}
	return &o
}

// lookupFold tries key as given, then lower-cased. Config maps decoded by
// viper carry lower-case keys.
func lookupFold(m map[string]string, key string) string {
	if v, ok := m[key]; ok {
		return v
	}
	return m[strings.ToLower(key)]
}

// Animating reports whether markers move without hover input.
func (r *Registry) Animating() bool {
	return len(r.hotspots) > 0 && (r.cfg.Idle.Enabled || r.cfg.Glow.Enabled)
}

// Update recomputes every marker transform from its dot's lift and the
// idle and glow animation at elapsed seconds. It returns the indices of
// hotspots whose placement changed. The slice is reused by the next call.
func (r *Registry) Update(elapsed float64) []int {
	r.moved = r.moved[:0]
	for i := range r.hotspots {
		h := &r.hotspots[i]
		h.IdleLift = IdleLift(r.cfg.Idle, h.Phase, elapsed)
		scale := GlowScale(r.cfg.Glow, h.Phase, elapsed)

		base := r.field.World(h.DotIndex)
		pos := base.Add(core.Up.Mul(h.IdleLift))
		if pos != h.Position || scale != h.Scale {
			r.moved = append(r.moved, i)
		}
		h.Position, h.Scale = pos, scale

		g := r.groups[r.byKey[h.Group]]
		g.Transforms[h.Slot] = core.Transform{Position: pos, Scale: scale}
	}
	return r.moved
}

// Len returns the number of bound hotspots.
func (r *Registry) Len() int { return len(r.hotspots) }

// Hotspot returns the hotspot at index i.
func (r *Registry) Hotspot(i int) *core.Hotspot { return &r.hotspots[i] }

// Hotspots returns the bound hotspots in registry order.
func (r *Registry) Hotspots() []core.Hotspot { return r.hotspots }

// Groups returns the mesh groups in first-appearance order.
func (r *Registry) Groups() []*Group { return r.groups }

// Lookup resolves an id, ignoring case.
func (r *Registry) Lookup(id string) (int, bool) { return r.ids.Get(id) }

// States returns the snapshot view of every hotspot.
func (r *Registry) States() []core.HotspotState {
	out := make([]core.HotspotState, len(r.hotspots))
	for i := range r.hotspots {
		h := &r.hotspots[i]
		out[i] = core.HotspotState{
			ID:       h.ID,
			Type:     h.Type,
			X:        h.Position.X,
			Y:        h.Position.Y,
			Z:        h.Position.Z,
			IdleLift: h.IdleLift,
			Scale:    h.Scale,
		}
	}
	return out
}

// Reset drops every hotspot, group and selection.
func (r *Registry) Reset() {
	r.hotspots = nil
	r.groups = nil
	r.byKey = make(map[string]int)
	r.ids.Reset()
	r.selected = -1
	r.moved = nil
}
