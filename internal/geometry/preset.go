package geometry

import "math"

// ClassicPreset is the base preset every other preset falls back to.
const ClassicPreset = "classic"

// Bounds applied to resolved ratios.
const (
	MinDimension = 0.01

	MinDomeRatio   = 0.08
	MaxDomeRatio   = 0.70
	MaxDomeOfTotal = 0.45

	MinBodyRatio = 0.35
	MaxBodyRatio = 0.82

	MinTier1Ratio = 0.20
	MaxTier1Ratio = 0.70
	MinTier2Ratio = 0.15
	MaxTier2Ratio = 0.55

	// the beacon tip keeps at least this share of the total height
	minBeaconTip = 0.05

	minRadialSegments = 3
	maxRadialSegments = 128
)

// MaterialHints are renderer hints carried by a preset. Geometry ignores them.
type MaterialHints struct {
	Color     string  `json:"color"`
	Emissive  string  `json:"emissive"`
	Metalness float64 `json:"metalness"`
	Roughness float64 `json:"roughness"`
}

// Preset is a fully resolved set of shape parameters.
type Preset struct {
	Name string
	Kind Kind

	DomeRatio         float64
	TopRadiusScale    float64
	BottomRadiusScale float64

	BodyHeightRatio float64
	TipRadiusScale  float64

	RingRadiusScale float64
	RingTubeScale   float64
	RingOffsetRatio float64

	Tier1HeightRatio float64
	Tier2HeightRatio float64
	Tier1TopScale    float64
	Tier2BottomScale float64
	Tier2TopScale    float64
	BeaconTipScale   float64

	RadialSegments int

	Material MaterialHints
}

// PresetOverrides is a partially specified preset as found in configuration.
// Nil fields defer to the next layer.
type PresetOverrides struct {
	Shape *string `mapstructure:"shape"`

	DomeRatio         *float64 `mapstructure:"domeRatio"`
	TopRadiusScale    *float64 `mapstructure:"topRadiusScale"`
	BottomRadiusScale *float64 `mapstructure:"bottomRadiusScale"`

	BodyHeightRatio *float64 `mapstructure:"bodyHeightRatio"`
	TipRadiusScale  *float64 `mapstructure:"tipRadiusScale"`

	RingRadiusScale *float64 `mapstructure:"ringRadiusScale"`
	RingTubeScale   *float64 `mapstructure:"ringTubeScale"`
	RingOffsetRatio *float64 `mapstructure:"ringOffsetRatio"`

	Tier1HeightRatio *float64 `mapstructure:"tier1HeightRatio"`
	Tier2HeightRatio *float64 `mapstructure:"tier2HeightRatio"`
	Tier1TopScale    *float64 `mapstructure:"tier1TopScale"`
	Tier2BottomScale *float64 `mapstructure:"tier2BottomScale"`
	Tier2TopScale    *float64 `mapstructure:"tier2TopScale"`
	BeaconTipScale   *float64 `mapstructure:"beaconTipScale"`

	RadialSegments *int `mapstructure:"radialSegments"`

	Color     *string  `mapstructure:"color"`
	Emissive  *string  `mapstructure:"emissive"`
	Metalness *float64 `mapstructure:"metalness"`
	Roughness *float64 `mapstructure:"roughness"`
}

// Defaults is the hard-coded last layer of the lookup.
var Defaults = Preset{
	Name:              ClassicPreset,
	Kind:              KindDefault,
	DomeRatio:         0.35,
	TopRadiusScale:    0.85,
	BottomRadiusScale: 1.0,
	BodyHeightRatio:   0.64,
	TipRadiusScale:    1.0,
	RingRadiusScale:   1.7,
	RingTubeScale:     0.12,
	RingOffsetRatio:   0.45,
	Tier1HeightRatio:  0.45,
	Tier2HeightRatio:  0.30,
	Tier1TopScale:     0.8,
	Tier2BottomScale:  0.65,
	Tier2TopScale:     0.5,
	BeaconTipScale:    0.4,
	RadialSegments:    16,
	Material: MaterialHints{
		Color:     "#ffb347",
		Emissive:  "#331a00",
		Metalness: 0.1,
		Roughness: 0.55,
	},
}

// pick returns the first non-nil layer value, or fallback.
func pick[T any](fallback T, layers ...*T) T {
	for _, l := range layers {
		if l != nil {
			return *l
		}
	}
	return fallback
}

// Resolve builds a preset in one fixed order: active overrides, then the
// classic overrides, then Defaults. Either layer may be nil. The result is
// clamped to the documented bounds.
func Resolve(name string, active, classic *PresetOverrides) Preset {
	if active == nil {
		active = &PresetOverrides{}
	}
	if classic == nil {
		classic = &PresetOverrides{}
	}
	d := Defaults

	p := Preset{Name: name}
	if p.Name == "" {
		p.Name = ClassicPreset
	}

	p.Kind = d.Kind
	for _, s := range []*string{active.Shape, classic.Shape} {
		if s == nil {
			continue
		}
		if k, ok := ParseKind(*s); ok {
			p.Kind = k
			break
		}
	}

	p.DomeRatio = pick(d.DomeRatio, active.DomeRatio, classic.DomeRatio)
	p.TopRadiusScale = pick(d.TopRadiusScale, active.TopRadiusScale, classic.TopRadiusScale)
	p.BottomRadiusScale = pick(d.BottomRadiusScale, active.BottomRadiusScale, classic.BottomRadiusScale)
	p.BodyHeightRatio = pick(d.BodyHeightRatio, active.BodyHeightRatio, classic.BodyHeightRatio)
	p.TipRadiusScale = pick(d.TipRadiusScale, active.TipRadiusScale, classic.TipRadiusScale)
	p.RingRadiusScale = pick(d.RingRadiusScale, active.RingRadiusScale, classic.RingRadiusScale)
	p.RingTubeScale = pick(d.RingTubeScale, active.RingTubeScale, classic.RingTubeScale)
	p.RingOffsetRatio = pick(d.RingOffsetRatio, active.RingOffsetRatio, classic.RingOffsetRatio)
	p.Tier1HeightRatio = pick(d.Tier1HeightRatio, active.Tier1HeightRatio, classic.Tier1HeightRatio)
	p.Tier2HeightRatio = pick(d.Tier2HeightRatio, active.Tier2HeightRatio, classic.Tier2HeightRatio)
	p.Tier1TopScale = pick(d.Tier1TopScale, active.Tier1TopScale, classic.Tier1TopScale)
	p.Tier2BottomScale = pick(d.Tier2BottomScale, active.Tier2BottomScale, classic.Tier2BottomScale)
	p.Tier2TopScale = pick(d.Tier2TopScale, active.Tier2TopScale, classic.Tier2TopScale)
	p.BeaconTipScale = pick(d.BeaconTipScale, active.BeaconTipScale, classic.BeaconTipScale)
	p.RadialSegments = pick(d.RadialSegments, active.RadialSegments, classic.RadialSegments)

	p.Material = MaterialHints{
		Color:     pick(d.Material.Color, active.Color, classic.Color),
		Emissive:  pick(d.Material.Emissive, active.Emissive, classic.Emissive),
		Metalness: pick(d.Material.Metalness, active.Metalness, classic.Metalness),
		Roughness: pick(d.Material.Roughness, active.Roughness, classic.Roughness),
	}

	return p.Clamped()
}

// Clamped returns a copy with every ratio inside its bounds and every scale
// at or above the hard floor.
func (p Preset) Clamped() Preset {
	p.DomeRatio = clamp(p.DomeRatio, MinDomeRatio, MaxDomeRatio)
	p.BodyHeightRatio = clamp(p.BodyHeightRatio, MinBodyRatio, MaxBodyRatio)
	p.Tier1HeightRatio = clamp(p.Tier1HeightRatio, MinTier1Ratio, MaxTier1Ratio)
	p.Tier2HeightRatio = clamp(p.Tier2HeightRatio, MinTier2Ratio, MaxTier2Ratio)

	// tiers must leave room for the tip; shrink both proportionally
	if sum := p.Tier1HeightRatio + p.Tier2HeightRatio; sum > 1-minBeaconTip {
		f := (1 - minBeaconTip) / sum
		p.Tier1HeightRatio = clamp(p.Tier1HeightRatio*f, MinTier1Ratio, MaxTier1Ratio)
		p.Tier2HeightRatio = clamp(p.Tier2HeightRatio*f, MinTier2Ratio, MaxTier2Ratio)
	}

	p.RingOffsetRatio = clamp(p.RingOffsetRatio, 0, 1)

	for _, s := range []*float64{
		&p.TopRadiusScale, &p.BottomRadiusScale, &p.TipRadiusScale,
		&p.RingRadiusScale, &p.RingTubeScale,
		&p.Tier1TopScale, &p.Tier2BottomScale, &p.Tier2TopScale, &p.BeaconTipScale,
	} {
		*s = floorDim(*s)
	}

	if p.RadialSegments < minRadialSegments {
		p.RadialSegments = minRadialSegments
	}
	if p.RadialSegments > maxRadialSegments {
		p.RadialSegments = maxRadialSegments
	}
	return p
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

// floorDim enforces the hard minimum for any radius or height.
func floorDim(v float64) float64 {
	if math.IsNaN(v) || v < MinDimension {
		return MinDimension
	}
	return v
}
