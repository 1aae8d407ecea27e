// pkg/core/connection.go
package core

// ArcStyle is the resolved appearance of a connection arc.
type ArcStyle struct {
	Color          string  `json:"color"`
	Opacity        float64 `json:"opacity"`
	ArcHeight      float64 `json:"arcHeight"`
	Segments       int     `json:"segments"`
	Thickness      float64 `json:"thickness"`
	HeightOffset   float64 `json:"heightOffset"`
	RadialSegments int     `json:"radialSegments"`
}

// ConnectionPair links two hotspots by id. Nil style fields fall back
// to the base style.
type ConnectionPair struct {
	FromID string `json:"fromId" mapstructure:"fromId"`
	ToID   string `json:"toId" mapstructure:"toId"`

	Color        *string  `json:"color,omitempty" mapstructure:"color"`
	Opacity      *float64 `json:"opacity,omitempty" mapstructure:"opacity"`
	ArcHeight    *float64 `json:"arcHeight,omitempty" mapstructure:"arcHeight"`
	Segments     *int     `json:"segments,omitempty" mapstructure:"segments"`
	Thickness    *float64 `json:"thickness,omitempty" mapstructure:"thickness"`
	HeightOffset *float64 `json:"heightOffset,omitempty" mapstructure:"heightOffset"`
}

// Style merges the pair overrides over base. Pair values win when set.
func (p ConnectionPair) Style(base ArcStyle) ArcStyle {
	s := base
	if p.Color != nil {
		s.Color = *p.Color
	}
	if p.Opacity != nil {
		s.Opacity = *p.Opacity
	}
	if p.ArcHeight != nil {
		s.ArcHeight = *p.ArcHeight
	}
	if p.Segments != nil {
		s.Segments = *p.Segments
	}
	if p.Thickness != nil {
		s.Thickness = *p.Thickness
	}
	if p.HeightOffset != nil {
		s.HeightOffset = *p.HeightOffset
	}
	return s
}
