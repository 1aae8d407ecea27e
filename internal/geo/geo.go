package geo

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/paulmach/orb"
	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"
)

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

const (
	// mercatorExtent is half the width of the EPSG:3857 world square, in metres.
	mercatorExtent = 20037508.342789244
	// mercatorMaxLat is the latitude at which the EPSG:3857 square ends.
	mercatorMaxLat = 85.05112878
)

// Mode selects how geographic coordinates are flattened onto the grid.
type Mode int

const (
	Equirectangular Mode = iota
	Mercator
)

func (m Mode) String() string {
	if m == Mercator {
		return "mercator"
	}
	return "equirectangular"
}

// ParseMode maps a config value to a Mode. Empty selects Equirectangular.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "equirectangular", "plate-carree":
		return Equirectangular, nil
	case "mercator", "webmercator", "3857":
		return Mercator, nil
	}
	return Equirectangular, fmt.Errorf("unknown projection %q", s)
}

// Validate rejects NaN and out of range coordinates.
func Validate(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return ErrInvalidCoordinates
	}
	return nil
}

// Coords3857From4326 converts a longitude and latitude to a web mercator point
func Coords3857From4326(longitude, latitude float64) (geom.Point, error) {
	f := wgs84.EPSG().Transform(4326, 3857)
	x, y, _ := f(longitude, latitude, 0)
	pt, err := geom.NewPoint(geom.Coordinates{
		XY:   geom.XY{X: x, Y: y},
		Type: geom.DimXY,
	})
	if err != nil {
		return geom.Point{}, fmt.Errorf("%w: %v", ErrInvalidCoordinates, err)
	}
	return pt, nil
}

// Projector places lat/lon on the dot grid. Grid y grows southward, so
// the north edge of the world maps to grid.Min[1].
type Projector struct {
	mode Mode
	grid orb.Bound
}

// NewProjector returns a projector onto the given grid extent.
func NewProjector(mode Mode, grid orb.Bound) *Projector {
	return &Projector{mode: mode, grid: grid}
}

// GridBound returns the extent of a width x height grid, or fallback when
// either dimension is not positive.
func GridBound(width, height float64, fallback orb.Bound) orb.Bound {
	if width <= 0 || height <= 0 {
		return fallback
	}
	return orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{width, height}}
}

// Mode returns the projection mode.
func (p *Projector) Mode() Mode { return p.mode }

// Project returns grid coordinates for lat/lon.
func (p *Projector) Project(lat, lon float64) (x, y float64, err error) {
	if err := Validate(lat, lon); err != nil {
		return 0, 0, err
	}
	var u, v float64
	switch p.mode {
	case Mercator:
		lat = math.Max(-mercatorMaxLat, math.Min(mercatorMaxLat, lat))
		pt, err := Coords3857From4326(lon, lat)
		if err != nil {
			return 0, 0, err
		}
		xy, ok := pt.XY()
		if !ok {
			return 0, 0, ErrInvalidCoordinates
		}
		u = (xy.X + mercatorExtent) / (2 * mercatorExtent)
		v = (mercatorExtent - xy.Y) / (2 * mercatorExtent)
	default:
		u = (lon + 180) / 360
		v = (90 - lat) / 180
	}
	x = p.grid.Min[0] + u*(p.grid.Max[0]-p.grid.Min[0])
	y = p.grid.Min[1] + v*(p.grid.Max[1]-p.grid.Min[1])
	return x, y, nil
}
