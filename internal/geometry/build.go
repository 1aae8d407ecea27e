package geometry

import (
	"math"

	"github.com/dotmap/dotmap/pkg/core"
)

const domeRings = 6

// Build produces the closed marker solid for a resolved preset. radius is
// the base radius and height the total assembled height; both are floored
// before construction. The base sits at y=0 and the top at y=height.
func Build(p Preset, radius, height float64) *core.Mesh {
	p = p.Clamped()
	radius = floorDim(radius)
	height = floorDim(height)

	var m *core.Mesh
	switch p.Kind {
	case KindCrystal:
		m = buildCrystal(p, radius, height)
	case KindOrbital:
		m = buildOrbital(p, radius, height)
	case KindBeacon:
		m = buildBeacon(p, radius, height)
	default:
		m = buildDomed(p, radius, height)
	}
	ComputeNormals(m)
	return m
}

// domeHeight clamps the configured ratio, then caps at MaxDomeOfTotal.
func domeHeight(p Preset, height float64) float64 {
	h := height * clamp(p.DomeRatio, MinDomeRatio, MaxDomeRatio)
	return math.Min(h, height*MaxDomeOfTotal)
}

func buildDomed(p Preset, radius, height float64) *core.Mesh {
	segs := p.RadialSegments
	bottomR := floorDim(radius * p.BottomRadiusScale)
	topR := floorDim(radius * p.TopRadiusScale)

	dome := domeHeight(p, height)
	body := height - dome

	return Merge(
		disk(0, bottomR, segs, false),
		frustum(0, body, bottomR, topR, segs),
		disk(body, topR, segs, true),
		sphereCap(body, topR, dome, segs, domeRings),
	)
}

func buildCrystal(p Preset, radius, height float64) *core.Mesh {
	segs := p.RadialSegments
	bottomR := floorDim(radius * p.BottomRadiusScale)
	topR := floorDim(radius * p.TopRadiusScale)
	tipR := floorDim(topR * p.TipRadiusScale)

	body := height * clamp(p.BodyHeightRatio, MinBodyRatio, MaxBodyRatio)

	return Merge(
		disk(0, bottomR, segs, false),
		frustum(0, body, bottomR, topR, segs),
		disk(body, topR, segs, true),
		disk(body, tipR, segs, false),
		cone(body, height, tipR, segs),
	)
}

func buildOrbital(p Preset, radius, height float64) *core.Mesh {
	segs := p.RadialSegments
	body := buildDomed(p, radius, height)

	tube := floorDim(radius * p.RingTubeScale)
	tube = math.Min(tube, height/4)
	major := floorDim(radius * p.RingRadiusScale)
	if major <= tube {
		major = tube * 2
	}
	// keep the ring inside the core's vertical extent
	y := clamp(height*p.RingOffsetRatio, tube, height-tube)

	return Merge(body, torus(y, major, tube, segs/2+3, segs*2))
}

func buildBeacon(p Preset, radius, height float64) *core.Mesh {
	segs := p.RadialSegments
	h1 := height * p.Tier1HeightRatio
	h2 := height * p.Tier2HeightRatio

	r0 := floorDim(radius * p.BottomRadiusScale)
	r1 := floorDim(radius * p.Tier1TopScale)
	r2 := floorDim(radius * p.Tier2BottomScale)
	r2t := floorDim(radius * p.Tier2TopScale)
	rt := floorDim(radius * p.BeaconTipScale)

	y1 := h1
	y2 := h1 + h2

	return Merge(
		disk(0, r0, segs, false),
		frustum(0, y1, r0, r1, segs),
		disk(y1, r1, segs, true),
		disk(y1, r2, segs, false),
		frustum(y1, y2, r2, r2t, segs),
		disk(y2, r2t, segs, true),
		disk(y2, rt, segs, false),
		cone(y2, height, rt, segs),
	)
}
