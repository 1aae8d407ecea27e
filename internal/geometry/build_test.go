package geometry

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotmap/dotmap/pkg/core"
)

const tol = 1e-9

func presetOf(k Kind) Preset {
	p := Defaults
	p.Kind = k
	return p
}

func TestBuild_HeightMatchesRequest(t *testing.T) {
	dims := []struct{ radius, height float64 }{
		{0.5, 1.0},
		{0.2, 3.5},
		{1.0, 0.4},
		{0.05, 0.05},
	}
	for _, k := range []Kind{KindDefault, KindCrystal, KindOrbital, KindBeacon} {
		for _, d := range dims {
			t.Run(k.String(), func(t *testing.T) {
				m := Build(presetOf(k), d.radius, d.height)
				lo, hi := m.Bounds()
				assert.InDelta(t, 0, lo.Y, tol)
				assert.InDelta(t, d.height, hi.Y, tol)
				assert.InDelta(t, d.height, m.Height(), tol)
			})
		}
	}
}

func TestBuild_ExtremeRatiosKeepHeight(t *testing.T) {
	p := Defaults
	p.DomeRatio = 5
	p.BodyHeightRatio = -1
	p.Tier1HeightRatio = 0.7
	p.Tier2HeightRatio = 0.55
	p.RingOffsetRatio = 3
	p.RingTubeScale = 10

	for _, k := range []Kind{KindDefault, KindCrystal, KindOrbital, KindBeacon} {
		p.Kind = k
		m := Build(p, 0.4, 2)
		assert.InDelta(t, 2.0, m.Height(), tol, k.String())
	}
}

func TestBuild_DegenerateDimensionsAreFloored(t *testing.T) {
	for _, k := range []Kind{KindDefault, KindCrystal, KindOrbital, KindBeacon} {
		m := Build(presetOf(k), -3, 0)
		require.NotEmpty(t, m.Positions, k.String())
		assert.InDelta(t, MinDimension, m.Height(), tol, k.String())
		for _, p := range m.Positions {
			assert.False(t, math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsNaN(p.Z))
		}
	}
}

func TestBuild_NormalsAreUnitLength(t *testing.T) {
	for _, k := range []Kind{KindDefault, KindCrystal, KindOrbital, KindBeacon} {
		m := Build(presetOf(k), 0.5, 1.5)
		require.Len(t, m.Normals, len(m.Positions))
		for _, n := range m.Normals {
			assert.InDelta(t, 1.0, n.Norm(), 1e-9)
		}
	}
}

func TestBuild_IndicesInRange(t *testing.T) {
	for _, k := range []Kind{KindDefault, KindCrystal, KindOrbital, KindBeacon} {
		m := Build(presetOf(k), 0.5, 1.5)
		require.Zero(t, len(m.Indices)%3)
		for _, i := range m.Indices {
			assert.Less(t, int(i), len(m.Positions))
		}
	}
}

func TestFrustum_NormalsPointOutward(t *testing.T) {
	m := frustum(0, 1, 1, 0.8, 16)
	ComputeNormals(m)
	for i, p := range m.Positions {
		radial := r3.Vector{X: p.X, Z: p.Z}
		assert.Greater(t, m.Normals[i].Dot(radial), 0.0)
	}
}

func TestDisk_Facing(t *testing.T) {
	up := disk(1, 1, 8, true)
	ComputeNormals(up)
	down := disk(0, 1, 8, false)
	ComputeNormals(down)
	for i := range up.Normals {
		assert.InDelta(t, 1.0, up.Normals[i].Y, 1e-9)
		assert.InDelta(t, -1.0, down.Normals[i].Y, 1e-9)
	}
}

func TestBuild_DomeCappedAtShareOfHeight(t *testing.T) {
	p := presetOf(KindDefault)
	p.DomeRatio = MaxDomeRatio
	assert.InDelta(t, 2*MaxDomeOfTotal, domeHeight(p.Clamped(), 2), tol)

	p.DomeRatio = 0.01
	assert.InDelta(t, 2*MinDomeRatio, domeHeight(p.Clamped(), 2), tol)
}

func TestBuild_OrbitalRingWiderThanCore(t *testing.T) {
	p := presetOf(KindOrbital)
	m := Build(p, 0.5, 1)
	lo, hi := m.Bounds()
	assert.Greater(t, hi.X-lo.X, 2*0.5)
}

func TestMerge_OffsetsIndices(t *testing.T) {
	a := &core.Mesh{Positions: []r3.Vector{{}, {X: 1}, {Y: 1}}, Indices: []uint32{0, 1, 2}}
	b := &core.Mesh{Positions: []r3.Vector{{Z: 1}, {X: 1, Z: 1}, {Y: 1, Z: 1}}, Indices: []uint32{0, 1, 2}}

	m := Merge(a, b)
	assert.Len(t, m.Positions, 6)
	assert.Equal(t, []uint32{0, 1, 2, 3, 4, 5}, m.Indices)
}
