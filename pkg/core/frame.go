// pkg/core/frame.go
package core

import (
	"time"

	"github.com/golang/geo/r3"
)

// Ray is a pick ray in world space. Dir need not be normalized.
type Ray struct {
	Origin r3.Vector
	Dir    r3.Vector
}

// At returns the point at parameter t along the ray.
func (r Ray) At(t float64) r3.Vector {
	return r.Origin.Add(r.Dir.Mul(t))
}

// PointerSample is the latest externally observed pointer state.
// X and Y are in the host's pointer space; the picker turns them into a ray.
type PointerSample struct {
	X, Y           float64
	Inside         bool
	Click          bool
	ClearSelection bool
	Seq            uint64
}

// HotspotState is the persisted per-hotspot part of a snapshot.
type HotspotState struct {
	ID       string  `json:"id"`
	Type     string  `json:"type"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Z        float64 `json:"z"`
	IdleLift float64 `json:"idleLift"`
	Scale    float64 `json:"scale"`
}

// FrameSnapshot is a periodic summary of the frame state handed to storage.
type FrameSnapshot struct {
	SessionID   string         `json:"sessionId"`
	Frame       uint64         `json:"frame"`
	Time        time.Time      `json:"time"`
	Elapsed     float64        `json:"elapsed"`
	Quiescent   bool           `json:"quiescent"`
	HoveredDot  int            `json:"hoveredDot"`
	Selected    string         `json:"selected,omitempty"`
	LiftedDots  int            `json:"liftedDots"`
	PeakLift    float64        `json:"peakLift"`
	ArcRebuilds int            `json:"arcRebuilds"`
	Hotspots    []HotspotState `json:"hotspots"`
}

// Session describes one run of the map.
type Session struct {
	ID        string    `json:"id"`
	StartTime time.Time `json:"startTime"`
	Sources   []string  `json:"sources"`
	Dots      int       `json:"dots"`
	Hotspots  int       `json:"hotspots"`
}

// UploadMetadata describes an exported session file for the archive.
type UploadMetadata struct {
	SessionID string
	Sources   []string
	Dots      int
	Hotspots  int
	EndFrame  uint64
	// Duration is the elapsed seconds of the last recorded frame.
	Duration float64
}
