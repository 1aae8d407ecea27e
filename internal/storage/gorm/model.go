package gormstorage

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"github.com/dotmap/dotmap/pkg/core"
)

// SessionRow is one map session.
type SessionRow struct {
	ID        string `gorm:"primaryKey;size:36"`
	StartTime time.Time
	EndTime   *time.Time
	Sources   datatypes.JSON
	Dots      int
	Hotspots  int
	CreatedAt time.Time
}

func (SessionRow) TableName() string { return "sessions" }

// FrameRow is one periodic frame snapshot. Hotspot states are kept as a
// JSON column.
type FrameRow struct {
	ID          uint   `gorm:"primaryKey"`
	SessionID   string `gorm:"size:36;index:idx_frames_session_frame,priority:1"`
	Frame       uint64 `gorm:"index:idx_frames_session_frame,priority:2"`
	Time        time.Time
	Elapsed     float64
	Quiescent   bool
	HoveredDot  int
	Selected    string `gorm:"size:128"`
	LiftedDots  int
	PeakLift    float64
	ArcRebuilds int
	Hotspots    datatypes.JSON
}

func (FrameRow) TableName() string { return "frames" }

// Models lists every table the backend migrates.
var Models = []any{&SessionRow{}, &FrameRow{}}

func sessionRow(s *core.Session) (SessionRow, error) {
	sources, err := json.Marshal(s.Sources)
	if err != nil {
		return SessionRow{}, err
	}
	return SessionRow{
		ID:        s.ID,
		StartTime: s.StartTime,
		Sources:   datatypes.JSON(sources),
		Dots:      s.Dots,
		Hotspots:  s.Hotspots,
	}, nil
}

func frameRow(f *core.FrameSnapshot) (FrameRow, error) {
	hs := f.Hotspots
	if hs == nil {
		hs = []core.HotspotState{}
	}
	raw, err := json.Marshal(hs)
	if err != nil {
		return FrameRow{}, err
	}
	return FrameRow{
		SessionID:   f.SessionID,
		Frame:       f.Frame,
		Time:        f.Time,
		Elapsed:     f.Elapsed,
		Quiescent:   f.Quiescent,
		HoveredDot:  f.HoveredDot,
		Selected:    f.Selected,
		LiftedDots:  f.LiftedDots,
		PeakLift:    f.PeakLift,
		ArcRebuilds: f.ArcRebuilds,
		Hotspots:    datatypes.JSON(raw),
	}, nil
}

// Snapshot converts a row back to its core form.
func (r FrameRow) Snapshot() (core.FrameSnapshot, error) {
	f := core.FrameSnapshot{
		SessionID:   r.SessionID,
		Frame:       r.Frame,
		Time:        r.Time,
		Elapsed:     r.Elapsed,
		Quiescent:   r.Quiescent,
		HoveredDot:  r.HoveredDot,
		Selected:    r.Selected,
		LiftedDots:  r.LiftedDots,
		PeakLift:    r.PeakLift,
		ArcRebuilds: r.ArcRebuilds,
	}
	if len(r.Hotspots) > 0 {
		if err := json.Unmarshal(r.Hotspots, &f.Hotspots); err != nil {
			return f, err
		}
	}
	return f, nil
}
