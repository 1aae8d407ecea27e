package gormstorage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dotmap/dotmap/internal/database"
	"github.com/dotmap/dotmap/pkg/core"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.GetSqliteDB(filepath.Join(t.TempDir(), "frames.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func snapshot(frame uint64) *core.FrameSnapshot {
	return &core.FrameSnapshot{
		Frame:      frame,
		Time:       time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Elapsed:    float64(frame) / 60,
		HoveredDot: -1,
		PeakLift:   0.5,
		Hotspots: []core.HotspotState{
			{ID: "a", Type: "office", X: 1, Y: 0.2, Z: 3, IdleLift: 0.1, Scale: 1},
		},
	}
}

func TestBackend_NoDBQueuesOnly(t *testing.T) {
	b := New(Dependencies{})
	require.NoError(t, b.Init())

	require.NoError(t, b.StartSession(&core.Session{ID: "s"}))
	require.NoError(t, b.RecordFrame(snapshot(1)))
	require.NoError(t, b.RecordFrame(snapshot(2)))
	assert.Equal(t, 2, b.Pending())

	require.NoError(t, b.EndSession())
	require.NoError(t, b.Close())
}

func TestBackend_SessionLifecycle(t *testing.T) {
	db := openDB(t)
	b := New(Dependencies{DB: db, FlushInterval: time.Hour})
	require.NoError(t, b.Init())

	s := &core.Session{ID: "session-1", StartTime: time.Now().UTC(), Sources: []string{"points.json"}, Dots: 12, Hotspots: 2}
	require.NoError(t, b.StartSession(s))

	require.NoError(t, b.RecordFrame(snapshot(30)))
	require.NoError(t, b.RecordFrame(snapshot(60)))
	assert.Equal(t, 2, b.Pending())

	require.NoError(t, b.EndSession())
	assert.Equal(t, 0, b.Pending())
	assert.Greater(t, b.GetLastDBWriteDuration(), time.Duration(0))

	var row SessionRow
	require.NoError(t, db.First(&row, "id = ?", "session-1").Error)
	assert.Equal(t, 12, row.Dots)
	assert.NotNil(t, row.EndTime)
	assert.JSONEq(t, `["points.json"]`, string(row.Sources))

	var frames []FrameRow
	require.NoError(t, db.Order("frame").Find(&frames).Error)
	require.Len(t, frames, 2)
	assert.Equal(t, "session-1", frames[0].SessionID, "session id is filled from the open session")
	assert.Equal(t, uint64(30), frames[0].Frame)

	got, err := frames[1].Snapshot()
	require.NoError(t, err)
	assert.Equal(t, uint64(60), got.Frame)
	assert.Equal(t, -1, got.HoveredDot)
	require.Len(t, got.Hotspots, 1)
	assert.Equal(t, "office", got.Hotspots[0].Type)

	require.NoError(t, b.Close())
}

func TestBackend_CloseFlushes(t *testing.T) {
	db := openDB(t)
	b := New(Dependencies{DB: db, FlushInterval: time.Hour})
	require.NoError(t, b.Init())
	require.NoError(t, b.StartSession(&core.Session{ID: "session-2"}))
	require.NoError(t, b.RecordFrame(snapshot(1)))

	require.NoError(t, b.Close())
	require.NoError(t, b.Close(), "second close is a no-op")

	var count int64
	require.NoError(t, db.Model(&FrameRow{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestFrameRow_NilHotspots(t *testing.T) {
	row, err := frameRow(&core.FrameSnapshot{Frame: 3})
	require.NoError(t, err)
	assert.Equal(t, "[]", string(row.Hotspots))

	f, err := row.Snapshot()
	require.NoError(t, err)
	assert.Empty(t, f.Hotspots)
}
