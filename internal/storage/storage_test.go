package storage_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotmap/dotmap/internal/config"
	"github.com/dotmap/dotmap/internal/storage"
	gormstorage "github.com/dotmap/dotmap/internal/storage/gorm"
	"github.com/dotmap/dotmap/internal/storage/memory"
	pgstorage "github.com/dotmap/dotmap/internal/storage/postgres"
	sqlitestorage "github.com/dotmap/dotmap/internal/storage/sqlite"
	wsstorage "github.com/dotmap/dotmap/internal/storage/websocket"
	"github.com/dotmap/dotmap/pkg/core"
)

// Compile-time interface checks.
var (
	_ storage.Backend               = (*memory.Backend)(nil)
	_ storage.Backend               = (*gormstorage.Backend)(nil)
	_ storage.Backend               = (*sqlitestorage.Backend)(nil)
	_ storage.Backend               = (*pgstorage.Backend)(nil)
	_ storage.Backend               = (*wsstorage.Backend)(nil)
	_ storage.Backend               = storage.Nop{}
	_ storage.Exportable            = (*memory.Backend)(nil)
	_ storage.Uploadable            = (*memory.Backend)(nil)
	_ storage.WriteDurationProvider = (*gormstorage.Backend)(nil)
	_ storage.WriteDurationProvider = (*sqlitestorage.Backend)(nil)
)

func TestNewBackend(t *testing.T) {
	tests := []struct {
		typ  string
		want any
	}{
		{"", &memory.Backend{}},
		{"memory", &memory.Backend{}},
		{"none", storage.Nop{}},
		{"NONE", storage.Nop{}},
		{"sqlite", &sqlitestorage.Backend{}},
		{"postgres", &pgstorage.Backend{}},
		{"websocket", &wsstorage.Backend{}},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			b, err := storage.NewBackend(config.StorageConfig{
				Type:   tt.typ,
				SQLite: config.SQLiteConfig{DumpPath: filepath.Join(t.TempDir(), "x.db")},
			}, storage.Dependencies{})
			require.NoError(t, err)
			assert.IsType(t, tt.want, b)
		})
	}
}

func TestNewBackend_Unknown(t *testing.T) {
	_, err := storage.NewBackend(config.StorageConfig{Type: "tape"}, storage.Dependencies{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown storage type")
}

func TestNop(t *testing.T) {
	var b storage.Backend = storage.Nop{}
	require.NoError(t, b.Init())
	require.NoError(t, b.StartSession(&core.Session{ID: "s"}))
	require.NoError(t, b.RecordFrame(&core.FrameSnapshot{Frame: 1}))
	require.NoError(t, b.EndSession())
	require.NoError(t, b.Close())
}

func TestSQLiteBackendDumps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frames.db")
	b, err := sqlitestorage.New(sqlitestorage.Config{
		DumpInterval:  time.Hour,
		DumpPath:      path,
		FlushInterval: time.Hour,
	}, nil)
	require.NoError(t, err)
	require.NoError(t, b.Init())

	require.NoError(t, b.StartSession(&core.Session{ID: "sqlite-session", StartTime: time.Now()}))
	require.NoError(t, b.RecordFrame(&core.FrameSnapshot{SessionID: "sqlite-session", Frame: 7}))
	require.NoError(t, b.EndSession())
	require.NoError(t, b.Close())

	assert.FileExists(t, path)
}

func TestLeftoverDumps(t *testing.T) {
	dumps := t.TempDir()
	fallback := filepath.Join(t.TempDir(), "pg")
	require.NoError(t, os.Mkdir(fallback, 0755))
	for _, p := range []string{
		filepath.Join(dumps, "dotmap.db"),
		filepath.Join(dumps, "old.db"),
		filepath.Join(dumps, "session.json.gz"),
		filepath.Join(fallback, "dotmap_fallback.db"),
	} {
		require.NoError(t, os.WriteFile(p, nil, 0644))
	}

	cfg := config.StorageConfig{
		SQLite:       config.SQLiteConfig{DumpPath: filepath.Join(dumps, "dotmap.db")},
		FallbackPath: filepath.Join(fallback, "dotmap_fallback.db"),
	}
	paths, err := storage.LeftoverDumps(cfg)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(dumps, "dotmap.db"),
		filepath.Join(dumps, "old.db"),
		filepath.Join(fallback, "dotmap_fallback.db"),
	}, paths)

	cfg.FallbackPath = filepath.Join(dumps, "missing", "x.db")
	cfg.SQLite.DumpPath = ""
	paths, err = storage.LeftoverDumps(cfg)
	require.NoError(t, err)
	assert.Empty(t, paths)
}
