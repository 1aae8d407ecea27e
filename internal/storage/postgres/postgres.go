// Package postgres implements the storage.Backend interface on PostgreSQL
// through the shared GORM backend. When Postgres is unreachable it falls
// back to an in-memory SQLite database dumped to a local file.
package postgres

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/rs/zerolog"

	"github.com/dotmap/dotmap/internal/database"
	gormstorage "github.com/dotmap/dotmap/internal/storage/gorm"
	"github.com/dotmap/dotmap/pkg/core"
)

// Config holds configuration for the Postgres backend.
type Config struct {
	FlushInterval time.Duration
	// FallbackPath is where the SQLite fallback is written on EndSession
	// and Close.
	FallbackPath string
}

// Backend wraps the GORM backend and owns the database manager.
type Backend struct {
	*gormstorage.Backend
	cfg Config
	mgr *database.Manager
	log *slog.Logger
}

// New creates a new Postgres storage backend. The connection is made in Init.
func New(cfg Config, dbLog zerolog.Logger, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		cfg: cfg,
		mgr: database.NewManager(dbLog),
		log: logger,
	}
}

// Init connects, then initializes the embedded GORM backend.
func (b *Backend) Init() error {
	if err := b.mgr.Connect(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	b.mgr.SqliteFilePath = b.cfg.FallbackPath
	if b.mgr.ShouldSaveLocal {
		b.log.Warn("postgres unavailable, recording to local sqlite", "path", b.cfg.FallbackPath)
	}

	b.Backend = gormstorage.New(gormstorage.Dependencies{
		DB:            b.mgr.DB,
		Logger:        b.log,
		FlushInterval: b.cfg.FlushInterval,
	})
	return b.Backend.Init()
}

// Local reports whether the backend fell back to SQLite.
func (b *Backend) Local() bool { return b.mgr.ShouldSaveLocal }

// StartSession delegates to the GORM backend.
func (b *Backend) StartSession(s *core.Session) error {
	if b.Backend == nil {
		return fmt.Errorf("postgres backend not initialized")
	}
	return b.Backend.StartSession(s)
}

// EndSession flushes and, in fallback mode, dumps the local copy.
func (b *Backend) EndSession() error {
	if b.Backend == nil {
		return nil
	}
	if err := b.Backend.EndSession(); err != nil {
		return err
	}
	return b.dumpLocal()
}

// Close stops the writer and closes the connection.
func (b *Backend) Close() error {
	if b.Backend == nil {
		return nil
	}
	if err := b.Backend.Close(); err != nil {
		return err
	}
	if err := b.dumpLocal(); err != nil {
		b.log.Error("failed to dump local database", "error", err)
	}
	if b.mgr.SqlDB != nil {
		return b.mgr.SqlDB.Close()
	}
	return nil
}

func (b *Backend) dumpLocal() error {
	if !b.mgr.ShouldSaveLocal || b.cfg.FallbackPath == "" {
		return nil
	}
	return b.mgr.DumpMemoryToDisk()
}
