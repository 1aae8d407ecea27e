package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dotmap/dotmap/internal/config"
	"github.com/dotmap/dotmap/internal/database"
	"github.com/dotmap/dotmap/internal/storage/memory"
	pgstorage "github.com/dotmap/dotmap/internal/storage/postgres"
	sqlitestorage "github.com/dotmap/dotmap/internal/storage/sqlite"
	wsstorage "github.com/dotmap/dotmap/internal/storage/websocket"
)

// Dependencies are the loggers handed to backends.
type Dependencies struct {
	Logger *slog.Logger
	// DBLogger feeds the database manager.
	DBLogger zerolog.Logger
}

// NewBackend creates a storage backend based on configuration. The
// backend is not initialized.
func NewBackend(cfg config.StorageConfig, deps Dependencies) (Backend, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	switch strings.ToLower(cfg.Type) {
	case "", "memory":
		return memory.New(cfg.Memory), nil
	case "none":
		return Nop{}, nil
	case "sqlite":
		b, err := sqlitestorage.New(sqlitestorage.Config{
			DumpInterval:  cfg.SQLite.DumpInterval,
			DumpPath:      cfg.SQLite.DumpPath,
			FlushInterval: cfg.FlushInterval,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite backend: %w", err)
		}
		return b, nil
	case "postgres":
		return pgstorage.New(pgstorage.Config{
			FlushInterval: cfg.FlushInterval,
			FallbackPath:  cfg.FallbackPath,
		}, deps.DBLogger, logger), nil
	case "websocket":
		return wsstorage.New(wsstorage.Config{
			URL:    cfg.WebSocket.URL,
			Secret: cfg.WebSocket.Secret,
			Buffer: cfg.OutboxSize,
		}, logger), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

// LeftoverDumps lists .db files in the directories the sqlite and postgres
// backends dump into. They are left behind by earlier runs. Missing
// directories are skipped.
func LeftoverDumps(cfg config.StorageConfig) ([]string, error) {
	var dirs []string
	for _, p := range []string{cfg.SQLite.DumpPath, cfg.FallbackPath} {
		if p == "" {
			continue
		}
		if dir := filepath.Dir(p); !slices.Contains(dirs, dir) {
			dirs = append(dirs, dir)
		}
	}

	var found []string
	for _, dir := range dirs {
		paths, err := database.GetBackupDBPaths(dir)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return found, fmt.Errorf("scan %s: %w", dir, err)
		}
		found = append(found, paths...)
	}
	return found, nil
}
