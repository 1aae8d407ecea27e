package main

import (
	"context"
	"time"

	"github.com/dotmap/dotmap/internal/api"
	"github.com/dotmap/dotmap/internal/config"
	"github.com/dotmap/dotmap/internal/dispatcher"
	"github.com/dotmap/dotmap/internal/storage"
)

func initArchive(ctx context.Context) {
	ac := config.GetArchiveConfig()
	if !ac.Enabled {
		return
	}
	archiveClient = api.New(ac.URL, ac.APIKey, ac.Timeout)

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := archiveClient.Healthcheck(checkCtx); err != nil {
		Logger.Warn("Session archive not reachable", "url", ac.URL, "error", err)
		return
	}
	Logger.Info("Session archive reachable", "url", ac.URL)
}

// uploadExport sends the backend's last export to the archive, if both
// exist.
func uploadExport() {
	if archiveClient == nil {
		return
	}
	u, ok := storageBackend.(storage.Uploadable)
	if !ok || u.ExportedFilePath() == "" {
		return
	}
	path, meta := u.ExportedFilePath(), u.GetExportMetadata()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := archiveClient.Upload(ctx, path, meta); err != nil {
		Logger.Error("Failed to upload session", "path", path, "error", err)
		return
	}
	Logger.Info("Session uploaded", "path", path, "session", meta.SessionID, "frames", meta.EndFrame)
}

func registerArchiveHandlers(d *dispatcher.Dispatcher) {
	d.Register(":ARCHIVE:CHECK:", func(e dispatcher.Event) (any, error) {
		if archiveClient == nil {
			return "disabled", nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := archiveClient.Healthcheck(ctx); err != nil {
			return nil, err
		}
		return "ok", nil
	})
}
