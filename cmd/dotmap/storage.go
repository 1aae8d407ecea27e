package main

import (
	"context"
	"fmt"

	"github.com/dotmap/dotmap/internal/config"
	"github.com/dotmap/dotmap/internal/queue"
	"github.com/dotmap/dotmap/internal/scene"
	"github.com/dotmap/dotmap/internal/storage"
	"github.com/dotmap/dotmap/internal/worker"
	"github.com/dotmap/dotmap/pkg/core"
)

func initStorage() error {
	storageCfg := config.GetStorageConfig()
	reportLeftoverDumps(storageCfg)

	backend, err := storage.NewBackend(storageCfg, storage.Dependencies{
		Logger:   Logger,
		DBLogger: DBLogger,
	})
	if err != nil {
		Logger.Error("Failed to create storage backend", "error", err)
		return err
	}
	if err := backend.Init(); err != nil {
		Logger.Error("Failed to initialize storage backend", "error", err, "type", storageCfg.Type)
		return fmt.Errorf("failed to initialize %s storage: %w", storageCfg.Type, err)
	}
	storageBackend = backend
	Logger.Info("Storage backend initialized", "type", storageCfg.Type)

	outbox = queue.New[core.FrameSnapshot](storageCfg.OutboxSize)

	deps := worker.Dependencies{
		Outbox:   outbox,
		Logger:   Logger,
		Interval: storageCfg.FlushInterval,
	}
	if influxManager != nil {
		deps.Stats = influxManager
	}
	workerManager = worker.NewManager(deps, storageBackend)
	return nil
}

func reportLeftoverDumps(cfg config.StorageConfig) {
	paths, err := storage.LeftoverDumps(cfg)
	if err != nil {
		Logger.Warn("Failed to scan for leftover database dumps", "error", err)
	}
	for _, p := range paths {
		Logger.Warn("Leftover database dump from a previous run", "path", p)
	}
}

func closeStorage() {
	if storageBackend == nil {
		return
	}
	if err := storageBackend.Close(); err != nil {
		Logger.Error("Failed to close storage backend", "error", err)
	}
	if e, ok := storageBackend.(storage.Exportable); ok && e.ExportedFilePath() != "" {
		Logger.Info("Session exported", "path", e.ExportedFilePath())
	}
}

// loadScene builds the map from config and sources, swaps it into the
// orchestrator and opens a new session. On failure the orchestrator is
// left empty.
func loadScene(ctx context.Context) error {
	endSession()

	cfg, err := scene.FromConfig()
	if err == nil {
		var s *scene.Scene
		if s, err = scene.Load(ctx, cfg, Logger); err == nil {
			if prev := orchestrator.SetScene(s); prev != nil {
				prev.Close()
			}
			startSession(s)
			return nil
		}
	}

	if prev := orchestrator.SetScene(nil); prev != nil {
		prev.Close()
	}
	return err
}

func startSession(s *scene.Scene) {
	sess := sessionCtx.Start(s.Sources, s.Field.Len(), s.Registry.Len())
	frameContext.SetSession(sess.ID)
	if err := storageBackend.StartSession(sess); err != nil {
		Logger.Error("Failed to start session in storage backend", "error", err)
		return
	}
	Logger.Info("Session started", "dots", sess.Dots, "hotspots", sess.Hotspots)
}

func endSession() {
	if sessionCtx.ID() == "" {
		return
	}
	if _, err := workerManager.Flush(); err != nil {
		Logger.Warn("Failed to flush outbox before session end", "error", err)
	}
	if err := storageBackend.EndSession(); err != nil {
		Logger.Error("Failed to end session in storage backend", "error", err)
	} else {
		uploadExport()
	}
	sess := sessionCtx.End()
	frameContext.SetSession("")
	if sess != nil {
		Logger.Info("Session ended", "session", sess.ID)
	}
}
