// Command dotmap runs the map headless. It reads line commands such as
// ":POINTER:MOVE: 12 4" from stdin, ticks the frame loop and persists
// periodic snapshots until SIGINT or SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/attribute"

	"github.com/dotmap/dotmap/internal/api"
	"github.com/dotmap/dotmap/internal/config"
	"github.com/dotmap/dotmap/internal/dispatcher"
	"github.com/dotmap/dotmap/internal/frame"
	"github.com/dotmap/dotmap/internal/influx"
	"github.com/dotmap/dotmap/internal/input"
	"github.com/dotmap/dotmap/internal/logging"
	"github.com/dotmap/dotmap/internal/monitor"
	intOtel "github.com/dotmap/dotmap/internal/otel"
	"github.com/dotmap/dotmap/internal/queue"
	"github.com/dotmap/dotmap/internal/session"
	"github.com/dotmap/dotmap/internal/storage"
	"github.com/dotmap/dotmap/internal/worker"
	"github.com/dotmap/dotmap/pkg/core"
)

// BuildDate can be set at build time via ldflags
var (
	CurrentVersion = "0.0.1"
	BuildDate      = "unknown"

	AppName = "dotmap"
)

var (
	// SlogManager handles all slog-based logging
	SlogManager = logging.NewSlogManager()

	// Logger is the slog logger (convenience reference)
	Logger = SlogManager.Logger()

	// DBLogger feeds the database and influx layers
	DBLogger zerolog.Logger

	// OTelProvider handles OpenTelemetry
	OTelProvider *intOtel.Provider

	LogFilePath string
	logFile     io.WriteCloser

	SessionStartTime = time.Now()

	frameContext = &logging.FrameContext{}
	sessionCtx   = session.NewContext()

	// Services
	outbox          *queue.Queue[core.FrameSnapshot]
	orchestrator    *frame.Orchestrator
	eventDispatcher *dispatcher.Dispatcher
	storageBackend  storage.Backend
	workerManager   *worker.Manager
	monitorService  *monitor.Service
	influxManager   *influx.Manager
	archiveClient   *api.Client
)

func main() {
	flags := pflag.NewFlagSet(AppName, pflag.ExitOnError)
	configDir := flags.StringP("config", "c", ".", "directory holding "+config.FileName)
	statusPath := flags.String("status", "", "status file rewritten every second")
	flags.String("storage", "", "storage backend: memory, sqlite, postgres, websocket or none")
	flags.Int("fps", 0, "frame rate override")
	_ = flags.Parse(os.Args[1:])

	SlogManager.Setup(logging.Options{Level: "info"})
	Logger = SlogManager.Logger()

	if err := config.Load(*configDir); err != nil {
		Logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		Logger.Info("Loaded config", "dir", *configDir)
	}
	bindFlag("storage.type", flags.Lookup("storage"))
	bindFlag("frame.fps", flags.Lookup("fps"))

	initLogging()
	defer closeLogging()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *statusPath); err != nil {
		Logger.Error("dotmap exited with error", "error", err)
		closeLogging()
		os.Exit(1)
	}
}

func bindFlag(key string, f *pflag.Flag) {
	if f != nil && f.Changed {
		if err := viper.BindPFlag(key, f); err != nil {
			Logger.Warn("Failed to bind flag", "flag", f.Name, "error", err)
		}
	}
}

func initLogging() {
	lc := config.GetLoggingConfig()
	if err := os.MkdirAll(lc.Dir, 0755); err != nil {
		Logger.Error("Failed to create logs dir", "error", err, "path", lc.Dir)
	}
	LogFilePath = logging.LogFilePath(lc.Dir, AppName, SessionStartTime)
	rot := logging.NewRotatingFile(LogFilePath, logging.Rotation{
		MaxSizeMB:  lc.MaxSizeMB,
		MaxBackups: lc.MaxBackups,
		MaxAgeDays: lc.MaxAgeDays,
		Compress:   lc.Compress,
	})
	logFile = rot
	DBLogger = logging.NewZerolog(rot, lc.Level)

	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled {
		var err error
		OTelProvider, err = intOtel.New(intOtel.Config{
			Enabled:        otelCfg.Enabled,
			ServiceName:    otelCfg.ServiceName,
			ServiceVersion: CurrentVersion,
			BatchTimeout:   otelCfg.BatchTimeout,
			LogWriter:      rot,
			Endpoint:       otelCfg.Endpoint,
			Insecure:       otelCfg.Insecure,
			Attributes: []attribute.KeyValue{
				attribute.String("dotmap.host", AppName),
				attribute.String("dotmap.storage", config.GetStorageConfig().Type),
			},
		})
		if err != nil {
			Logger.Error("Failed to initialize OTel provider", "error", err)
			OTelProvider = nil
		}
	}

	opts := logging.Options{File: rot, Level: lc.Level, Context: frameContext}
	if OTelProvider != nil {
		opts.Provider = OTelProvider.LoggerProvider()
	}
	if lc.GraylogEnabled {
		w, err := logging.NewGELFWriter(lc.GraylogAddress, AppName)
		if err != nil {
			Logger.Error("Failed to connect to Graylog", "error", err, "address", lc.GraylogAddress)
		} else {
			opts.Graylog = w
		}
	}

	SlogManager.Setup(opts)
	Logger = SlogManager.Logger()
	slog.SetDefault(Logger)
	Logger.Info("Logging to file", "path", LogFilePath, "version", CurrentVersion, "build", BuildDate)
}

func closeLogging() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := SlogManager.Flush(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "failed to flush logs:", err)
	}
	if OTelProvider != nil {
		if err := OTelProvider.Shutdown(ctx); err != nil {
			fmt.Fprintln(os.Stderr, "failed to shut down OTel:", err)
		}
		OTelProvider = nil
	}
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}

func run(ctx context.Context, statusPath string) (err error) {
	eventDispatcher, err = dispatcher.New(Logger)
	if err != nil {
		return fmt.Errorf("failed to create dispatcher: %w", err)
	}
	defer eventDispatcher.Close()

	initInflux(ctx)
	defer closeInflux()
	initArchive(ctx)

	if err := initStorage(); err != nil {
		return err
	}
	defer closeStorage()

	frameCfg := config.GetFrameConfig()
	orchestrator, err = frame.New(frame.Config{
		FPS:           frameCfg.FPS,
		SnapshotEvery: frameCfg.SnapshotEvery,
	}, frame.Dependencies{
		Outbox:     outbox,
		Session:    sessionCtx,
		LogContext: frameContext,
		Logger:     Logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create frame orchestrator: %w", err)
	}

	monitorService = monitor.NewService(monitor.Dependencies{
		Frames:     orchestrator,
		Writer:     workerManager,
		Session:    sessionCtx,
		Logger:     Logger,
		StatusPath: statusPath,
	})

	input.NewService(orchestrator.Mailbox(), Logger).RegisterHandlers(eventDispatcher)
	workerManager.RegisterHandlers(eventDispatcher)
	monitorService.RegisterHandlers(eventDispatcher)
	registerLifecycleHandlers(eventDispatcher)
	registerArchiveHandlers(eventDispatcher)

	if err := loadScene(ctx); err != nil {
		Logger.Error("Map not loaded, waiting for :SCENE:RELOAD:", "error", err)
	}

	if err := orchestrator.Start(ctx); err != nil {
		return err
	}
	workerManager.Start(ctx)
	if err := monitorService.Start(); err != nil {
		Logger.Warn("Status monitor not started", "error", err)
	}

	go readCommands(ctx, os.Stdin, os.Stdout)

	<-ctx.Done()
	Logger.Info("Shutting down")

	monitorService.Stop()
	orchestrator.Close()
	workerManager.Stop()
	endSession()
	return nil
}

func initInflux(ctx context.Context) {
	lc := config.GetLoggingConfig()
	influxManager = influx.NewManager(config.GetInfluxConfig(), DBLogger,
		filepath.Join(lc.Dir, fmt.Sprintf("%s_influx_%s.lp.gz", AppName, SessionStartTime.Format("20060102_150405"))))

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := influxManager.Connect(connectCtx); err != nil {
		if !errors.Is(err, influx.ErrDisabled) {
			Logger.Error("Failed to set up InfluxDB", "error", err)
		}
		influxManager = nil
	}
}

func closeInflux() {
	if influxManager == nil {
		return
	}
	if err := influxManager.Close(); err != nil {
		Logger.Warn("Failed to close InfluxDB", "error", err)
	}
}
