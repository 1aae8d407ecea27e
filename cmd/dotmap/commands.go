package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dotmap/dotmap/internal/dispatcher"
)

func registerLifecycleHandlers(d *dispatcher.Dispatcher) {
	d.Register(":VERSION:", func(e dispatcher.Event) (any, error) {
		return []string{CurrentVersion, BuildDate}, nil
	})

	d.Register(":HELP:", func(e dispatcher.Event) (any, error) {
		return d.Commands(), nil
	})

	d.Register(":GETDIR:LOG:", func(e dispatcher.Event) (any, error) {
		return LogFilePath, nil
	})

	d.Register(":SCENE:RELOAD:", func(e dispatcher.Event) (any, error) {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := loadScene(ctx); err != nil {
			return nil, fmt.Errorf("failed to reload scene: %w", err)
		}
		return "ok", nil
	}, dispatcher.Logged())

	d.Register(":SAVE:", func(e dispatcher.Event) (any, error) {
		Logger.Info("Received :SAVE: command, flushing snapshots")
		n, err := workerManager.Flush()
		if err != nil {
			return nil, err
		}
		if OTelProvider != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := OTelProvider.Flush(ctx); err != nil {
				Logger.Warn("Failed to flush OTel data", "error", err)
			}
		}
		return n, nil
	}, dispatcher.Logged())
}

// readCommands dispatches one command per line until r is exhausted or
// ctx is done. Non-nil results are written to w.
func readCommands(ctx context.Context, r io.Reader, w io.Writer) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if ctx.Err() != nil {
			return
		}
		e, ok := dispatcher.Parse(sc.Text())
		if !ok {
			continue
		}
		res, err := eventDispatcher.Dispatch(e)
		if err != nil {
			Logger.Warn("command failed", "command", e.Command, "error", err)
			fmt.Fprintf(w, "%s error: %v\n", e.Command, err)
			continue
		}
		if res != nil {
			fmt.Fprintf(w, "%s %v\n", e.Command, res)
		}
	}
	if err := sc.Err(); err != nil {
		Logger.Error("error reading commands", "error", err)
	}
	Logger.Debug("command input closed")
}
