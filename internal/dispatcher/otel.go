package dispatcher

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	intOtel "github.com/dotmap/dotmap/internal/otel"
)

// counters tracks dispatched commands by name.
type counters struct {
	processed metric.Int64Counter
	dropped   metric.Int64Counter
}

// newCounters creates the command counters and a gauge reporting the
// backlog of every buffered handler.
func newCounters(backlog func() map[string]int) (*counters, error) {
	m := intOtel.Meter("dispatcher")

	gauge, err := m.Int64ObservableGauge("dispatcher.queue.size",
		metric.WithDescription("Commands waiting in buffered handlers"))
	if err != nil {
		return nil, fmt.Errorf("creating queue size gauge: %w", err)
	}
	if _, err := m.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		for cmd, n := range backlog() {
			o.ObserveInt64(gauge, int64(n), metric.WithAttributes(attribute.String("command", cmd)))
		}
		return nil
	}, gauge); err != nil {
		return nil, fmt.Errorf("registering queue callback: %w", err)
	}

	processed, err := m.Int64Counter("dispatcher.events.processed",
		metric.WithDescription("Commands handled"))
	if err != nil {
		return nil, fmt.Errorf("creating processed counter: %w", err)
	}
	dropped, err := m.Int64Counter("dispatcher.events.dropped",
		metric.WithDescription("Commands dropped on a full buffer"))
	if err != nil {
		return nil, fmt.Errorf("creating dropped counter: %w", err)
	}
	return &counters{processed: processed, dropped: dropped}, nil
}

func (c *counters) handled(cmd string) {
	c.processed.Add(context.Background(), 1, metric.WithAttributes(attribute.String("command", cmd)))
}

func (c *counters) drop(cmd string) {
	c.dropped.Add(context.Background(), 1, metric.WithAttributes(attribute.String("command", cmd)))
}
