package frame

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"

	intOtel "github.com/dotmap/dotmap/internal/otel"
)

type instruments struct {
	ticks       metric.Int64Counter
	skipped     metric.Int64Counter
	arcRebuilds metric.Int64Counter
	snapshots   metric.Int64Counter
	duration    metric.Float64Histogram
}

func newInstruments() (*instruments, error) {
	m := intOtel.Meter("frame")
	var (
		in  instruments
		err error
	)
	if in.ticks, err = m.Int64Counter("frame.ticks",
		metric.WithDescription("Frames ticked")); err != nil {
		return nil, fmt.Errorf("creating ticks counter: %w", err)
	}
	if in.skipped, err = m.Int64Counter("frame.ticks.skipped",
		metric.WithDescription("Frames with nothing to animate")); err != nil {
		return nil, fmt.Errorf("creating skipped counter: %w", err)
	}
	if in.arcRebuilds, err = m.Int64Counter("frame.arc.rebuilds",
		metric.WithDescription("Connection arcs rebuilt")); err != nil {
		return nil, fmt.Errorf("creating arc rebuild counter: %w", err)
	}
	if in.snapshots, err = m.Int64Counter("frame.snapshots",
		metric.WithDescription("Snapshots handed to storage")); err != nil {
		return nil, fmt.Errorf("creating snapshot counter: %w", err)
	}
	if in.duration, err = m.Float64Histogram("frame.tick.duration",
		metric.WithDescription("Tick duration"),
		metric.WithUnit("ms")); err != nil {
		return nil, fmt.Errorf("creating tick duration histogram: %w", err)
	}
	return &in, nil
}
