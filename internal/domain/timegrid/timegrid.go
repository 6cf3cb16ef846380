// Package timegrid merges resolved per-channel samples, arriving at
// irregular instants, onto a uniform tick grid.
//
// A tick carries a value for a channel when the latest real sample at or
// before the tick is closer than the configured maximum gap width; the
// value is interpolated toward the next real sample, along the shortest
// arc for angular channels. Ticks before the first or after the last real
// sample of a channel are always missing: the grid never extrapolates.
package timegrid

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/okian/windward/internal/domain/telemetry"
	"github.com/okian/windward/pkg/logger"
	"github.com/okian/windward/pkg/metrics"
)

// Default grid configuration.
const (
	defaultInterval = time.Second
	defaultMaxGap   = 30 * time.Second
)

// Builder produces SyncSeries grids from resolved samples.
type Builder struct {
	interval time.Duration
	maxGap   time.Duration
	log      logger.Logger
}

// Option applies a configuration option to the Builder.
type Option func(*Builder)

// WithInterval sets the tick interval.
func WithInterval(d time.Duration) Option {
	return func(b *Builder) {
		if d > 0 {
			b.interval = d
		}
	}
}

// WithMaxGap sets the widest sample gap that still produces values.
func WithMaxGap(d time.Duration) Option {
	return func(b *Builder) {
		if d > 0 {
			b.maxGap = d
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.log = l
		}
	}
}

// New constructs a Builder.
func New(opts ...Option) *Builder {
	b := &Builder{
		interval: defaultInterval,
		maxGap:   defaultMaxGap,
		log:      logger.Get().Named("timegrid"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build spans a grid from the earliest to the latest resolved timestamp and
// fills every channel independently. Out-of-order samples are sorted here;
// earlier stages keep input order.
func (b *Builder) Build(ctx context.Context, samples map[telemetry.Channel][]telemetry.ChannelSample) (*telemetry.SyncSeries, error) {
	start, end, ok := span(samples)
	if !ok {
		return nil, ErrNoSamples
	}
	n := int(end.Sub(start)/b.interval) + 1
	series := telemetry.NewSyncSeries(start, b.interval, n)

	for c, ss := range samples {
		if len(ss) == 0 {
			continue
		}
		sorted := make([]telemetry.ChannelSample, len(ss))
		copy(sorted, ss)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Timestamp.Before(sorted[j].Timestamp)
		})
		series.SetChannel(c, b.fill(series, sorted, c.Angular()))
	}

	metrics.RecordSyncTicks(n)
	b.log.Debug(ctx, "grid built",
		logger.Time("start", start),
		logger.Time("end", end),
		logger.Int("ticks", n))
	return series, nil
}

// fill computes one channel's tick sequence from its time-sorted samples.
func (b *Builder) fill(series *telemetry.SyncSeries, sorted []telemetry.ChannelSample, angular bool) []float64 {
	vals := make([]float64, series.Len())
	j := 0 // index of the latest sample at or before the current tick
	for i := range vals {
		t := series.Time(i)
		for j+1 < len(sorted) && !sorted[j+1].Timestamp.After(t) {
			j++
		}
		vals[i] = b.valueAt(t, sorted, j, angular)
	}
	return vals
}

func (b *Builder) valueAt(t time.Time, sorted []telemetry.ChannelSample, j int, angular bool) float64 {
	prev := sorted[j]
	if t.Before(prev.Timestamp) {
		// Before the first real sample: no extrapolation.
		return math.NaN()
	}
	if t.Sub(prev.Timestamp) >= b.maxGap && !t.Equal(prev.Timestamp) {
		return math.NaN()
	}
	if j+1 >= len(sorted) {
		if t.Equal(prev.Timestamp) {
			return prev.Value
		}
		// Past the last real sample: no extrapolation.
		return math.NaN()
	}
	next := sorted[j+1]
	span := next.Timestamp.Sub(prev.Timestamp)
	if span <= 0 {
		return prev.Value
	}
	f := float64(t.Sub(prev.Timestamp)) / float64(span)
	if angular {
		return telemetry.LerpArc(prev.Value, next.Value, f)
	}
	return prev.Value + f*(next.Value-prev.Value)
}

func span(samples map[telemetry.Channel][]telemetry.ChannelSample) (start, end time.Time, ok bool) {
	for _, ss := range samples {
		for _, s := range ss {
			if !ok {
				start, end, ok = s.Timestamp, s.Timestamp, true
				continue
			}
			if s.Timestamp.Before(start) {
				start = s.Timestamp
			}
			if s.Timestamp.After(end) {
				end = s.Timestamp
			}
		}
	}
	return start, end, ok
}
