// Package smooth applies a Savitzky-Golay local-polynomial filter to the
// tick grid, suppressing sensor noise without phase-shifting the signal.
//
// Missing ticks split a channel into independent runs: the filter restarts
// after each gap instead of smoothing across it, and a run shorter than the
// filter window passes through unmodified. Angular channels are unwrapped
// into a continuous representation before filtering and re-wrapped after.
// The grid's length and missing-value markers are preserved exactly.
package smooth

import (
	"context"
	"math"

	"github.com/okian/windward/internal/domain/telemetry"
	"github.com/okian/windward/pkg/logger"
)

// Default filter configuration, matching a 7-point cubic fit.
const (
	defaultWindow = 7
	defaultOrder  = 3
)

// Filter smooths SyncSeries channels in place.
type Filter struct {
	window  int
	order   int
	weights [][]float64 // weights[offset] estimates the value at that window position
	skip    map[telemetry.Channel]bool
	log     logger.Logger
}

// Option applies a configuration option to the Filter.
type Option func(*Filter)

// WithWindow sets the filter window length. Must be odd and larger than
// the polynomial order; invalid values keep the default.
func WithWindow(w int) Option {
	return func(f *Filter) {
		if w > 2 && w%2 == 1 {
			f.window = w
		}
	}
}

// WithOrder sets the polynomial order.
func WithOrder(o int) Option {
	return func(f *Filter) {
		if o >= 1 {
			f.order = o
		}
	}
}

// WithSkipChannels excludes channels from smoothing. Position channels are
// skipped by default so leg distances are computed from raw fixes.
func WithSkipChannels(cs ...telemetry.Channel) Option {
	return func(f *Filter) {
		for _, c := range cs {
			f.skip[c] = true
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(f *Filter) {
		if l != nil {
			f.log = l
		}
	}
}

// New constructs a Filter. When the configured window does not exceed the
// order it falls back to the defaults.
func New(opts ...Option) *Filter {
	f := &Filter{
		window: defaultWindow,
		order:  defaultOrder,
		skip: map[telemetry.Channel]bool{
			telemetry.ChannelLatitude:  true,
			telemetry.ChannelLongitude: true,
			telemetry.ChannelVariation: true,
		},
		log: logger.Get().Named("smooth"),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.window <= f.order {
		f.window, f.order = defaultWindow, defaultOrder
	}
	f.weights = make([][]float64, f.window)
	for off := 0; off < f.window; off++ {
		f.weights[off] = savgolWeights(f.window, f.order, off)
	}
	return f
}

// Apply smooths every eligible channel of the series in place.
func (f *Filter) Apply(ctx context.Context, series *telemetry.SyncSeries) {
	for c, vals := range series.Values {
		if f.skip[c] {
			continue
		}
		f.applyChannel(vals, c.Angular())
	}
	f.log.Debug(ctx, "series smoothed",
		logger.Int("window", f.window),
		logger.Int("order", f.order))
}

// applyChannel smooths each run of present ticks independently.
func (f *Filter) applyChannel(vals []float64, angular bool) {
	i := 0
	for i < len(vals) {
		if math.IsNaN(vals[i]) {
			i++
			continue
		}
		j := i
		for j < len(vals) && !math.IsNaN(vals[j]) {
			j++
		}
		f.applyRun(vals[i:j], angular)
		i = j
	}
}

func (f *Filter) applyRun(run []float64, angular bool) {
	if len(run) < f.window {
		return
	}
	if angular {
		unwrap(run)
	}
	out := make([]float64, len(run))
	half := f.window / 2
	for i := range run {
		var off, base int
		switch {
		case i < half:
			// Head: fit the first window, evaluate at position i.
			off, base = i, 0
		case i >= len(run)-half:
			// Tail: fit the last window.
			off, base = f.window-(len(run)-i), len(run)-f.window
		default:
			off, base = half, i-half
		}
		var sum float64
		for k, w := range f.weights[off] {
			sum += w * run[base+k]
		}
		out[i] = sum
	}
	for i := range run {
		run[i] = out[i]
		if angular {
			run[i] = telemetry.Wrap360(run[i])
		}
	}
}

// unwrap converts a wrapped angle run into a continuous representation by
// removing 360-degree jumps between neighbors.
func unwrap(run []float64) {
	offset := 0.0
	prev := run[0]
	for i := 1; i < len(run); i++ {
		raw := run[i]
		d := raw + offset - prev
		for d >= 180 {
			offset -= 360
			d -= 360
		}
		for d < -180 {
			offset += 360
			d += 360
		}
		run[i] = raw + offset
		prev = run[i]
	}
}

// savgolWeights computes the least-squares polynomial weights estimating
// the value at window position off: row zero of (AᵀA)⁻¹Aᵀ with
// A[i][k] = (i-off)^k.
func savgolWeights(window, order, off int) []float64 {
	m := order + 1
	// Normal matrix AᵀA and the full AᵀE stacked as [AᵀA | Aᵀ].
	ata := make([][]float64, m)
	at := make([][]float64, m)
	for r := 0; r < m; r++ {
		ata[r] = make([]float64, m)
		at[r] = make([]float64, window)
	}
	for i := 0; i < window; i++ {
		x := float64(i - off)
		pow := 1.0
		for r := 0; r < m; r++ {
			at[r][i] = pow
			pow *= x
		}
	}
	for r := 0; r < m; r++ {
		for c := 0; c < m; c++ {
			var s float64
			for i := 0; i < window; i++ {
				s += at[r][i] * at[c][i]
			}
			ata[r][c] = s
		}
	}
	// Gauss-Jordan on [AᵀA | Aᵀ]; row zero of the result is the weight row.
	for col := 0; col < m; col++ {
		pivot := col
		for r := col + 1; r < m; r++ {
			if math.Abs(ata[r][col]) > math.Abs(ata[pivot][col]) {
				pivot = r
			}
		}
		ata[col], ata[pivot] = ata[pivot], ata[col]
		at[col], at[pivot] = at[pivot], at[col]
		p := ata[col][col]
		for c := 0; c < m; c++ {
			ata[col][c] /= p
		}
		for i := 0; i < window; i++ {
			at[col][i] /= p
		}
		for r := 0; r < m; r++ {
			if r == col {
				continue
			}
			factor := ata[r][col]
			for c := 0; c < m; c++ {
				ata[r][c] -= factor * ata[col][c]
			}
			for i := 0; i < window; i++ {
				at[r][i] -= factor * at[col][i]
			}
		}
	}
	return at[0]
}
