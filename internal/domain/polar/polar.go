// Package polar bins qualifying boat-speed samples on a true-wind-speed ×
// true-wind-angle grid and keeps streaming, mergeable statistics per bin.
//
// A bin holds count, mean and squared-deviation sum (Welford form) plus
// min/max, so merging two tables built independently (one per regatta,
// say) is exact and order-independent. No raw samples are retained.
package polar

import (
	"fmt"
	"math"
	"sort"

	"github.com/okian/windward/internal/domain/telemetry"
	"github.com/okian/windward/pkg/metrics"
)

// Grid is the bucket discretization shared by every table in one run.
// Buckets are half-open: [k*step, (k+1)*step).
type Grid struct {
	SpeedStep  float64 `json:"speed_step"` // knots per wind band
	AngleStep  float64 `json:"angle_step"` // degrees per angle bucket
	MinSamples int     `json:"min_samples"`
}

// DefaultGrid matches the common 2-knot / 5-degree discretization.
var DefaultGrid = Grid{SpeedStep: 2, AngleStep: 5, MinSamples: 10}

// compatible reports whether two grids may be merged. The low-confidence
// threshold does not affect accumulation and is allowed to differ.
func (g Grid) compatible(o Grid) bool {
	return g.SpeedStep == o.SpeedStep && g.AngleStep == o.AngleStep
}

// Key addresses one bin by bucket index.
type Key struct {
	Speed int
	Angle int
}

// Bin accumulates boat-speed samples. Fields are exported for persistence;
// mutate only through Add and merge.
type Bin struct {
	Count int64   `json:"count"`
	Mean  float64 `json:"mean"`
	M2    float64 `json:"m2"` // sum of squared deviations from the mean
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

func (b *Bin) add(v float64) {
	if b.Count == 0 {
		b.Min, b.Max = v, v
	} else {
		b.Min = math.Min(b.Min, v)
		b.Max = math.Max(b.Max, v)
	}
	b.Count++
	delta := v - b.Mean
	b.Mean += delta / float64(b.Count)
	b.M2 += delta * (v - b.Mean)
}

// merge folds o into b. The parallel-Welford update keeps the result
// identical to a single pass over the union of both sample sets.
func (b *Bin) merge(o Bin) {
	if o.Count == 0 {
		return
	}
	if b.Count == 0 {
		*b = o
		return
	}
	n := b.Count + o.Count
	delta := o.Mean - b.Mean
	b.Mean += delta * float64(o.Count) / float64(n)
	b.M2 += o.M2 + delta*delta*float64(b.Count)*float64(o.Count)/float64(n)
	b.Count = n
	b.Min = math.Min(b.Min, o.Min)
	b.Max = math.Max(b.Max, o.Max)
}

// Stddev returns the sample standard deviation of the bin.
func (b *Bin) Stddev() float64 {
	if b.Count < 2 {
		return 0
	}
	return math.Sqrt(b.M2 / float64(b.Count-1))
}

// Table is one polar aggregation: per-regatta when Regatta is set, merged
// cross-regatta otherwise.
type Table struct {
	Grid    Grid
	Regatta string
	Bins    map[Key]*Bin
}

// NewTable constructs an empty table on the given grid.
func NewTable(grid Grid, regatta string) *Table {
	if grid.SpeedStep <= 0 {
		grid.SpeedStep = DefaultGrid.SpeedStep
	}
	if grid.AngleStep <= 0 {
		grid.AngleStep = DefaultGrid.AngleStep
	}
	return &Table{Grid: grid, Regatta: regatta, Bins: make(map[Key]*Bin)}
}

// Add accumulates one sample. The wind angle is folded to [0, 180] by
// port/starboard symmetry before bucketing.
func (t *Table) Add(tws, twa, boatSpeed float64) {
	if tws < 0 || math.IsNaN(tws) || math.IsNaN(twa) || math.IsNaN(boatSpeed) {
		return
	}
	folded := math.Abs(telemetry.Wrap180(twa))
	k := Key{
		Speed: int(math.Floor(tws / t.Grid.SpeedStep)),
		Angle: int(math.Floor(folded / t.Grid.AngleStep)),
	}
	b := t.Bins[k]
	if b == nil {
		b = &Bin{}
		t.Bins[k] = b
	}
	b.add(boatSpeed)
	metrics.RecordPolarSamples(1)
}

// Merge folds o into t. Tables built on different bucket grids cannot be
// merged; doing so silently would corrupt the result.
func (t *Table) Merge(o *Table) error {
	if !t.Grid.compatible(o.Grid) {
		return fmt.Errorf("%w: %+v vs %+v", ErrGridMismatch, t.Grid, o.Grid)
	}
	for k, bin := range o.Bins {
		dst := t.Bins[k]
		if dst == nil {
			dst = &Bin{}
			t.Bins[k] = dst
		}
		dst.merge(*bin)
	}
	return nil
}

// Row is one bin with its bucket bounds resolved, ready for rendering or
// text export.
type Row struct {
	SpeedLo       float64 `json:"speed_lo"`
	SpeedHi       float64 `json:"speed_hi"`
	AngleLo       float64 `json:"angle_lo"`
	AngleHi       float64 `json:"angle_hi"`
	Count         int64   `json:"count"`
	Mean          float64 `json:"mean"`
	Stddev        float64 `json:"stddev"`
	Min           float64 `json:"min"`
	Max           float64 `json:"max"`
	LowConfidence bool    `json:"low_confidence"`
}

// Rows returns every bin ordered by wind band then angle. Bins under the
// minimum-sample threshold are flagged, not omitted.
func (t *Table) Rows() []Row {
	keys := make([]Key, 0, len(t.Bins))
	for k := range t.Bins {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Speed != keys[j].Speed {
			return keys[i].Speed < keys[j].Speed
		}
		return keys[i].Angle < keys[j].Angle
	})
	rows := make([]Row, 0, len(keys))
	low := 0
	for _, k := range keys {
		b := t.Bins[k]
		flag := b.Count < int64(t.Grid.MinSamples)
		if flag {
			low++
		}
		rows = append(rows, Row{
			SpeedLo:       float64(k.Speed) * t.Grid.SpeedStep,
			SpeedHi:       float64(k.Speed+1) * t.Grid.SpeedStep,
			AngleLo:       float64(k.Angle) * t.Grid.AngleStep,
			AngleHi:       float64(k.Angle+1) * t.Grid.AngleStep,
			Count:         b.Count,
			Mean:          b.Mean,
			Stddev:        b.Stddev(),
			Min:           b.Min,
			Max:           b.Max,
			LowConfidence: flag,
		})
	}
	metrics.UpdateLowConfidenceBins(low)
	return rows
}

// SampleCount returns the total samples accumulated across all bins.
func (t *Table) SampleCount() int64 {
	var n int64
	for _, b := range t.Bins {
		n += b.Count
	}
	return n
}
