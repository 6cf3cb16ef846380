package legs

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/okian/windward/internal/domain/telemetry"
	"github.com/okian/windward/pkg/logger"
	"github.com/okian/windward/pkg/metrics"
)

// Earth radius in meters, consistent with common GPS track tooling.
const (
	earthRadius    = 6370000
	metersPerNM    = 1852.0
	defaultTackMin = 25.0
	defaultTackMax = 165.0
)

// Segmenter produces LegRecords from a synchronized series.
type Segmenter struct {
	tackMin float64 // |AWA| below this is a tack or gybe in progress
	tackMax float64
	log     logger.Logger
}

// Option applies a configuration option to the Segmenter.
type Option func(*Segmenter)

// WithTackBand sets the |AWA| band treated as settled sailing; samples
// outside it are assumed to be mid-tack or mid-gybe.
func WithTackBand(minAWA, maxAWA float64) Option {
	return func(s *Segmenter) {
		if minAWA > 0 && maxAWA > minAWA {
			s.tackMin = minAWA
			s.tackMax = maxAWA
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Segmenter) {
		if l != nil {
			s.log = l
		}
	}
}

// New constructs a Segmenter.
func New(opts ...Option) *Segmenter {
	s := &Segmenter{
		tackMin: defaultTackMin,
		tackMax: defaultTackMax,
		log:     logger.Get().Named("legs"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Segment slices the series into one record per configured leg. Legs that
// overlap in time are a configuration error; an individual leg with no
// matching ticks yields an empty record and a diagnostic, not an error.
func (s *Segmenter) Segment(ctx context.Context, series *telemetry.SyncSeries, legs []Leg) ([]LegRecord, error) {
	if err := checkWindows(legs); err != nil {
		return nil, err
	}
	records := make([]LegRecord, 0, len(legs))
	for _, leg := range legs {
		rec := s.segmentOne(ctx, series, leg)
		if rec.Empty {
			metrics.RecordEmptyLeg()
			s.log.Warn(ctx, "leg has no matching ticks",
				logger.String("leg", leg.ID),
				logger.Time("start", leg.Start),
				logger.Time("end", leg.End))
		} else {
			metrics.RecordLegSegmented()
		}
		records = append(records, rec)
	}
	return records, nil
}

// checkWindows validates ordering and pairwise disjointness of leg windows.
func checkWindows(legs []Leg) error {
	ordered := make([]Leg, len(legs))
	copy(ordered, legs)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Start.Before(ordered[j].Start) })
	for i, l := range ordered {
		if !l.End.After(l.Start) {
			return fmt.Errorf("%w: leg %s ends %s, starts %s",
				ErrInvalidWindow, l.ID, l.End.Format(time.RFC3339), l.Start.Format(time.RFC3339))
		}
		if i > 0 && ordered[i-1].End.After(l.Start) {
			return fmt.Errorf("%w: leg %s starts before leg %s ends",
				ErrOverlappingLegs, l.ID, ordered[i-1].ID)
		}
	}
	return nil
}

func (s *Segmenter) segmentOne(ctx context.Context, series *telemetry.SyncSeries, leg Leg) LegRecord {
	start, end := leg.recordedWindow()
	i0, i1 := tickRange(series, start, end)
	rec := LegRecord{Leg: leg, Ticks: i1 - i0, Duration: leg.End.Sub(leg.Start)}
	if i1 <= i0 {
		rec.Empty = true
		return rec
	}

	view := legView{series: series, leg: leg}
	rec.Distance = trackDistance(view, i0, i1)
	rec.MeanSpeed, rec.MedianSpeed = speedStats(view, i0, i1)
	rec.MeanVMG, rec.BestVMG = vmgStats(view, i0, i1, leg.Bearing)
	rec.Boards = s.boards(view, i0, i1)
	rec.Minutes = s.minutes(view, i0, i1, rec.Boards)
	rec.PolarSamples = s.polarSamples(view, i0, i1)
	return rec
}

// legView reads series values with the leg's rudder-zero correction
// applied, leaving the shared series untouched for sibling legs.
type legView struct {
	series *telemetry.SyncSeries
	leg    Leg
}

func (v legView) at(c telemetry.Channel, i int) (float64, bool) {
	val, ok := v.series.At(c, i)
	if ok && c == telemetry.ChannelRudderAngle {
		val += v.leg.RudderOffset
	}
	return val, ok
}

func (v legView) time(i int) time.Time { return v.series.Time(i) }

// local maps a tick onto the leg's local clock.
func (v legView) local(i int) time.Time { return v.series.Time(i).Add(v.leg.TZOffset) }

// tickRange returns the half-open tick index range [i0, i1) whose tick
// times fall in [start, end). A tick exactly at end belongs to the next
// leg, never this one.
func tickRange(series *telemetry.SyncSeries, start, end time.Time) (int, int) {
	n := series.Len()
	i0 := 0
	if d := start.Sub(series.Start); d > 0 {
		i0 = int((d + series.Interval - 1) / series.Interval) // ceil
	}
	i1 := 0
	if d := end.Sub(series.Start); d > 0 {
		// Ceiling division excludes a tick landing exactly on end.
		i1 = int((d + series.Interval - 1) / series.Interval)
	}
	i0 = min(max(i0, 0), n)
	i1 = min(max(i1, i0), n)
	return i0, i1
}

// trackDistance accumulates great-circle displacement between consecutive
// position fixes, in nautical miles.
func trackDistance(v legView, i0, i1 int) float64 {
	var meters float64
	havePrev := false
	var plat, plon float64
	for i := i0; i < i1; i++ {
		lat, ok1 := v.at(telemetry.ChannelLatitude, i)
		lon, ok2 := v.at(telemetry.ChannelLongitude, i)
		if !ok1 || !ok2 {
			continue
		}
		if havePrev {
			meters += haversine(plat, plon, lat, lon)
		}
		plat, plon, havePrev = lat, lon, true
	}
	return meters / metersPerNM
}

func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const rad = math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadius * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func speedStats(v legView, i0, i1 int) (mean, median float64) {
	var speeds []float64
	for i := i0; i < i1; i++ {
		if stw, ok := v.at(telemetry.ChannelBoatSpeed, i); ok {
			speeds = append(speeds, stw)
		}
	}
	if len(speeds) == 0 {
		return math.NaN(), math.NaN()
	}
	var sum float64
	for _, s := range speeds {
		sum += s
	}
	sort.Float64s(speeds)
	mid := len(speeds) / 2
	median = speeds[mid]
	if len(speeds)%2 == 0 {
		median = (speeds[mid-1] + speeds[mid]) / 2
	}
	return sum / float64(len(speeds)), median
}

// vmgStats reports mean and best velocity made good toward the leg's
// nominal mark bearing, from speed and course over ground.
func vmgStats(v legView, i0, i1 int, bearing float64) (mean, best float64) {
	var sum float64
	count := 0
	best = math.Inf(-1)
	for i := i0; i < i1; i++ {
		sog, ok1 := v.at(telemetry.ChannelSOG, i)
		cog, ok2 := v.at(telemetry.ChannelCOG, i)
		if !ok1 || !ok2 {
			continue
		}
		vmg := sog * math.Cos(telemetry.ArcDelta(bearing, cog)*math.Pi/180)
		sum += vmg
		if vmg > best {
			best = vmg
		}
		count++
	}
	if count == 0 {
		return math.NaN(), math.NaN()
	}
	return sum / float64(count), best
}
