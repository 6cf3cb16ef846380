// Package service wires the pipeline stages into per-race runs and joins
// them at the polar merge.
//
// One race's pipeline is strictly sequential: decode, resolve, grid,
// smooth, derive true wind, segment. Races are independent of each other
// and run concurrently under a bounded fork-join; the only join point is
// the commutative polar table merge, so no pipeline state is shared.
package service

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/okian/windward/internal/adapters/nmea"
	"github.com/okian/windward/internal/adapters/store"
	"github.com/okian/windward/internal/config"
	"github.com/okian/windward/internal/domain/legs"
	"github.com/okian/windward/internal/domain/polar"
	"github.com/okian/windward/internal/domain/resolve"
	"github.com/okian/windward/internal/domain/smooth"
	"github.com/okian/windward/internal/domain/telemetry"
	"github.com/okian/windward/internal/domain/timegrid"
	"github.com/okian/windward/internal/domain/wind"
	"github.com/okian/windward/pkg/logger"
	"github.com/okian/windward/pkg/metrics"
)

// Service runs regatta pipelines.
type Service struct {
	cfg         *config.Config
	concurrency int
	log         logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConcurrency bounds how many race pipelines run at once.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// New constructs a Service for the given configuration.
func New(cfg *config.Config, opts ...Option) *Service {
	s := &Service{
		cfg:         cfg,
		concurrency: cfg.Concurrency,
		log:         logger.Get().Named("service"),
	}
	if s.concurrency < 1 {
		s.concurrency = 1
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run processes every race of the regatta and merges the per-race polar
// tables. A race that fails (unreadable file, bad leg windows) is reported
// in its RaceResult; independent races still complete.
func (s *Service) Run(ctx context.Context) (*RunResult, error) {
	reg := s.cfg.Regatta
	result := &RunResult{
		RunID:   uuid.NewString(),
		Regatta: reg.Name,
		Boat:    reg.Boat,
	}
	s.log.Info(ctx, "run started",
		logger.String("run_id", result.RunID),
		logger.String("regatta", reg.Name),
		logger.Int("races", len(reg.Races)),
		logger.Int("concurrency", s.concurrency))

	result.Races = newPool(s.concurrency, s.processRace, s.log).run(ctx, reg.Races)

	merged := polar.NewTable(s.grid(), reg.Name)
	for i := range result.Races {
		if result.Races[i].Polar == nil {
			continue
		}
		if err := merged.Merge(result.Races[i].Polar); err != nil {
			// All per-race tables share s.grid(); a mismatch is a bug.
			return nil, err
		}
	}
	result.Polar = merged

	if s.cfg.PolarPath != "" {
		if err := s.SavePolars(ctx, s.cfg.PolarPath, merged); err != nil {
			return nil, err
		}
		s.log.Info(ctx, "polar table persisted",
			logger.String("path", s.cfg.PolarPath),
			logger.Int("bins", len(merged.Bins)))
	}
	return result, nil
}

// MergePolars loads previously persisted tables and merges them into one
// cross-regatta table. Grid mismatches are fatal.
func (s *Service) MergePolars(ctx context.Context, paths []string) (*polar.Table, error) {
	merged := polar.NewTable(s.grid(), "")
	for _, path := range paths {
		t, err := store.New(path).Load(ctx)
		if err != nil {
			return nil, err
		}
		if err := merged.Merge(t); err != nil {
			return nil, fmt.Errorf("merge %s: %w", path, err)
		}
	}
	return merged, nil
}

// SavePolars persists a merged table at path.
func (s *Service) SavePolars(ctx context.Context, path string, t *polar.Table) error {
	if err := store.New(path).Save(ctx, t); err != nil {
		return fmt.Errorf("persist polar table: %w", err)
	}
	return nil
}

func (s *Service) grid() polar.Grid {
	e := s.cfg.Engine
	return polar.Grid{
		SpeedStep:  e.PolarSpeedStep,
		AngleStep:  e.PolarAngleStep,
		MinSamples: e.PolarMinSamples,
	}
}

// processRace runs the sequential stages for one race file.
func (s *Service) processRace(ctx context.Context, race config.Race) RaceResult {
	res := RaceResult{Race: race.Name}
	log := s.log.Named(race.Name)

	raceLegs, err := s.raceLegs(race)
	if err != nil {
		res.Err = err
		return res
	}

	msgs, stats, err := s.decode(ctx, race.Data)
	res.Diagnostics.Stats = stats
	if err != nil {
		res.Err = err
		return res
	}
	log.Info(ctx, "race decoded",
		logger.Int("records", stats.Records),
		logger.Int("emitted", stats.Emitted),
		logger.Int("malformed", stats.Malformed),
		logger.Int("unrecognized", stats.Unrecognized))

	resolver := resolve.New(resolve.WithPins(s.pins()), resolve.WithLogger(log))
	start := time.Now()
	resolved := resolver.Resolve(ctx, msgs)
	metrics.ObserveStageDuration("resolve", time.Since(start))
	res.Diagnostics.Census = resolved.Census
	for _, perr := range resolved.PinErrors {
		res.Diagnostics.PinErrors = append(res.Diagnostics.PinErrors, perr.Error())
	}
	res.Track = track(resolved)

	e := s.cfg.Engine
	series, err := timegrid.New(
		timegrid.WithInterval(e.TickInterval()),
		timegrid.WithMaxGap(e.MaxGap()),
		timegrid.WithLogger(log),
	).Build(ctx, resolved.Samples)
	if err != nil {
		res.Err = fmt.Errorf("race %s: %w", race.Name, err)
		return res
	}

	smooth.New(
		smooth.WithWindow(e.FilterWindow),
		smooth.WithOrder(e.FilterOrder),
		smooth.WithLogger(log),
	).Apply(ctx, series)
	wind.Derive(ctx, series)
	res.Series = series

	segmenter := legs.New(
		legs.WithTackBand(e.TackMinAngle, e.TackMaxAngle),
		legs.WithLogger(log),
	)
	records, err := segmenter.Segment(ctx, series, raceLegs)
	if err != nil {
		res.Err = fmt.Errorf("race %s: %w", race.Name, err)
		return res
	}
	res.Legs = records

	res.Polar = polar.NewTable(s.grid(), s.cfg.Regatta.Name)
	for _, rec := range records {
		if rec.Empty {
			res.Diagnostics.EmptyLegs = append(res.Diagnostics.EmptyLegs, rec.Leg.ID)
			continue
		}
		for _, sample := range rec.PolarSamples {
			res.Polar.Add(sample.TrueWindSpeed, sample.TrueWindAngle, sample.BoatSpeed)
		}
	}
	return res
}

func (s *Service) decode(ctx context.Context, path string) ([]telemetry.RawMessage, nmea.Stats, error) {
	dec, err := nmea.ForFile(path)
	if err != nil {
		return nil, nmea.Stats{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nmea.Stats{}, fmt.Errorf("open telemetry: %w", err)
	}
	defer f.Close()

	start := time.Now()
	msgs, stats, err := dec.Decode(ctx, f)
	metrics.ObserveStageDuration("decode", time.Since(start))
	return msgs, stats, err
}

// raceLegs combines a race's leg windows with its course's mark legs.
func (s *Service) raceLegs(race config.Race) ([]legs.Leg, error) {
	reg := s.cfg.Regatta
	var course config.Course
	for _, c := range reg.Courses {
		if c.Name == race.Course {
			course = c
		}
	}
	out := make([]legs.Leg, 0, len(race.Legs))
	for i, w := range race.Legs {
		start, end, err := w.Times()
		if err != nil {
			return nil, fmt.Errorf("race %s leg %d: %w", race.Name, i+1, err)
		}
		leg := legs.Leg{
			ID:           fmt.Sprintf("%s-%d", race.Name, i+1),
			Start:        start,
			End:          end,
			RudderOffset: reg.RudderOffset,
			TZOffset:     reg.TZOffset(),
		}
		if i < len(course.Legs) {
			leg.Label = course.Legs[i].Label
			leg.Bearing = course.Legs[i].Bearing
			leg.Distance = course.Legs[i].Distance
		}
		out = append(out, leg)
	}
	return out, nil
}

func (s *Service) pins() map[telemetry.Channel]string {
	pins := make(map[telemetry.Channel]string, len(s.cfg.Regatta.Pins))
	for name, src := range s.cfg.Regatta.Pins {
		if c, ok := telemetry.ChannelFromName(name); ok {
			pins[c] = src
		}
	}
	return pins
}

// track extracts the resolved position fixes in time order.
func track(res *resolve.Result) []TrackPoint {
	lats := res.Samples[telemetry.ChannelLatitude]
	lons := res.Samples[telemetry.ChannelLongitude]
	n := len(lats)
	if len(lons) < n {
		n = len(lons)
	}
	out := make([]TrackPoint, 0, n)
	for i := 0; i < n; i++ {
		// Lat and lon arrive in the same message, so indices align.
		if !lats[i].Timestamp.Equal(lons[i].Timestamp) {
			continue
		}
		out = append(out, TrackPoint{Time: lats[i].Timestamp, Lat: lats[i].Value, Lon: lons[i].Value})
	}
	return out
}
