package config

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/okian/windward/internal/domain/telemetry"
)

// Validate checks everything that can be checked before touching data.
// Configuration errors carry the offending race/leg/channel so the file
// can be fixed; they are the only errors this package produces besides
// load failures.
func (c *Config) Validate(_ context.Context) error {
	e := c.Engine
	if e.TickSeconds <= 0 {
		return fmt.Errorf("%w: tick_seconds must be positive, got %d", ErrInvalidConfig, e.TickSeconds)
	}
	if e.MaxGapSeconds <= 0 {
		return fmt.Errorf("%w: max_gap_seconds must be positive, got %d", ErrInvalidConfig, e.MaxGapSeconds)
	}
	if e.FilterWindow%2 == 0 || e.FilterWindow <= e.FilterOrder {
		return fmt.Errorf("%w: filter window %d must be odd and larger than order %d",
			ErrInvalidConfig, e.FilterWindow, e.FilterOrder)
	}
	if e.PolarSpeedStep <= 0 || e.PolarAngleStep <= 0 {
		return fmt.Errorf("%w: polar bucket widths must be positive", ErrInvalidConfig)
	}

	for name := range c.Regatta.Pins {
		if _, ok := telemetry.ChannelFromName(name); !ok {
			return fmt.Errorf("%w: unknown pinned channel %q", ErrInvalidConfig, name)
		}
	}

	courses := make(map[string]Course, len(c.Regatta.Courses))
	for _, course := range c.Regatta.Courses {
		courses[course.Name] = course
	}
	for _, race := range c.Regatta.Races {
		if race.Data == "" {
			return fmt.Errorf("%w: race %q has no data file", ErrInvalidConfig, race.Name)
		}
		if race.Course != "" {
			if _, ok := courses[race.Course]; !ok {
				return fmt.Errorf("%w: race %q references unknown course %q",
					ErrInvalidConfig, race.Name, race.Course)
			}
		}
		if err := validateWindows(race); err != nil {
			return err
		}
	}
	return nil
}

// validateWindows parses every leg window of a race and rejects reversed
// or overlapping windows. Overlap is checked here as well as in the
// segmenter so a bad file fails before any data is read.
func validateWindows(race Race) error {
	type parsed struct {
		idx        int
		start, end time.Time
	}
	windows := make([]parsed, 0, len(race.Legs))
	for i, w := range race.Legs {
		start, end, err := w.Times()
		if err != nil {
			return fmt.Errorf("%w: race %q leg %d: %w", ErrInvalidConfig, race.Name, i+1, err)
		}
		if !end.After(start) {
			return fmt.Errorf("%w: race %q leg %d ends %s before it starts %s",
				ErrInvalidConfig, race.Name, i+1, w.End, w.Start)
		}
		windows = append(windows, parsed{idx: i + 1, start: start, end: end})
	}
	sort.Slice(windows, func(i, j int) bool { return windows[i].start.Before(windows[j].start) })
	for i := 1; i < len(windows); i++ {
		if windows[i-1].end.After(windows[i].start) {
			return fmt.Errorf("%w: race %q legs %d and %d overlap",
				ErrInvalidConfig, race.Name, windows[i-1].idx, windows[i].idx)
		}
	}
	return nil
}
