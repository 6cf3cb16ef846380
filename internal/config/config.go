// Package config defines engine and regatta configuration structures and
// loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"
	"time"
)

// windowTimeLayout is the local-clock layout used for leg boundaries in
// regatta files, matching the recorder's configuration format.
const windowTimeLayout = "2006-01-02T15:04:05"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Concurrency bounds how many race pipelines run in parallel.
	Concurrency int `koanf:"concurrency"`

	// OutputDir receives the emitted leg, series and polar JSON files.
	OutputDir string `koanf:"output_dir"`

	// PolarPath persists the per-regatta polar table for later
	// cross-regatta merges. Empty disables persistence.
	PolarPath string `koanf:"polar_path"`

	Engine  Engine  `koanf:"engine"`
	Regatta Regatta `koanf:"regatta"`
}

// Engine holds the pipeline tuning knobs shared by every race.
type Engine struct {
	// TickSeconds is the synchronizer grid interval.
	TickSeconds int `koanf:"tick_seconds"`

	// MaxGapSeconds bounds how far a value may be carried into a sample
	// gap before ticks go missing.
	MaxGapSeconds int `koanf:"max_gap_seconds"`

	// FilterWindow and FilterOrder configure the smoothing filter.
	// The window must be odd and larger than the order.
	FilterWindow int `koanf:"filter_window"`
	FilterOrder  int `koanf:"filter_order"`

	// TackMinAngle and TackMaxAngle bound the settled |wind angle| band;
	// samples outside it are treated as mid-tack or mid-gybe.
	TackMinAngle float64 `koanf:"tack_min_angle"`
	TackMaxAngle float64 `koanf:"tack_max_angle"`

	// Polar bucket discretization.
	PolarSpeedStep  float64 `koanf:"polar_speed_step"`
	PolarAngleStep  float64 `koanf:"polar_angle_step"`
	PolarMinSamples int     `koanf:"polar_min_samples"`
}

// TickInterval returns the grid interval as a duration.
func (e Engine) TickInterval() time.Duration {
	return time.Duration(e.TickSeconds) * time.Second
}

// MaxGap returns the interpolation bound as a duration.
func (e Engine) MaxGap() time.Duration {
	return time.Duration(e.MaxGapSeconds) * time.Second
}

// Regatta describes one event: the boat, clock offset, sensor pins and
// the races sailed.
type Regatta struct {
	Name string `koanf:"name"`
	Boat string `koanf:"boat"`

	// TZHours aligns configured local leg times with the recorded clock.
	TZHours int `koanf:"tz"`

	// RudderOffset is the boat-wide rudder zero-point correction applied
	// to every leg of this regatta.
	RudderOffset float64 `koanf:"rudder_offset"`

	// Pins maps channel names ("cog", "lat", ...) to the source that must
	// produce them, overriding the first-observed default.
	Pins map[string]string `koanf:"pins"`

	Courses []Course `koanf:"courses"`
	Races   []Race   `koanf:"races"`
}

// TZOffset returns the regatta clock offset as a duration.
func (r Regatta) TZOffset() time.Duration {
	return time.Duration(r.TZHours) * time.Hour
}

// Course names an ordered mark sequence.
type Course struct {
	Name string    `koanf:"name"`
	Legs []MarkLeg `koanf:"legs"`
}

// MarkLeg is one mark-to-mark run of a course.
type MarkLeg struct {
	Label    string  `koanf:"label"`
	Bearing  float64 `koanf:"bearing"`  // degrees
	Distance float64 `koanf:"distance"` // nautical miles
}

// Race pairs a telemetry recording with the leg windows sailed on it.
type Race struct {
	Name   string   `koanf:"name"`
	Data   string   `koanf:"data"` // telemetry file, .nmea or analyzer .json
	Course string   `koanf:"course"`
	Legs   []Window `koanf:"legs"`
}

// Window is one leg's local-clock boundaries.
type Window struct {
	Start string `koanf:"start"`
	End   string `koanf:"end"`
}

// Times parses the window boundaries.
func (w Window) Times() (start, end time.Time, err error) {
	start, err = time.Parse(windowTimeLayout, w.Start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err = time.Parse(windowTimeLayout, w.End)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// New creates a Config with defaults. Regatta content has no meaningful
// default; it comes from the loaded file.
func New() *Config {
	return &Config{
		LogLevel:    "info",
		Concurrency: runtime.NumCPU(),
		OutputDir:   ".",
		Engine: Engine{
			TickSeconds:     1,
			MaxGapSeconds:   30,
			FilterWindow:    7,
			FilterOrder:     3,
			TackMinAngle:    25,
			TackMaxAngle:    165,
			PolarSpeedStep:  2,
			PolarAngleStep:  5,
			PolarMinSamples: 10,
		},
	}
}
