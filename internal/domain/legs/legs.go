// Package legs slices the synchronized, filtered series into configured
// race legs and derives per-leg, per-board and per-minute records.
package legs

import (
	"time"

	"github.com/okian/windward/internal/domain/telemetry"
)

// Leg is one configured time-bounded segment of a race. Start and End are
// in the regatta's local clock; TZOffset aligns them with the recorded
// (UTC) clock. RudderOffset corrects a drifted rudder sensor zero-point
// for this leg only.
type Leg struct {
	ID           string
	Label        string
	Start        time.Time
	End          time.Time
	Bearing      float64 // nominal bearing to the mark, degrees
	Distance     float64 // nominal leg length, nautical miles
	RudderOffset float64
	TZOffset     time.Duration
}

// recordedWindow returns the leg boundaries on the recorded clock.
func (l Leg) recordedWindow() (start, end time.Time) {
	return l.Start.Add(-l.TZOffset), l.End.Add(-l.TZOffset)
}

// Board labels which tack the boat is on.
type Board string

// Board values follow the sign of the apparent wind angle.
const (
	BoardPort      Board = "port"
	BoardStarboard Board = "stbd"
)

// MinuteRecord averages the ticks of one whole minute inside a leg.
// Continuous channels carry the mean, angular channels the circular mean,
// and position channels the last fix of the minute.
type MinuteRecord struct {
	Start  time.Time                     `json:"start"`
	End    time.Time                     `json:"end"`
	Board  Board                         `json:"board"`
	Values map[telemetry.Channel]float64 `json:"values"`
}

// BoardRecord summarizes one tack within a leg.
type BoardRecord struct {
	Start  time.Time                     `json:"start"`
	End    time.Time                     `json:"end"`
	Board  Board                         `json:"board"`
	Values map[telemetry.Channel]float64 `json:"values"`
}

// LegRecord is the per-leg aggregate. Never mutated after creation.
type LegRecord struct {
	Leg   Leg  `json:"leg"`
	Empty bool `json:"empty"`
	Ticks int  `json:"ticks"`

	Duration    time.Duration `json:"duration"`
	Distance    float64       `json:"distance_nm"` // cumulative great-circle track distance
	MeanSpeed   float64       `json:"mean_speed"`  // boat speed through water
	MedianSpeed float64       `json:"median_speed"`
	MeanVMG     float64       `json:"mean_vmg"` // toward the nominal mark bearing
	BestVMG     float64       `json:"best_vmg"`

	Boards  []BoardRecord  `json:"boards"`
	Minutes []MinuteRecord `json:"minutes"`

	// PolarSamples are the (TWS, TWA, boat speed) triples that qualified
	// for polar aggregation within this leg.
	PolarSamples []PolarSample `json:"-"`
}

// PolarSample is one qualifying boat-speed observation.
type PolarSample struct {
	TrueWindSpeed float64
	TrueWindAngle float64
	BoatSpeed     float64
}
