package service

import (
	"time"

	"github.com/okian/windward/internal/adapters/nmea"
	"github.com/okian/windward/internal/domain/legs"
	"github.com/okian/windward/internal/domain/polar"
	"github.com/okian/windward/internal/domain/resolve"
	"github.com/okian/windward/internal/domain/telemetry"
)

// TrackPoint is one resolved position fix, exposed for track exporters.
type TrackPoint struct {
	Time time.Time `json:"time"`
	Lat  float64   `json:"lat"`
	Lon  float64   `json:"lon"`
}

// RaceDiagnostics is the structured diagnostic output of one race
// pipeline, exposed as data so callers decide how to surface it.
type RaceDiagnostics struct {
	Stats     nmea.Stats             `json:"stats"`
	Census    []resolve.SourceCensus `json:"sources"`
	PinErrors []string               `json:"pin_errors,omitempty"`
	EmptyLegs []string               `json:"empty_legs,omitempty"`
}

// RaceResult is everything one race pipeline produced. A failed race
// carries Err and nothing else; sibling races are unaffected.
type RaceResult struct {
	Race        string
	Diagnostics RaceDiagnostics
	Series      *telemetry.SyncSeries
	Legs        []legs.LegRecord
	Track       []TrackPoint
	Polar       *polar.Table
	Err         error
}

// RunResult joins all race pipelines of one regatta.
type RunResult struct {
	RunID   string
	Regatta string
	Boat    string
	Races   []RaceResult
	// Polar is the per-regatta table, merged from the per-race tables.
	Polar *polar.Table
}
