// Package telemetry contains the data model passed between pipeline stages.
package telemetry

import (
	"math"
	"time"
)

// Channel identifies one logical measurement carried on the bus.
type Channel int

// Channels the engine tracks. Latitude/Longitude are handled as a pair by
// the position channels; Variation is magnetic variation used to correct
// true-referenced courses.
const (
	ChannelUnknown Channel = iota
	ChannelCOG
	ChannelSOG
	ChannelHeading
	ChannelBoatSpeed
	ChannelRudderAngle
	ChannelApparentWindAngle
	ChannelApparentWindSpeed
	ChannelTrueWindAngle
	ChannelTrueWindSpeed
	ChannelTrueWindDirection
	ChannelLatitude
	ChannelLongitude
	ChannelVariation
	ChannelDepth
)

var channelNames = map[Channel]string{
	ChannelUnknown:           "unknown",
	ChannelCOG:               "cog",
	ChannelSOG:               "sog",
	ChannelHeading:           "hdg",
	ChannelBoatSpeed:         "stw",
	ChannelRudderAngle:       "rud",
	ChannelApparentWindAngle: "awa",
	ChannelApparentWindSpeed: "aws",
	ChannelTrueWindAngle:     "twa",
	ChannelTrueWindSpeed:     "tws",
	ChannelTrueWindDirection: "twd",
	ChannelLatitude:          "lat",
	ChannelLongitude:         "lon",
	ChannelVariation:         "var",
	ChannelDepth:             "dpt",
}

func (c Channel) String() string {
	if n, ok := channelNames[c]; ok {
		return n
	}
	return "unknown"
}

// ChannelFromName maps a configuration name ("cog", "hdg", ...) back to
// its channel.
func ChannelFromName(name string) (Channel, bool) {
	for c, n := range channelNames {
		if n == name && c != ChannelUnknown {
			return c, true
		}
	}
	return ChannelUnknown, false
}

// Angular reports whether the channel wraps at 360 degrees and therefore
// needs shortest-arc interpolation and unwrap-before-filter handling.
func (c Channel) Angular() bool {
	switch c {
	case ChannelCOG, ChannelHeading, ChannelTrueWindDirection:
		return true
	}
	return false
}

// AllChannels lists every channel in a stable order, used when iterating
// over a frame deterministically.
var AllChannels = []Channel{
	ChannelCOG, ChannelSOG, ChannelHeading, ChannelBoatSpeed,
	ChannelRudderAngle, ChannelApparentWindAngle, ChannelApparentWindSpeed,
	ChannelTrueWindAngle, ChannelTrueWindSpeed, ChannelTrueWindDirection,
	ChannelLatitude, ChannelLongitude, ChannelVariation, ChannelDepth,
}

// RawMessage is one decoded bus message. Immutable once parsed. Multiple
// messages may share a timestamp and type but carry different sources when
// redundant sensors transmit the same measurement.
type RawMessage struct {
	Timestamp time.Time
	Type      string // sentence type ("VTG") or PGN as decimal text ("129026")
	Source    string // device source designator; fixed per encoding when absent
	Fields    map[Channel]float64
}

// ChannelSample is one resolved value for a channel at an instant.
type ChannelSample struct {
	Timestamp time.Time
	Value     float64
	Source    string
}

// SyncSeries is the uniform-grid, per-channel time series produced by the
// synchronizer and smoothed in place by the filter. Missing ticks are NaN.
// The tick index is gapless: Time(i) = Start + i*Interval.
type SyncSeries struct {
	Start    time.Time
	Interval time.Duration
	Values   map[Channel][]float64
	length   int
}

// NewSyncSeries builds an all-missing series of n ticks.
func NewSyncSeries(start time.Time, interval time.Duration, n int) *SyncSeries {
	return &SyncSeries{
		Start:    start,
		Interval: interval,
		Values:   make(map[Channel][]float64),
		length:   n,
	}
}

// Len returns the number of ticks in the series.
func (s *SyncSeries) Len() int { return s.length }

// Time returns the timestamp of tick i.
func (s *SyncSeries) Time(i int) time.Time {
	return s.Start.Add(time.Duration(i) * s.Interval)
}

// SetChannel installs a tick sequence for a channel. The sequence must have
// exactly Len() entries.
func (s *SyncSeries) SetChannel(c Channel, vals []float64) {
	s.Values[c] = vals
}

// At returns the value of channel c at tick i; ok is false when the channel
// is absent or the tick is missing.
func (s *SyncSeries) At(c Channel, i int) (float64, bool) {
	vals, present := s.Values[c]
	if !present || i < 0 || i >= len(vals) {
		return 0, false
	}
	v := vals[i]
	if math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// Missing reports whether channel c has no value at tick i.
func (s *SyncSeries) Missing(c Channel, i int) bool {
	_, ok := s.At(c, i)
	return !ok
}

// IndexOf maps a timestamp onto the tick grid, truncating toward the start.
// The second result is false when ts falls outside the series.
func (s *SyncSeries) IndexOf(ts time.Time) (int, bool) {
	if ts.Before(s.Start) {
		return 0, false
	}
	i := int(ts.Sub(s.Start) / s.Interval)
	if i >= s.length {
		return 0, false
	}
	return i, true
}
