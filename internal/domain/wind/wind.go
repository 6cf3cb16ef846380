// Package wind derives true wind from smoothed channels.
//
// Instrument-computed true wind is not trusted; instead TWS, TWD and TWA
// are recomputed per tick from heading, course, speed over ground and
// apparent wind, after the filter pass. A tick missing any input channel
// yields missing true-wind values.
package wind

import (
	"context"
	"math"

	"github.com/okian/windward/internal/domain/telemetry"
	"github.com/okian/windward/pkg/logger"
)

// Derive fills the true-wind channels of the series in place and returns
// the number of ticks that produced a value.
//
// The apparent wind direction is the heading plus the apparent wind angle;
// subtracting the boat's motion vector from the apparent wind vector gives
// the true wind vector, flipped to report where the wind is from.
func Derive(ctx context.Context, series *telemetry.SyncSeries) int {
	n := series.Len()
	twa := make([]float64, n)
	tws := make([]float64, n)
	twd := make([]float64, n)
	derived := 0
	for i := 0; i < n; i++ {
		hdg, ok1 := series.At(telemetry.ChannelHeading, i)
		cog, ok2 := series.At(telemetry.ChannelCOG, i)
		sog, ok3 := series.At(telemetry.ChannelSOG, i)
		awa, ok4 := series.At(telemetry.ChannelApparentWindAngle, i)
		aws, ok5 := series.At(telemetry.ChannelApparentWindSpeed, i)
		if !(ok1 && ok2 && ok3 && ok4 && ok5) {
			twa[i], tws[i], twd[i] = math.NaN(), math.NaN(), math.NaN()
			continue
		}
		s, d := trueWind(hdg, cog, sog, awa, aws)
		tws[i] = s
		twd[i] = d
		twa[i] = telemetry.Wrap360(d - hdg)
		derived++
	}
	series.SetChannel(telemetry.ChannelTrueWindAngle, twa)
	series.SetChannel(telemetry.ChannelTrueWindSpeed, tws)
	series.SetChannel(telemetry.ChannelTrueWindDirection, twd)

	logger.Get().Named("wind").Debug(ctx, "true wind derived",
		logger.Int("ticks", n),
		logger.Int("derived", derived))
	return derived
}

// trueWind subtracts the apparent wind vector from the boat's ground
// vector and reports speed plus the direction the wind blows from.
func trueWind(hdgDeg, cogDeg, sog, awaDeg, aws float64) (tws, twdDeg float64) {
	hdg := hdgDeg * math.Pi / 180
	cog := cogDeg * math.Pi / 180
	awd := math.Mod(hdg+awaDeg*math.Pi/180, 2*math.Pi)

	u := sog*math.Cos(cog) - aws*math.Cos(awd)
	v := sog*math.Sin(cog) - aws*math.Sin(awd)

	tws = math.Hypot(u, v)
	twdDeg = telemetry.Wrap360((math.Atan2(v, u) + math.Pi) * 180 / math.Pi)
	return tws, twdDeg
}
