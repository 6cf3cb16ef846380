package telemetry

import "math"

// Wrap360 maps an angle into [0, 360).
func Wrap360(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	return a
}

// Wrap180 maps an angle into [-180, 180).
func Wrap180(a float64) float64 {
	a = Wrap360(a)
	if a >= 180 {
		a -= 360
	}
	return a
}

// ArcDelta returns the signed shortest-arc difference b-a in [-180, 180).
func ArcDelta(a, b float64) float64 {
	return Wrap180(b - a)
}

// LerpArc interpolates between two angles along the shortest arc.
// t is in [0,1]; the result is in [0, 360).
func LerpArc(a, b, t float64) float64 {
	return Wrap360(a + t*ArcDelta(a, b))
}

// CircularMean averages angles via unit vectors, returning a value in
// [0, 360). NaN when the input is empty or the vectors cancel out.
func CircularMean(angles []float64) float64 {
	if len(angles) == 0 {
		return math.NaN()
	}
	var sx, sy float64
	for _, a := range angles {
		r := a * math.Pi / 180
		sx += math.Cos(r)
		sy += math.Sin(r)
	}
	if sx == 0 && sy == 0 {
		return math.NaN()
	}
	return Wrap360(math.Atan2(sy, sx) * 180 / math.Pi)
}
