package legs

import (
	"math"
	"time"

	"github.com/okian/windward/internal/domain/telemetry"
)

// boardOf maps an apparent wind angle to a tack.
func boardOf(awa float64) Board {
	if awa < 0 {
		return BoardPort
	}
	return BoardStarboard
}

// boards walks the apparent wind angle and splits the leg at sign changes.
// Samples outside the settled band are mid-maneuver and neither extend the
// current board nor start a new one, so a board's end stops at the last
// settled sample before the tack.
func (s *Segmenter) boards(v legView, i0, i1 int) []BoardRecord {
	type span struct {
		start, end int
		board      Board
	}
	var spans []span
	cur := span{start: i0, end: i0}
	haveBoard := false
	for i := i0; i < i1; i++ {
		awa, ok := v.at(telemetry.ChannelApparentWindAngle, i)
		if !ok {
			continue
		}
		if !haveBoard {
			cur.board = boardOf(awa)
			cur.start, cur.end = i, i
			haveBoard = true
			continue
		}
		abs := math.Abs(awa)
		if abs <= s.tackMin || abs >= s.tackMax {
			continue
		}
		if boardOf(awa) != cur.board {
			spans = append(spans, cur)
			cur = span{start: i, end: i, board: boardOf(awa)}
			continue
		}
		cur.end = i
	}
	if !haveBoard {
		return nil
	}
	spans = append(spans, cur)

	records := make([]BoardRecord, 0, len(spans))
	for _, sp := range spans {
		records = append(records, BoardRecord{
			Start:  v.local(sp.start),
			End:    v.local(sp.end),
			Board:  sp.board,
			Values: averageTicks(v, sp.start, sp.end+1),
		})
	}
	return records
}

// minutes groups the leg's ticks by whole minute of the local clock.
func (s *Segmenter) minutes(v legView, i0, i1 int, boards []BoardRecord) []MinuteRecord {
	var out []MinuteRecord
	i := i0
	for i < i1 {
		minute := v.local(i).Truncate(time.Minute)
		next := minute.Add(time.Minute)
		j := i
		for j < i1 && v.local(j).Before(next) {
			j++
		}
		vals := averageTicks(v, i, j)
		if len(vals) > 0 {
			out = append(out, MinuteRecord{
				Start:  minute,
				End:    next,
				Board:  boardAt(boards, v.local(i)),
				Values: vals,
			})
		}
		i = j
	}
	return out
}

func boardAt(boards []BoardRecord, t time.Time) Board {
	for _, b := range boards {
		if !t.Before(b.Start) && !t.After(b.End) {
			return b.Board
		}
	}
	return ""
}

// averageTicks reduces ticks [i0,i1) to one value per present channel:
// circular mean for angular channels, last fix for position, arithmetic
// mean for everything else.
func averageTicks(v legView, i0, i1 int) map[telemetry.Channel]float64 {
	out := make(map[telemetry.Channel]float64)
	for _, c := range telemetry.AllChannels {
		if _, present := v.series.Values[c]; !present {
			continue
		}
		switch {
		case c.Angular():
			var angles []float64
			for i := i0; i < i1; i++ {
				if a, ok := v.at(c, i); ok {
					angles = append(angles, a)
				}
			}
			if m := telemetry.CircularMean(angles); !math.IsNaN(m) {
				out[c] = m
			}
		case c == telemetry.ChannelLatitude || c == telemetry.ChannelLongitude:
			for i := i1 - 1; i >= i0; i-- {
				if val, ok := v.at(c, i); ok {
					out[c] = val
					break
				}
			}
		default:
			var sum float64
			n := 0
			for i := i0; i < i1; i++ {
				if val, ok := v.at(c, i); ok {
					sum += val
					n++
				}
			}
			if n > 0 {
				out[c] = sum / float64(n)
			}
		}
	}
	return out
}

// polarSamples collects qualifying (TWS, TWA, boat speed) triples. Ticks
// with |TWA| outside the settled band are excluded: the boat is tacking or
// gybing and the sample says nothing about attainable speed.
func (s *Segmenter) polarSamples(v legView, i0, i1 int) []PolarSample {
	var out []PolarSample
	for i := i0; i < i1; i++ {
		tws, ok1 := v.at(telemetry.ChannelTrueWindSpeed, i)
		twa, ok2 := v.at(telemetry.ChannelTrueWindAngle, i)
		stw, ok3 := v.at(telemetry.ChannelBoatSpeed, i)
		if !ok1 || !ok2 || !ok3 {
			continue
		}
		folded := math.Abs(telemetry.Wrap180(twa))
		if folded < s.tackMin || folded > s.tackMax {
			continue
		}
		out = append(out, PolarSample{TrueWindSpeed: tws, TrueWindAngle: twa, BoatSpeed: stw})
	}
	return out
}
