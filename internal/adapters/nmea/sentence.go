package nmea

import (
	"context"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/okian/windward/internal/domain/telemetry"
	"github.com/okian/windward/pkg/metrics"
)

// Sentence types the engine uses. Everything else is dropped and counted.
// ZDA carries the reference clock; sentences arriving before the first ZDA
// have no usable timestamp and are counted as malformed.
const (
	sentenceZDA = "ZDA" // GPS date and time
	sentenceREC = "REC" // SeaIQ recording timestamp (clock ignored, ZDA wins)
	sentenceGLL = "GLL" // position
	sentenceHDG = "HDG" // heading and magnetic variation
	sentenceMWV = "MWV" // wind speed and angle
	sentenceVHW = "VHW" // speed through water
	sentenceVTG = "VTG" // course and speed over ground
	sentenceXDR = "XDR" // transducer measurement (rudder angle)
)

const metersPerSecToKnots = 1.94384

// SentenceDecoder parses NMEA-0183 sentence text. It is stateful: the
// running clock from ZDA sentences stamps every following sentence, and the
// magnetic variation from HDG is tracked for diagnostics.
type SentenceDecoder struct {
	now       time.Time
	haveClock bool
	variation float64
}

// NewSentenceDecoder returns a decoder for sentence-text input.
func NewSentenceDecoder() *SentenceDecoder {
	return &SentenceDecoder{}
}

// Decode implements Decoder.
func (d *SentenceDecoder) Decode(ctx context.Context, r io.Reader) ([]telemetry.RawMessage, Stats, error) {
	var (
		msgs  []telemetry.RawMessage
		stats Stats
	)
	err := scanLines(ctx, r, &stats, func(line string) {
		msg, outcome := d.decodeLine(line)
		switch outcome {
		case outcomeEmitted:
			msgs = append(msgs, msg)
			stats.Emitted++
		case outcomeMalformed:
			stats.Malformed++
			metrics.RecordMalformedRecord()
		case outcomeUnrecognized:
			stats.Unrecognized++
			metrics.RecordUnrecognizedRecord()
		}
	})
	if err != nil {
		return nil, stats, err
	}
	return msgs, stats, nil
}

type outcome int

const (
	outcomeEmitted outcome = iota
	outcomeMalformed
	outcomeUnrecognized
)

func (d *SentenceDecoder) decodeLine(line string) (telemetry.RawMessage, outcome) {
	body, ok := stripChecksum(line)
	if !ok {
		return telemetry.RawMessage{}, outcomeMalformed
	}
	fields := strings.Split(body, ",")
	head := fields[0]
	if len(head) < 4 || head[0] != '$' {
		return telemetry.RawMessage{}, outcomeMalformed
	}
	talker := head[1 : len(head)-3]
	kind := head[len(head)-3:]

	// Clock sentences first: they stamp everything that follows.
	switch kind {
	case sentenceZDA:
		ts, err := parseZDA(fields)
		if err != nil {
			return telemetry.RawMessage{}, outcomeMalformed
		}
		d.now = ts
		d.haveClock = true
		return d.message(talker, kind, nil), outcomeEmitted
	case sentenceREC:
		// SeaIQ wall-clock stamps are less trustworthy than the GPS
		// clock; recognized but not used.
		if !d.haveClock {
			return telemetry.RawMessage{}, outcomeMalformed
		}
		return d.message(talker, kind, nil), outcomeEmitted
	}

	if !d.haveClock {
		// No reference clock yet: the record cannot be placed in time.
		return telemetry.RawMessage{}, outcomeMalformed
	}

	switch kind {
	case sentenceGLL:
		lat, lon, err := parseGLL(fields)
		if err != nil {
			return telemetry.RawMessage{}, outcomeMalformed
		}
		return d.message(talker, kind, map[telemetry.Channel]float64{
			telemetry.ChannelLatitude:  lat,
			telemetry.ChannelLongitude: lon,
		}), outcomeEmitted

	case sentenceHDG:
		if len(fields) < 6 {
			return telemetry.RawMessage{}, outcomeMalformed
		}
		hdg, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return telemetry.RawMessage{}, outcomeMalformed
		}
		out := map[telemetry.Channel]float64{telemetry.ChannelHeading: hdg}
		if fields[4] != "" {
			v, err := strconv.ParseFloat(fields[4], 64)
			if err != nil {
				return telemetry.RawMessage{}, outcomeMalformed
			}
			if fields[5] != "E" {
				v = -v
			}
			d.variation = v
			out[telemetry.ChannelVariation] = v
		}
		return d.message(talker, kind, out), outcomeEmitted

	case sentenceMWV:
		return d.decodeMWV(talker, kind, fields)

	case sentenceVHW:
		// $SDVHW,348.7,T,335.4,M,5.7,N,10.6,K with knots in field 5.
		// The heading here comes from the speed sensor and is not trusted.
		if len(fields) < 6 {
			return telemetry.RawMessage{}, outcomeMalformed
		}
		stw, err := strconv.ParseFloat(fields[5], 64)
		if err != nil {
			return telemetry.RawMessage{}, outcomeMalformed
		}
		return d.message(talker, kind, map[telemetry.Channel]float64{
			telemetry.ChannelBoatSpeed: stw,
		}), outcomeEmitted

	case sentenceVTG:
		// $GPVTG,342.9,T,329.5,M,5.4,N,10.1,K with magnetic course, knots.
		if len(fields) < 6 {
			return telemetry.RawMessage{}, outcomeMalformed
		}
		cog, err1 := strconv.ParseFloat(fields[3], 64)
		sog, err2 := strconv.ParseFloat(fields[5], 64)
		if err1 != nil || err2 != nil {
			return telemetry.RawMessage{}, outcomeMalformed
		}
		return d.message(talker, kind, map[telemetry.Channel]float64{
			telemetry.ChannelCOG: cog,
			telemetry.ChannelSOG: sog,
		}), outcomeEmitted

	case sentenceXDR:
		return d.decodeXDR(talker, kind, fields)
	}
	return telemetry.RawMessage{}, outcomeUnrecognized
}

// decodeMWV handles wind sentences. Only apparent ("R") wind carries data;
// instrument-computed true wind is recognized but discarded because the
// engine derives true wind from smoothed channels itself.
func (d *SentenceDecoder) decodeMWV(talker, kind string, fields []string) (telemetry.RawMessage, outcome) {
	if len(fields) < 5 {
		return telemetry.RawMessage{}, outcomeMalformed
	}
	if fields[2] != "R" {
		return d.message(talker, kind, nil), outcomeEmitted
	}
	angle, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return telemetry.RawMessage{}, outcomeMalformed
	}
	speed, err := strconv.ParseFloat(fields[3], 64)
	if err != nil {
		return telemetry.RawMessage{}, outcomeMalformed
	}
	switch fields[4] {
	case "N":
	case "M":
		speed *= metersPerSecToKnots
	default:
		return telemetry.RawMessage{}, outcomeMalformed
	}
	return d.message(talker, kind, map[telemetry.Channel]float64{
		telemetry.ChannelApparentWindAngle: telemetry.Wrap180(angle),
		telemetry.ChannelApparentWindSpeed: speed,
	}), outcomeEmitted
}

// decodeXDR scans transducer quadruples for a rudder-angle measurement,
// e.g. $IIXDR,A,-4.5,D,RUDDER.
func (d *SentenceDecoder) decodeXDR(talker, kind string, fields []string) (telemetry.RawMessage, outcome) {
	for i := 1; i+3 < len(fields); i += 4 {
		if fields[i] != "A" || !strings.Contains(strings.ToUpper(fields[i+3]), "RUDDER") {
			continue
		}
		v, err := strconv.ParseFloat(fields[i+1], 64)
		if err != nil {
			return telemetry.RawMessage{}, outcomeMalformed
		}
		return d.message(talker, kind, map[telemetry.Channel]float64{
			telemetry.ChannelRudderAngle: v,
		}), outcomeEmitted
	}
	return d.message(talker, kind, nil), outcomeEmitted
}

// message builds a RawMessage stamped with the running clock. The talker ID
// is the only source designator 0183 provides; when it is empty the
// encoding-wide default applies.
func (d *SentenceDecoder) message(talker, kind string, fields map[telemetry.Channel]float64) telemetry.RawMessage {
	src := talker
	if src == "" {
		src = "nmea0183"
	}
	return telemetry.RawMessage{
		Timestamp: d.now,
		Type:      kind,
		Source:    src,
		Fields:    fields,
	}
}

// stripChecksum validates and removes a trailing *hh checksum. Sentences
// without one are accepted as-is; a present but wrong checksum is a defect.
func stripChecksum(line string) (string, bool) {
	i := strings.LastIndexByte(line, '*')
	if i < 0 {
		return line, true
	}
	if len(line)-i != 3 {
		return "", false
	}
	want, err := strconv.ParseUint(line[i+1:], 16, 8)
	if err != nil {
		return "", false
	}
	var sum byte
	for j := 1; j < i; j++ {
		sum ^= line[j]
	}
	if sum != byte(want) {
		return "", false
	}
	return line[:i], true
}

// parseZDA reads $GPZDA,HHMMSS(.sss),DD,MM,YYYY,... into a UTC timestamp.
func parseZDA(fields []string) (time.Time, error) {
	if len(fields) < 5 {
		return time.Time{}, errTruncated
	}
	hms := fields[1]
	if len(hms) < 6 {
		return time.Time{}, errTruncated
	}
	h, err1 := strconv.Atoi(hms[0:2])
	m, err2 := strconv.Atoi(hms[2:4])
	s, err3 := strconv.Atoi(hms[4:6])
	day, err4 := strconv.Atoi(fields[2])
	month, err5 := strconv.Atoi(fields[3])
	year, err6 := strconv.Atoi(fields[4])
	for _, err := range []error{err1, err2, err3, err4, err5, err6} {
		if err != nil {
			return time.Time{}, err
		}
	}
	return time.Date(year, time.Month(month), day, h, m, s, 0, time.UTC), nil
}

// parseGLL reads $GPGLL,ddmm.mmmm,N,dddmm.mmmm,W,... into signed degrees.
// South and west are negative.
func parseGLL(fields []string) (lat, lon float64, err error) {
	if len(fields) < 5 {
		return 0, 0, errTruncated
	}
	lat, err = parseCoordinate(fields[1], 2)
	if err != nil {
		return 0, 0, err
	}
	if fields[2] == "S" {
		lat = -lat
	}
	lon, err = parseCoordinate(fields[3], 3)
	if err != nil {
		return 0, 0, err
	}
	if fields[4] == "W" {
		lon = -lon
	}
	return lat, lon, nil
}

// parseCoordinate converts a [d]ddmm.mmmm field with degDigits degree
// digits into decimal degrees.
func parseCoordinate(s string, degDigits int) (float64, error) {
	if len(s) < degDigits+2 {
		return 0, errTruncated
	}
	deg, err := strconv.ParseFloat(s[:degDigits], 64)
	if err != nil {
		return 0, err
	}
	min, err := strconv.ParseFloat(s[degDigits:], 64)
	if err != nil {
		return 0, err
	}
	return deg + min/60, nil
}
