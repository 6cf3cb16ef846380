package nmea

import (
	"context"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/okian/windward/internal/domain/telemetry"
	"github.com/okian/windward/pkg/metrics"
)

// PGNs the engine uses, matching what a sailing-performance pass needs.
const (
	pgnRudder    = 127245
	pgnHeading   = 127250
	pgnVariation = 127258
	pgnSpeed     = 128259
	pgnPosition  = 129025
	pgnCOGSOG    = 129026
	pgnWind      = 130306
)

// canboatTimeLayout matches the analyzer's timestamp field.
const canboatTimeLayout = "2006-01-02-15:04:05.000"

// canboatRecord mirrors one line of analyzer JSON output.
type canboatRecord struct {
	Timestamp string                     `json:"timestamp"`
	Src       int                        `json:"src"`
	PGN       int                        `json:"pgn"`
	Fields    map[string]json.RawMessage `json:"fields"`
}

// CanboatDecoder parses line-oriented per-message JSON produced by a
// canboat-style NMEA-2000 analyzer. The bus source address is carried
// through as the message source, which is what lets the resolver tell
// redundant sensors apart on this path.
type CanboatDecoder struct {
	variation float64
}

// NewCanboatDecoder returns a decoder for analyzer-JSON input.
func NewCanboatDecoder() *CanboatDecoder {
	return &CanboatDecoder{}
}

// Decode implements Decoder.
func (d *CanboatDecoder) Decode(ctx context.Context, r io.Reader) ([]telemetry.RawMessage, Stats, error) {
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

func (d *CanboatDecoder) decodeLine(line string) (telemetry.RawMessage, outcome) {
	var rec canboatRecord
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		return telemetry.RawMessage{}, outcomeMalformed
	}
	ts, err := time.Parse(canboatTimeLayout, rec.Timestamp)
	if err != nil {
		return telemetry.RawMessage{}, outcomeMalformed
	}

	fields, outcome := d.decodeFields(rec)
	if outcome != outcomeEmitted {
		return telemetry.RawMessage{}, outcome
	}
	return telemetry.RawMessage{
		Timestamp: ts,
		Type:      strconv.Itoa(rec.PGN),
		Source:    strconv.Itoa(rec.Src),
		Fields:    fields,
	}, outcomeEmitted
}

//nolint:gocyclo // one arm per PGN keeps the bus mapping in a single place
func (d *CanboatDecoder) decodeFields(rec canboatRecord) (map[telemetry.Channel]float64, outcome) {
	switch rec.PGN {
	case pgnRudder:
		// The rudder PGN interleaves order and position frames; only
		// instance 0 position frames carry the angle.
		instance, ok := numField(rec.Fields, "Instance")
		if ok && instance != 0 {
			return nil, outcomeEmitted
		}
		pos, ok := numField(rec.Fields, "Position")
		if !ok {
			return nil, outcomeEmitted
		}
		return map[telemetry.Channel]float64{telemetry.ChannelRudderAngle: pos}, outcomeEmitted

	case pgnHeading:
		hdg, ok := numField(rec.Fields, "Heading")
		if !ok {
			return nil, outcomeMalformed
		}
		return map[telemetry.Channel]float64{telemetry.ChannelHeading: hdg}, outcomeEmitted

	case pgnVariation:
		v, ok := numField(rec.Fields, "Variation")
		if !ok {
			return nil, outcomeMalformed
		}
		d.variation = v
		return map[telemetry.Channel]float64{telemetry.ChannelVariation: v}, outcomeEmitted

	case pgnSpeed:
		ms, ok := numField(rec.Fields, "Speed Water Referenced")
		if !ok {
			return nil, outcomeMalformed
		}
		return map[telemetry.Channel]float64{telemetry.ChannelBoatSpeed: ms * metersPerSecToKnots}, outcomeEmitted

	case pgnPosition:
		lat, ok1 := numField(rec.Fields, "Latitude")
		lon, ok2 := numField(rec.Fields, "Longitude")
		if !ok1 || !ok2 {
			return nil, outcomeMalformed
		}
		return map[telemetry.Channel]float64{
			telemetry.ChannelLatitude:  lat,
			telemetry.ChannelLongitude: lon,
		}, outcomeEmitted

	case pgnCOGSOG:
		cog, ok1 := numField(rec.Fields, "COG")
		sog, ok2 := numField(rec.Fields, "SOG")
		if !ok1 || !ok2 {
			return nil, outcomeMalformed
		}
		// Keep the magnetic convention used by the 0183 path: a
		// true-referenced course is shifted by the latest variation.
		if ref, ok := strField(rec.Fields, "COG Reference"); ok && ref == "True" {
			cog = telemetry.Wrap360(cog - d.variation)
		}
		return map[telemetry.Channel]float64{
			telemetry.ChannelCOG: cog,
			telemetry.ChannelSOG: sog * metersPerSecToKnots,
		}, outcomeEmitted

	case pgnWind:
		ref, _ := strField(rec.Fields, "Reference")
		if ref != "Apparent" {
			return nil, outcomeEmitted
		}
		speed, ok1 := numField(rec.Fields, "Wind Speed")
		angle, ok2 := numField(rec.Fields, "Wind Angle")
		if !ok1 || !ok2 {
			return nil, outcomeMalformed
		}
		return map[telemetry.Channel]float64{
			telemetry.ChannelApparentWindSpeed: speed * metersPerSecToKnots,
			telemetry.ChannelApparentWindAngle: telemetry.Wrap180(angle),
		}, outcomeEmitted
	}
	return nil, outcomeUnrecognized
}

func numField(fields map[string]json.RawMessage, key string) (float64, bool) {
	raw, ok := fields[key]
	if !ok {
		return 0, false
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false
	}
	return v, true
}

func strField(fields map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := fields[key]
	if !ok {
		return "", false
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", false
	}
	return v, true
}
