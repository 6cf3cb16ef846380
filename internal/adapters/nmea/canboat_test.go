package nmea_test

import (
	"context"
	"strings"
	"testing"

	"github.com/okian/windward/internal/adapters/nmea"
	"github.com/okian/windward/internal/domain/telemetry"
	. "github.com/smartystreets/goconvey/convey"
)

func decodeJSON(lines ...string) ([]telemetry.RawMessage, nmea.Stats, error) {
	dec := nmea.NewCanboatDecoder()
	return dec.Decode(context.Background(), strings.NewReader(strings.Join(lines, "\n")))
}

func TestCanboatDecoder(t *testing.T) {
	Convey("Given an analyzer-JSON decoder", t, func() {
		Convey("When decoding a heading frame", func() {
			msgs, stats, err := decodeJSON(
				`{"timestamp":"2026-08-15-12:00:00.000","src":7,"pgn":127250,"fields":{"Heading":182.4}}`)
			So(err, ShouldBeNil)
			So(stats.Emitted, ShouldEqual, 1)
			So(msgs[0].Type, ShouldEqual, "127250")
			So(msgs[0].Source, ShouldEqual, "7")
			So(msgs[0].Fields[telemetry.ChannelHeading], ShouldEqual, 182.4)
		})

		Convey("When decoding water speed", func() {
			msgs, _, err := decodeJSON(
				`{"timestamp":"2026-08-15-12:00:00.000","src":2,"pgn":128259,"fields":{"Speed Water Referenced":2.5}}`)
			So(err, ShouldBeNil)

			Convey("Then meters per second become knots", func() {
				So(msgs[0].Fields[telemetry.ChannelBoatSpeed], ShouldAlmostEqual, 4.8596, 1e-4)
			})
		})

		Convey("When decoding course over ground", func() {
			Convey("Then a magnetic course passes through", func() {
				msgs, _, err := decodeJSON(
					`{"timestamp":"2026-08-15-12:00:00.000","src":3,"pgn":129026,"fields":{"COG Reference":"Magnetic","COG":120.0,"SOG":3.0}}`)
				So(err, ShouldBeNil)
				So(msgs[0].Fields[telemetry.ChannelCOG], ShouldEqual, 120)
				So(msgs[0].Fields[telemetry.ChannelSOG], ShouldAlmostEqual, 5.83152, 1e-4)
			})

			Convey("Then a true course is shifted by the latest variation", func() {
				msgs, _, err := decodeJSON(
					`{"timestamp":"2026-08-15-12:00:00.000","src":3,"pgn":127258,"fields":{"Variation":10.0}}`,
					`{"timestamp":"2026-08-15-12:00:01.000","src":3,"pgn":129026,"fields":{"COG Reference":"True","COG":120.0,"SOG":3.0}}`)
				So(err, ShouldBeNil)
				So(msgs[1].Fields[telemetry.ChannelCOG], ShouldAlmostEqual, 110, 1e-9)
			})
		})

		Convey("When decoding a position frame", func() {
			msgs, _, err := decodeJSON(
				`{"timestamp":"2026-08-15-12:00:00.000","src":3,"pgn":129025,"fields":{"Latitude":37.5,"Longitude":-122.5}}`)
			So(err, ShouldBeNil)
			So(msgs[0].Fields[telemetry.ChannelLatitude], ShouldEqual, 37.5)
			So(msgs[0].Fields[telemetry.ChannelLongitude], ShouldEqual, -122.5)
		})

		Convey("When decoding wind frames", func() {
			Convey("Then apparent wind is converted and kept", func() {
				msgs, _, err := decodeJSON(
					`{"timestamp":"2026-08-15-12:00:00.000","src":9,"pgn":130306,"fields":{"Wind Speed":5.0,"Wind Angle":30.0,"Reference":"Apparent"}}`)
				So(err, ShouldBeNil)
				So(msgs[0].Fields[telemetry.ChannelApparentWindSpeed], ShouldAlmostEqual, 9.7192, 1e-4)
				So(msgs[0].Fields[telemetry.ChannelApparentWindAngle], ShouldEqual, 30)
			})

			Convey("Then non-apparent references carry no data", func() {
				msgs, stats, err := decodeJSON(
					`{"timestamp":"2026-08-15-12:00:00.000","src":9,"pgn":130306,"fields":{"Wind Speed":5.0,"Wind Angle":30.0,"Reference":"True (ground referenced to North)"}}`)
				So(err, ShouldBeNil)
				So(stats.Emitted, ShouldEqual, 1)
				So(msgs[0].Fields, ShouldBeNil)
			})
		})

		Convey("When decoding rudder frames", func() {
			Convey("Then instance zero position frames carry the angle", func() {
				msgs, _, err := decodeJSON(
					`{"timestamp":"2026-08-15-12:00:00.000","src":5,"pgn":127245,"fields":{"Instance":0,"Position":-3.0}}`)
				So(err, ShouldBeNil)
				So(msgs[0].Fields[telemetry.ChannelRudderAngle], ShouldEqual, -3)
			})

			Convey("Then other instances are ignored", func() {
				msgs, stats, err := decodeJSON(
					`{"timestamp":"2026-08-15-12:00:00.000","src":5,"pgn":127245,"fields":{"Instance":1,"Position":-3.0}}`)
				So(err, ShouldBeNil)
				So(stats.Emitted, ShouldEqual, 1)
				So(msgs[0].Fields, ShouldBeNil)
			})
		})

		Convey("When input is defective or unused", func() {
			_, stats, err := decodeJSON(
				`{"timestamp":"2026-08-15-12:00:00.000","src":1,"pgn":60928,"fields":{}}`,
				`not json at all`,
				`{"timestamp":"garbage","src":1,"pgn":127250,"fields":{"Heading":1.0}}`,
				`{"timestamp":"2026-08-15-12:00:00.000","src":7,"pgn":127250,"fields":{"Heading":182.4}}`)
			So(err, ShouldBeNil)
			So(stats.Records, ShouldEqual, 4)
			So(stats.Unrecognized, ShouldEqual, 1)
			So(stats.Malformed, ShouldEqual, 2)
			So(stats.Emitted, ShouldEqual, 1)
			So(stats.Emitted+stats.Malformed+stats.Unrecognized, ShouldEqual, stats.Records)
		})
	})
}

func TestDecoderSelection(t *testing.T) {
	Convey("Given the decoder selectors", t, func() {
		Convey("When selecting by file extension", func() {
			d, err := nmea.ForFile("race1.nmea")
			So(err, ShouldBeNil)
			So(d, ShouldHaveSameTypeAs, &nmea.SentenceDecoder{})

			d, err = nmea.ForFile("race1.json")
			So(err, ShouldBeNil)
			So(d, ShouldHaveSameTypeAs, &nmea.CanboatDecoder{})

			_, err = nmea.ForFile("race1.gpx")
			So(err, ShouldWrap, nmea.ErrUnknownEncoding)
		})

		Convey("When sniffing the first record", func() {
			d, err := nmea.Sniff([]byte("  {\"pgn\":1}"))
			So(err, ShouldBeNil)
			So(d, ShouldHaveSameTypeAs, &nmea.CanboatDecoder{})

			d, err = nmea.Sniff([]byte("$GPZDA,"))
			So(err, ShouldBeNil)
			So(d, ShouldHaveSameTypeAs, &nmea.SentenceDecoder{})

			_, err = nmea.Sniff([]byte("PK\x03\x04"))
			So(err, ShouldWrap, nmea.ErrUnknownEncoding)
		})
	})
}
