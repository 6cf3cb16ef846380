package resolve_test

import (
	"context"
	"testing"
	"time"

	"github.com/okian/windward/internal/domain/resolve"
	"github.com/okian/windward/internal/domain/telemetry"
	"github.com/okian/windward/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

func msg(ts time.Time, source string, c telemetry.Channel, v float64) telemetry.RawMessage {
	return telemetry.RawMessage{
		Timestamp: ts,
		Type:      "TEST",
		Source:    source,
		Fields:    map[telemetry.Channel]float64{c: v},
	}
}

func TestResolver(t *testing.T) {
	Convey("Given redundant sources for one channel", t, func() {
		t0 := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
		msgs := []telemetry.RawMessage{
			msg(t0, "GP", telemetry.ChannelCOG, 100),
			msg(t0.Add(time.Second), "II", telemetry.ChannelCOG, 105),
			msg(t0.Add(2*time.Second), "GP", telemetry.ChannelCOG, 110),
		}

		Convey("When no pin is configured", func() {
			res := resolve.New().Resolve(context.Background(), msgs)

			Convey("Then the first observed source wins", func() {
				samples := res.Samples[telemetry.ChannelCOG]
				So(len(samples), ShouldEqual, 2)
				So(samples[0].Source, ShouldEqual, "GP")
				So(samples[0].Value, ShouldEqual, 100)
				So(samples[1].Value, ShouldEqual, 110)
			})

			Convey("Then the census reports every source", func() {
				So(len(res.Census), ShouldEqual, 1)
				census := res.Census[0]
				So(census.Channel, ShouldEqual, telemetry.ChannelCOG)
				So(census.Counts["GP"], ShouldEqual, 2)
				So(census.Counts["II"], ShouldEqual, 1)
				So(census.Chosen, ShouldEqual, "GP")
				So(census.Pinned, ShouldBeFalse)
			})
		})

		Convey("When the channel is pinned to the minority source", func() {
			res := resolve.New(
				resolve.WithPin(telemetry.ChannelCOG, "II"),
			).Resolve(context.Background(), msgs)

			Convey("Then only the pinned source's samples survive", func() {
				samples := res.Samples[telemetry.ChannelCOG]
				So(len(samples), ShouldEqual, 1)
				So(samples[0].Source, ShouldEqual, "II")
				So(res.Census[0].Pinned, ShouldBeTrue)
				So(res.PinErrors, ShouldBeEmpty)
			})
		})

		Convey("When the pinned source was never observed", func() {
			res := resolve.New(
				resolve.WithPin(telemetry.ChannelCOG, "WI"),
			).Resolve(context.Background(), msgs)

			Convey("Then the channel is absent rather than substituted", func() {
				_, present := res.Samples[telemetry.ChannelCOG]
				So(present, ShouldBeFalse)
				So(len(res.PinErrors), ShouldEqual, 1)
				So(res.PinErrors[0], ShouldWrap, resolve.ErrPinnedSourceAbsent)
			})
		})

		Convey("When channels come from different sources", func() {
			mixed := append(msgs,
				msg(t0, "SD", telemetry.ChannelBoatSpeed, 5.7))
			res := resolve.New(
				resolve.WithPins(map[telemetry.Channel]string{telemetry.ChannelCOG: "II"}),
			).Resolve(context.Background(), mixed)

			Convey("Then pins apply per channel only", func() {
				So(len(res.Samples[telemetry.ChannelCOG]), ShouldEqual, 1)
				So(len(res.Samples[telemetry.ChannelBoatSpeed]), ShouldEqual, 1)
				So(res.Samples[telemetry.ChannelBoatSpeed][0].Source, ShouldEqual, "SD")
			})
		})
	})
}
