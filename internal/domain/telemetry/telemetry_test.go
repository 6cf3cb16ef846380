package telemetry_test

import (
	"math"
	"testing"
	"time"

	"github.com/okian/windward/internal/domain/telemetry"
	. "github.com/smartystreets/goconvey/convey"
)

func TestChannelNames(t *testing.T) {
	Convey("Given the channel name mapping", t, func() {
		Convey("When looking up a known name", func() {
			c, ok := telemetry.ChannelFromName("cog")
			So(ok, ShouldBeTrue)
			So(c, ShouldEqual, telemetry.ChannelCOG)
			So(c.String(), ShouldEqual, "cog")
		})

		Convey("When looking up an unknown name", func() {
			_, ok := telemetry.ChannelFromName("warp")
			So(ok, ShouldBeFalse)
		})

		Convey("Then every listed channel round-trips through its name", func() {
			for _, c := range telemetry.AllChannels {
				back, ok := telemetry.ChannelFromName(c.String())
				So(ok, ShouldBeTrue)
				So(back, ShouldEqual, c)
			}
		})

		Convey("Then only course-like channels are angular", func() {
			So(telemetry.ChannelCOG.Angular(), ShouldBeTrue)
			So(telemetry.ChannelHeading.Angular(), ShouldBeTrue)
			So(telemetry.ChannelTrueWindDirection.Angular(), ShouldBeTrue)
			So(telemetry.ChannelApparentWindAngle.Angular(), ShouldBeFalse)
			So(telemetry.ChannelBoatSpeed.Angular(), ShouldBeFalse)
		})
	})
}

func TestSyncSeries(t *testing.T) {
	Convey("Given a synchronized series", t, func() {
		start := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
		s := telemetry.NewSyncSeries(start, time.Second, 5)

		Convey("Then the tick grid is gapless", func() {
			So(s.Len(), ShouldEqual, 5)
			So(s.Time(0).Equal(start), ShouldBeTrue)
			So(s.Time(4).Equal(start.Add(4*time.Second)), ShouldBeTrue)
		})

		Convey("When a channel is installed", func() {
			s.SetChannel(telemetry.ChannelSOG, []float64{1, 2, math.NaN(), 4, 5})

			Convey("Then present ticks read back", func() {
				v, ok := s.At(telemetry.ChannelSOG, 1)
				So(ok, ShouldBeTrue)
				So(v, ShouldEqual, 2)
			})

			Convey("Then missing ticks are reported as absent", func() {
				_, ok := s.At(telemetry.ChannelSOG, 2)
				So(ok, ShouldBeFalse)
				So(s.Missing(telemetry.ChannelSOG, 2), ShouldBeTrue)
			})

			Convey("Then out-of-range indexes are absent", func() {
				_, ok := s.At(telemetry.ChannelSOG, 9)
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When a channel was never installed", func() {
			So(s.Missing(telemetry.ChannelDepth, 0), ShouldBeTrue)
		})

		Convey("When mapping timestamps onto the grid", func() {
			i, ok := s.IndexOf(start.Add(2500 * time.Millisecond))
			So(ok, ShouldBeTrue)
			So(i, ShouldEqual, 2)

			_, ok = s.IndexOf(start.Add(-time.Second))
			So(ok, ShouldBeFalse)
			_, ok = s.IndexOf(start.Add(time.Minute))
			So(ok, ShouldBeFalse)
		})
	})
}
