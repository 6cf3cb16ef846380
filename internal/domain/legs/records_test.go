package legs_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/okian/windward/internal/domain/legs"
	"github.com/okian/windward/internal/domain/telemetry"
	. "github.com/smartystreets/goconvey/convey"
)

func TestBoardDetection(t *testing.T) {
	Convey("Given a leg with a tack in the middle", t, func() {
		ctx := context.Background()
		s := legs.New(legs.WithTackBand(25, 165))

		n := 40
		series := testSeries(n)
		awa := make([]float64, n)
		for i := range awa {
			switch {
			case i < 15:
				awa[i] = 40 // starboard
			case i < 20:
				awa[i] = 5 // head to wind, mid-tack
			default:
				awa[i] = -40 // port
			}
		}
		series.SetChannel(telemetry.ChannelApparentWindAngle, awa)

		start, end := window(0, n)
		recs, err := s.Segment(ctx, series, []legs.Leg{
			{ID: "tack", Start: start, End: end},
		})
		So(err, ShouldBeNil)
		boards := recs[0].Boards

		Convey("Then the leg splits into two boards", func() {
			So(len(boards), ShouldEqual, 2)
			So(boards[0].Board, ShouldEqual, legs.BoardStarboard)
			So(boards[1].Board, ShouldEqual, legs.BoardPort)
		})

		Convey("Then the first board ends at the last settled sample", func() {
			So(boards[0].End.Equal(gridStart.Add(14*time.Second)), ShouldBeTrue)
			So(boards[1].Start.Equal(gridStart.Add(20*time.Second)), ShouldBeTrue)
		})
	})

	Convey("Given a leg that never tacks", t, func() {
		ctx := context.Background()
		s := legs.New()
		series := testSeries(30)

		start, end := window(0, 30)
		recs, err := s.Segment(ctx, series, []legs.Leg{
			{ID: "straight", Start: start, End: end},
		})
		So(err, ShouldBeNil)

		Convey("Then there is a single board record", func() {
			So(len(recs[0].Boards), ShouldEqual, 1)
			So(recs[0].Boards[0].Board, ShouldEqual, legs.BoardStarboard)
		})
	})
}

func TestMinuteRecords(t *testing.T) {
	Convey("Given a leg spanning several minutes", t, func() {
		ctx := context.Background()
		s := legs.New()
		series := testSeries(150)

		Convey("When the leg starts mid-minute", func() {
			start, end := window(30, 150)
			recs, err := s.Segment(ctx, series, []legs.Leg{
				{ID: "mins", Start: start, End: end},
			})
			So(err, ShouldBeNil)
			minutes := recs[0].Minutes

			Convey("Then groups align on whole minutes of the clock", func() {
				So(len(minutes), ShouldEqual, 3)
				So(minutes[0].Start.Equal(gridStart), ShouldBeTrue)
				So(minutes[1].Start.Equal(gridStart.Add(time.Minute)), ShouldBeTrue)
				So(minutes[2].Start.Equal(gridStart.Add(2*time.Minute)), ShouldBeTrue)
			})

			Convey("Then averages cover only the leg's ticks", func() {
				sog, ok := minutes[0].Values[telemetry.ChannelSOG]
				So(ok, ShouldBeTrue)
				So(sog, ShouldAlmostEqual, 5, 1e-9)
			})

			Convey("Then each minute carries the active board", func() {
				So(minutes[0].Board, ShouldEqual, legs.BoardStarboard)
			})
		})

		Convey("When the heading oscillates around north", func() {
			n := 60
			oscillating := testSeries(n)
			hdg := make([]float64, n)
			for i := range hdg {
				if i%2 == 0 {
					hdg[i] = 350
				} else {
					hdg[i] = 10
				}
			}
			oscillating.SetChannel(telemetry.ChannelHeading, hdg)

			start, end := window(0, n)
			recs, err := s.Segment(ctx, oscillating, []legs.Leg{
				{ID: "north", Start: start, End: end},
			})
			So(err, ShouldBeNil)

			Convey("Then the minute mean does not collapse to 180", func() {
				m, ok := recs[0].Minutes[0].Values[telemetry.ChannelHeading]
				So(ok, ShouldBeTrue)
				So(math.Abs(telemetry.ArcDelta(0, m)), ShouldBeLessThan, 1e-6)
			})
		})
	})
}
