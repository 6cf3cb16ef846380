package telemetry_test

import (
	"math"
	"testing"

	"github.com/okian/windward/internal/domain/telemetry"
	. "github.com/smartystreets/goconvey/convey"
)

func TestWrapping(t *testing.T) {
	Convey("Given angle wrapping helpers", t, func() {
		Convey("When wrapping into [0, 360)", func() {
			So(telemetry.Wrap360(0), ShouldEqual, 0)
			So(telemetry.Wrap360(360), ShouldEqual, 0)
			So(telemetry.Wrap360(365), ShouldEqual, 5)
			So(telemetry.Wrap360(-10), ShouldEqual, 350)
			So(telemetry.Wrap360(-370), ShouldEqual, 350)
		})

		Convey("When wrapping into [-180, 180)", func() {
			So(telemetry.Wrap180(0), ShouldEqual, 0)
			So(telemetry.Wrap180(180), ShouldEqual, -180)
			So(telemetry.Wrap180(190), ShouldEqual, -170)
			So(telemetry.Wrap180(-190), ShouldEqual, 170)
			So(telemetry.Wrap180(359), ShouldEqual, -1)
		})
	})
}

func TestArcDelta(t *testing.T) {
	Convey("Given the signed shortest-arc difference", t, func() {
		Convey("When the arc does not cross north", func() {
			So(telemetry.ArcDelta(10, 40), ShouldEqual, 30)
			So(telemetry.ArcDelta(40, 10), ShouldEqual, -30)
		})

		Convey("When the arc crosses north", func() {
			So(telemetry.ArcDelta(350, 10), ShouldEqual, 20)
			So(telemetry.ArcDelta(10, 350), ShouldEqual, -20)
		})

		Convey("Then the magnitude never exceeds 180", func() {
			for a := 0.0; a < 360; a += 17 {
				for b := 0.0; b < 360; b += 23 {
					So(math.Abs(telemetry.ArcDelta(a, b)), ShouldBeLessThanOrEqualTo, 180)
				}
			}
		})
	})
}

func TestLerpArc(t *testing.T) {
	Convey("Given shortest-arc interpolation", t, func() {
		Convey("When interpolating across north", func() {
			So(telemetry.LerpArc(350, 10, 0.5), ShouldAlmostEqual, 0, 1e-9)
			So(telemetry.LerpArc(350, 10, 0.25), ShouldAlmostEqual, 355, 1e-9)
			So(telemetry.LerpArc(350, 10, 0.75), ShouldAlmostEqual, 5, 1e-9)
		})

		Convey("When interpolating a plain arc", func() {
			So(telemetry.LerpArc(10, 20, 0.5), ShouldAlmostEqual, 15, 1e-9)
		})

		Convey("Then the endpoints are reproduced", func() {
			So(telemetry.LerpArc(350, 10, 0), ShouldAlmostEqual, 350, 1e-9)
			So(telemetry.LerpArc(350, 10, 1), ShouldAlmostEqual, 10, 1e-9)
		})
	})
}

func TestCircularMean(t *testing.T) {
	Convey("Given the circular mean", t, func() {
		Convey("When averaging angles around north", func() {
			m := telemetry.CircularMean([]float64{350, 10})
			So(m, ShouldAlmostEqual, 0, 1e-9)
		})

		Convey("When averaging plain angles", func() {
			m := telemetry.CircularMean([]float64{0, 90})
			So(m, ShouldAlmostEqual, 45, 1e-9)
		})

		Convey("When the input is empty", func() {
			So(math.IsNaN(telemetry.CircularMean(nil)), ShouldBeTrue)
		})
	})
}
