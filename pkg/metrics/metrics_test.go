package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCounters(t *testing.T) {
	Convey("Given the ingestion counters", t, func() {
		Convey("When recording decode outcomes", func() {
			before := testutil.ToFloat64(inputRecords)
			RecordInputRecord()
			RecordInputRecord()
			RecordMalformedRecord()
			RecordUnrecognizedRecord()

			Convey("Then the counters advance", func() {
				So(testutil.ToFloat64(inputRecords), ShouldEqual, before+2)
			})
		})

		Convey("When recording pipeline progress", func() {
			before := testutil.ToFloat64(polarSamples)
			RecordResolvedSamples("cog", 42)
			RecordSyncTicks(1200)
			ObserveStageDuration("decode", 12*time.Millisecond)
			RecordLegSegmented()
			RecordEmptyLeg()
			RecordPolarSamples(50)
			UpdateLowConfidenceBins(3)

			Convey("Then accumulators reflect the additions", func() {
				So(testutil.ToFloat64(polarSamples), ShouldEqual, before+50)
				So(testutil.ToFloat64(lowConfidenceBins), ShouldEqual, 3)
			})
		})
	})
}
