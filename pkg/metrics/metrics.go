// Package metrics provides Prometheus metrics for the windward telemetry
// engine. All helpers are safe for concurrent use; race pipelines running
// in parallel increment the same counters.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "windward"
)

var (
	// Ingestion metrics.
	inputRecords = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "input_records_total",
		Help:      "Input records seen across all decode passes.",
	})
	malformedRecords = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "malformed_records_total",
		Help:      "Records skipped as parse defects.",
	})
	unrecognizedRecords = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "unrecognized_records_total",
		Help:      "Records of message types the engine does not use.",
	})

	// Pipeline metrics.
	resolvedSamples = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "resolved_samples_total",
		Help:      "Channel samples that passed source resolution.",
	}, []string{"channel"})
	syncTicks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sync_ticks_total",
		Help:      "Uniform-grid ticks produced by the synchronizer.",
	})
	stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "stage_duration_seconds",
		Help:      "Wall time per pipeline stage.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
	}, []string{"stage"})

	// Segmentation and aggregation metrics.
	legsSegmented = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "legs_segmented_total",
		Help:      "Legs that produced a record.",
	})
	emptyLegs = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "empty_legs_total",
		Help:      "Configured legs with no matching ticks.",
	})
	polarSamples = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "polar_samples_total",
		Help:      "Boat-speed samples accumulated into polar bins.",
	})
	lowConfidenceBins = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "polar_low_confidence_bins",
		Help:      "Bins under the minimum-sample threshold in the last table built.",
	})
)

// RecordInputRecord counts one input record.
func RecordInputRecord() { inputRecords.Inc() }

// RecordMalformedRecord counts one parse defect.
func RecordMalformedRecord() { malformedRecords.Inc() }

// RecordUnrecognizedRecord counts one dropped record of an unused type.
func RecordUnrecognizedRecord() { unrecognizedRecords.Inc() }

// RecordResolvedSamples counts samples that passed resolution for channel c.
func RecordResolvedSamples(channel string, n int) {
	resolvedSamples.WithLabelValues(channel).Add(float64(n))
}

// RecordSyncTicks counts ticks produced by the synchronizer.
func RecordSyncTicks(n int) { syncTicks.Add(float64(n)) }

// ObserveStageDuration records the wall time of one pipeline stage.
func ObserveStageDuration(stage string, d time.Duration) {
	stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordLegSegmented counts a leg that produced a record.
func RecordLegSegmented() { legsSegmented.Inc() }

// RecordEmptyLeg counts a configured leg with no matching ticks.
func RecordEmptyLeg() { emptyLegs.Inc() }

// RecordPolarSamples counts samples accumulated into polar bins.
func RecordPolarSamples(n int) { polarSamples.Add(float64(n)) }

// UpdateLowConfidenceBins sets the low-confidence bin gauge.
func UpdateLowConfidenceBins(n int) { lowConfidenceBins.Set(float64(n)) }
