// Package resolve chooses one producing source per channel when redundant
// sensors transmit the same measurement.
//
// Resolution happens once per session: a channel either has a pinned source
// from configuration or falls back to the first source observed for it in
// the data. The chosen source never changes mid-session, so transient
// signal quality cannot reintroduce the ambiguity pinning exists to remove.
package resolve

import (
	"context"
	"fmt"
	"sort"

	"github.com/okian/windward/internal/domain/telemetry"
	"github.com/okian/windward/pkg/logger"
	"github.com/okian/windward/pkg/metrics"
)

// SourceCensus lists the distinct sources observed for one channel,
// exposed so a user can pick the correct pin for the next run.
type SourceCensus struct {
	Channel telemetry.Channel `json:"channel"`
	Counts  map[string]int    `json:"counts"`
	Chosen  string            `json:"chosen"`
	Pinned  bool              `json:"pinned"`
}

// Result is the resolver output: one ordered sample sequence per channel
// plus the per-channel source census.
type Result struct {
	Samples map[telemetry.Channel][]telemetry.ChannelSample
	Census  []SourceCensus
	// PinErrors holds one error per channel whose pinned source was never
	// observed. Those channels are absent from Samples; downstream stages
	// treat them as entirely missing rather than falling back.
	PinErrors []error
}

// Resolver applies per-channel source pins with a first-observed default.
type Resolver struct {
	pins map[telemetry.Channel]string
	log  logger.Logger
}

// Option applies a configuration option to the Resolver.
type Option func(*Resolver)

// WithPin pins channel c to the given source.
func WithPin(c telemetry.Channel, source string) Option {
	return func(r *Resolver) {
		if source != "" {
			r.pins[c] = source
		}
	}
}

// WithPins pins every channel in the map at once.
func WithPins(pins map[telemetry.Channel]string) Option {
	return func(r *Resolver) {
		for c, s := range pins {
			if s != "" {
				r.pins[c] = s
			}
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.log = l
		}
	}
}

// New constructs a Resolver.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		pins: make(map[telemetry.Channel]string),
		log:  logger.Get().Named("resolve"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve scans the message sequence and produces one sample stream per
// channel. Messages are consumed in input order; ordering in time is the
// synchronizer's job.
func (r *Resolver) Resolve(ctx context.Context, msgs []telemetry.RawMessage) *Result {
	counts := make(map[telemetry.Channel]map[string]int)
	firstSeen := make(map[telemetry.Channel]string)
	for _, m := range msgs {
		for c := range m.Fields {
			if counts[c] == nil {
				counts[c] = make(map[string]int)
				firstSeen[c] = m.Source
			}
			counts[c][m.Source]++
		}
	}

	res := &Result{Samples: make(map[telemetry.Channel][]telemetry.ChannelSample)}
	chosen := make(map[telemetry.Channel]string)
	for c := range counts {
		want, pinned := r.pins[c]
		switch {
		case pinned && counts[c][want] == 0:
			res.PinErrors = append(res.PinErrors, fmt.Errorf(
				"%w: channel %s pinned to source %q, observed %v",
				ErrPinnedSourceAbsent, c, want, sourceList(counts[c])))
			r.log.Warn(ctx, "pinned source never observed",
				logger.String("channel", c.String()),
				logger.String("pin", want))
			continue
		case pinned:
			chosen[c] = want
		default:
			chosen[c] = firstSeen[c]
		}
		res.Census = append(res.Census, SourceCensus{
			Channel: c,
			Counts:  counts[c],
			Chosen:  chosen[c],
			Pinned:  pinned,
		})
	}
	sort.Slice(res.Census, func(i, j int) bool { return res.Census[i].Channel < res.Census[j].Channel })

	for _, m := range msgs {
		for c, v := range m.Fields {
			if chosen[c] != m.Source {
				continue
			}
			res.Samples[c] = append(res.Samples[c], telemetry.ChannelSample{
				Timestamp: m.Timestamp,
				Value:     v,
				Source:    m.Source,
			})
		}
	}
	for c, samples := range res.Samples {
		metrics.RecordResolvedSamples(c.String(), len(samples))
	}
	return res
}

func sourceList(counts map[string]int) []string {
	out := make([]string, 0, len(counts))
	for s := range counts {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
