// Package metrics provides counters for the capture pipeline.
//
// The counters are intentionally hand-rolled rather than pulled from a
// metrics dependency: the live API serves them as JSON, there is no
// Prometheus exposition surface.
package metrics

import "sync/atomic"

// Pipeline tracks what happened to observations on their way into the
// store. All methods are safe for concurrent use.
type Pipeline struct {
	captured         atomic.Int64
	updated          atomic.Int64
	deduplicated     atomic.Int64
	evicted          atomic.Int64
	evictedPending   atomic.Int64
	subscriberDrops  atomic.Int64
	decodeFailures   atomic.Int64
	instrumentFaults atomic.Int64
}

// Snapshot is a point-in-time copy of the pipeline counters.
type Snapshot struct {
	Captured         int64 `json:"captured"`
	Updated          int64 `json:"updated"`
	Deduplicated     int64 `json:"deduplicated"`
	Evicted          int64 `json:"evicted"`
	EvictedPending   int64 `json:"evictedPending"`
	SubscriberDrops  int64 `json:"subscriberDrops"`
	DecodeFailures   int64 `json:"decodeFailures"`
	InstrumentFaults int64 `json:"instrumentFaults"`
}

// Captured counts events accepted into the store.
func (p *Pipeline) Captured() { p.captured.Add(1) }

// Updated counts patches applied to stored events.
func (p *Pipeline) Updated() { p.updated.Add(1) }

// Deduplicated counts request observations suppressed by the dedup window.
func (p *Pipeline) Deduplicated() { p.deduplicated.Add(1) }

// Evicted counts events dropped by FIFO eviction. pending records whether
// the dropped event was still awaiting its completion.
func (p *Pipeline) Evicted(pending bool) {
	p.evicted.Add(1)
	if pending {
		p.evictedPending.Add(1)
	}
}

// SubscriberDropped counts live-feed consumers disconnected for falling
// behind.
func (p *Pipeline) SubscriberDropped() { p.subscriberDrops.Add(1) }

// DecodeFailed counts bodies that degraded to a placeholder.
func (p *Pipeline) DecodeFailed() { p.decodeFailures.Add(1) }

// InstrumentFault counts swallowed instrumentation-side failures.
func (p *Pipeline) InstrumentFault() { p.instrumentFaults.Add(1) }

// Snapshot returns a copy of the current counter values.
func (p *Pipeline) Snapshot() Snapshot {
	return Snapshot{
		Captured:         p.captured.Load(),
		Updated:          p.updated.Load(),
		Deduplicated:     p.deduplicated.Load(),
		Evicted:          p.evicted.Load(),
		EvictedPending:   p.evictedPending.Load(),
		SubscriberDrops:  p.subscriberDrops.Load(),
		DecodeFailures:   p.decodeFailures.Load(),
		InstrumentFaults: p.instrumentFaults.Load(),
	}
}
