// Package store provides the bounded, time-ordered event log that every
// capture path feeds and every consumer reads.
//
// The store is the single owner of event state. Capture code records a
// pending event with AddEvent, then resolves it with UpdateEvent; nothing
// else mutates a stored event. Reads return defensive copies.
package store

import (
	"log/slog"
	"sync"
	"time"

	"github.com/netlens/netlens/internal/id"
	"github.com/netlens/netlens/pkg/metrics"
	"github.com/netlens/netlens/pkg/netevent"
)

// DefaultMaxEvents is the default history capacity.
const DefaultMaxEvents = 500

// Options configures a Store.
type Options struct {
	// MaxEvents is the history capacity. Non-positive means
	// DefaultMaxEvents.
	MaxEvents int

	// DedupWindow is the suppression window for the observed-ingest path.
	// Non-positive means netevent.DefaultDedupWindow.
	DedupWindow time.Duration

	// Metrics receives pipeline counters. Nil means a private instance.
	Metrics *metrics.Pipeline

	// OnEvict is called with each event dropped by FIFO eviction, after
	// the store state settles. The callback must not mutate the event.
	OnEvict func(ev *netevent.Event)

	// Logger is used for debug logging. Nil means logging is disabled.
	Logger *slog.Logger
}

// Subscriber receives the full current snapshot after every mutation.
type Subscriber func(events []*netevent.Event)

// Store is a bounded in-memory event log with subscriber fan-out.
// The oldest event is evicted first when capacity is exceeded, regardless
// of whether it is still pending.
type Store struct {
	maxEvents int
	deduper   *netevent.Deduper
	metrics   *metrics.Pipeline
	onEvict   func(ev *netevent.Event)
	log       *slog.Logger

	mu     sync.RWMutex
	events []*netevent.Event

	subMu       sync.Mutex
	subscribers map[int64]Subscriber
	nextSubID   int64
}

// New creates a Store with the given options.
func New(opts Options) *Store {
	maxEvents := opts.MaxEvents
	if maxEvents <= 0 {
		maxEvents = DefaultMaxEvents
	}
	m := opts.Metrics
	if m == nil {
		m = &metrics.Pipeline{}
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Store{
		maxEvents:   maxEvents,
		deduper:     netevent.NewDeduper(opts.DedupWindow),
		metrics:     m,
		onEvict:     opts.OnEvict,
		log:         log,
		events:      make([]*netevent.Event, 0, maxEvents),
		subscribers: make(map[int64]Subscriber),
	}
}

// AddEvent records an event and returns its id. A missing id or timestamp
// is assigned. The event is stored as given; callers must not retain and
// mutate it afterwards.
func (s *Store) AddEvent(ev *netevent.Event) string {
	if ev == nil {
		return ""
	}

	s.mu.Lock()
	if ev.ID == "" {
		ev.ID = id.Event()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	// FIFO eviction: drop the oldest beyond capacity.
	var evicted *netevent.Event
	if len(s.events) >= s.maxEvents {
		evicted = s.events[0]
		s.events = s.events[1:]
		s.metrics.Evicted(!evicted.Terminal())
	}
	s.events = append(s.events, ev)
	s.mu.Unlock()

	if evicted != nil && s.onEvict != nil {
		s.onEvict(evicted)
	}
	s.metrics.Captured()
	s.log.Debug("event captured", "id", ev.ID, "method", ev.Method, "url", ev.URL)
	s.notify()
	return ev.ID
}

// AddObserved is the ingest path for bus-fed observations. It applies the
// dedup window keyed by method+url; a suppressed duplicate returns false
// with no id and no notification.
func (s *Store) AddObserved(ev *netevent.Event) (string, bool) {
	if ev == nil {
		return "", false
	}
	ts := ev.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	if !s.deduper.ShouldRecord(ev.Method, ev.URL, ts) {
		s.metrics.Deduplicated()
		s.log.Debug("duplicate observation suppressed", "method", ev.Method, "url", ev.URL)
		return "", false
	}
	return s.AddEvent(ev), true
}

// UpdateEvent shallow-merges the patch into the event with the given id.
// An unknown id (e.g. an already-evicted event) is a silent no-op: it
// never creates a record and never fails.
func (s *Store) UpdateEvent(eventID string, patch *netevent.Patch) {
	if eventID == "" || patch == nil {
		return
	}

	s.mu.Lock()
	var found bool
	for _, ev := range s.events {
		if ev.ID == eventID {
			patch.Apply(ev)
			found = true
			break
		}
	}
	s.mu.Unlock()

	if !found {
		return
	}
	s.metrics.Updated()
	s.notify()
}

// ClearEvents empties the store and notifies each subscriber once.
func (s *Store) ClearEvents() {
	s.mu.Lock()
	s.events = make([]*netevent.Event, 0, s.maxEvents)
	s.mu.Unlock()
	s.notify()
}

// Events returns the current snapshot, most recent first. The returned
// events are deep copies; mutating them does not affect the store.
func (s *Store) Events() []*netevent.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// EventByID returns a copy of the event with the given id, or nil.
func (s *Store) EventByID(eventID string) *netevent.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ev := range s.events {
		if ev.ID == eventID {
			return ev.Clone()
		}
	}
	return nil
}

// Len returns the number of stored events.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// Stats computes aggregate statistics over the current snapshot.
func (s *Store) Stats() netevent.Stats {
	s.mu.RLock()
	events := make([]*netevent.Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()
	return netevent.ComputeStats(events)
}

// Metrics returns the pipeline counters this store reports into.
func (s *Store) Metrics() *metrics.Pipeline {
	return s.metrics
}

// Subscribe registers a callback invoked with the full snapshot after
// every add, update and clear. The returned function unsubscribes; after
// it returns the callback is never invoked again.
func (s *Store) Subscribe(fn Subscriber) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	s.subMu.Lock()
	s.nextSubID++
	key := s.nextSubID
	s.subscribers[key] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subscribers, key)
		s.subMu.Unlock()
	}
}

// notify pushes the current snapshot to every subscriber. Callbacks run
// synchronously with the triggering mutation but outside the state lock,
// so a subscriber may call back into the store.
func (s *Store) notify() {
	s.subMu.Lock()
	subs := make([]Subscriber, 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()

	if len(subs) == 0 {
		return
	}

	s.mu.RLock()
	snapshot := s.snapshotLocked()
	s.mu.RUnlock()

	for _, fn := range subs {
		fn(snapshot)
	}
}

func (s *Store) snapshotLocked() []*netevent.Event {
	out := make([]*netevent.Event, 0, len(s.events))
	for i := len(s.events) - 1; i >= 0; i-- {
		out = append(out, s.events[i].Clone())
	}
	return out
}
