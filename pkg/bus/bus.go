// Package bus provides the event-sourced capture strategy: a producer
// emits structured request/response/error observations tagged with a
// correlation id, and any number of listeners consume them.
//
// The bus decouples "who observes" from "how storage reacts": the event
// store is just one listener, wired up with BindStore. This mirrors the
// hook-registry shape used elsewhere in the codebase for recording
// pipelines.
package bus

import (
	"sync"
	"time"
)

// Kind discriminates observation payloads.
type Kind string

// Observation kinds.
const (
	KindRequest  Kind = "request"
	KindResponse Kind = "response"
	KindError    Kind = "error"
)

// Observation is one structured capture event. ID correlates the request
// observation with its eventual response or error.
type Observation struct {
	Kind      Kind              `json:"kind"`
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	Method    string            `json:"method,omitempty"`
	URL       string            `json:"url,omitempty"`
	Headers   map[string]string `json:"headers,omitempty"`
	Body      any               `json:"body,omitempty"`
	Size      int64             `json:"size,omitempty"`

	// Response-only fields. A response observation with a zero Status is
	// an enrichment (late headers or body bytes), not a terminal update.
	Status     int    `json:"status,omitempty"`
	StatusText string `json:"statusText,omitempty"`
	DurationMs int64  `json:"duration,omitempty"`

	// RequestHeaders carries request-side header fields that surfaced
	// after the request observation (e.g. headers written on the wire).
	RequestHeaders map[string]string `json:"requestHeaders,omitempty"`

	// Error-only field.
	Error string `json:"error,omitempty"`
}

// Listener receives observations. Listeners must not block; delivery is
// synchronous with emission.
type Listener func(obs Observation)

// Bus fans observations out to listeners while active. Emissions while
// stopped are dropped.
type Bus struct {
	mu        sync.Mutex
	active    bool
	listeners map[int64]Listener
	nextKey   int64

	emitMu sync.Mutex
}

// New creates a stopped Bus with no listeners.
func New() *Bus {
	return &Bus{listeners: make(map[int64]Listener)}
}

// AddListener registers a listener and returns its unsubscribe function.
// Every listener receives every observation in emission order; the order
// across distinct listeners is unspecified.
func (b *Bus) AddListener(fn Listener) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	b.mu.Lock()
	b.nextKey++
	key := b.nextKey
	b.listeners[key] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.listeners, key)
		b.mu.Unlock()
	}
}

// Start begins capturing. Idempotent.
func (b *Bus) Start() {
	b.mu.Lock()
	b.active = true
	b.mu.Unlock()
}

// Stop halts capturing. Observations emitted while stopped are dropped.
// Idempotent.
func (b *Bus) Stop() {
	b.mu.Lock()
	b.active = false
	b.mu.Unlock()
}

// IsActive reports whether the bus is capturing. Never stale: it reflects
// the latest Start/Stop call.
func (b *Bus) IsActive() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active
}

// Emit delivers the observation to every listener, synchronously, in
// emission order. Returns false when the bus is stopped and the
// observation was dropped.
func (b *Bus) Emit(obs Observation) bool {
	b.mu.Lock()
	if !b.active {
		b.mu.Unlock()
		return false
	}
	fns := make([]Listener, 0, len(b.listeners))
	for _, fn := range b.listeners {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	// Serialize emissions so each listener sees observations in order.
	b.emitMu.Lock()
	defer b.emitMu.Unlock()
	for _, fn := range fns {
		fn(obs)
	}
	return true
}
