package netevent

import (
	"sync"
	"time"
)

const (
	// DefaultDedupWindow is the trailing window within which a second
	// request-start observation of the same method+url is suppressed.
	DefaultDedupWindow = 50 * time.Millisecond

	// dedupMaxAge bounds the bookkeeping map: entries older than this are
	// pruned on every decision.
	dedupMaxAge = 5 * time.Second
)

// Deduper suppresses duplicate request-start observations. Two
// instrumentation paths can report the same logical call; the second
// report of a method+url pair inside the window is dropped.
type Deduper struct {
	window time.Duration

	mu   sync.Mutex
	seen map[string]time.Time
}

// NewDeduper creates a Deduper with the given window. A non-positive
// window falls back to DefaultDedupWindow.
func NewDeduper(window time.Duration) *Deduper {
	if window <= 0 {
		window = DefaultDedupWindow
	}
	return &Deduper{
		window: window,
		seen:   make(map[string]time.Time),
	}
}

// ShouldRecord reports whether a request-start observation for method+url
// at the given time is the first within the window. The first observation
// records itself; suppressed duplicates do not extend the window.
func (d *Deduper) ShouldRecord(method, url string, now time.Time) bool {
	key := DedupKey(method, url)

	d.mu.Lock()
	defer d.mu.Unlock()

	for k, t := range d.seen {
		if now.Sub(t) > dedupMaxAge {
			delete(d.seen, k)
		}
	}

	if last, ok := d.seen[key]; ok && now.Sub(last) < d.window {
		return false
	}
	d.seen[key] = now
	return true
}

// DedupKey builds the suppression key for a method+url pair.
func DedupKey(method, url string) string {
	return method + " " + url
}
