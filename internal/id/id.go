// Package id provides unique identifier generation for captured events.
// This is the canonical source for ID generation across the netlens codebase.
package id

import (
	"strconv"
	"sync"
	"time"
)

var (
	mu      sync.Mutex
	lastMs  int64
	counter int64
)

// Event generates a correlation id for a captured network event.
// Format: "evt-" + base36 millisecond timestamp + "-" + base36 counter.
// The counter increments monotonically within a millisecond, so ids are
// unique within a process and sort chronologically.
func Event() string {
	mu.Lock()
	now := time.Now().UnixMilli()
	if now != lastMs {
		lastMs = now
		counter = 0
	}
	counter++
	n := counter
	mu.Unlock()

	return "evt-" + strconv.FormatInt(now, 36) + "-" + strconv.FormatInt(n, 36)
}
