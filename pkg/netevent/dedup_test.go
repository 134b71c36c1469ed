package netevent

import (
	"testing"
	"time"
)

func TestDeduper_SuppressesWithinWindow(t *testing.T) {
	d := NewDeduper(50 * time.Millisecond)
	t0 := time.Now()

	if !d.ShouldRecord("GET", "https://api.example.com/users", t0) {
		t.Fatal("first observation must record")
	}
	if d.ShouldRecord("GET", "https://api.example.com/users", t0.Add(10*time.Millisecond)) {
		t.Error("duplicate 10ms later must be suppressed")
	}
}

func TestDeduper_RecordsOutsideWindow(t *testing.T) {
	d := NewDeduper(50 * time.Millisecond)
	t0 := time.Now()

	d.ShouldRecord("GET", "https://api.example.com/users", t0)
	if !d.ShouldRecord("GET", "https://api.example.com/users", t0.Add(60*time.Millisecond)) {
		t.Error("observation 60ms later must record")
	}
}

func TestDeduper_KeyedByMethodAndURL(t *testing.T) {
	d := NewDeduper(50 * time.Millisecond)
	t0 := time.Now()

	d.ShouldRecord("GET", "https://api.example.com/users", t0)
	if !d.ShouldRecord("POST", "https://api.example.com/users", t0) {
		t.Error("different method must not be suppressed")
	}
	if !d.ShouldRecord("GET", "https://api.example.com/orders", t0) {
		t.Error("different url must not be suppressed")
	}
}

func TestDeduper_SuppressedDuplicateDoesNotExtendWindow(t *testing.T) {
	d := NewDeduper(50 * time.Millisecond)
	t0 := time.Now()

	d.ShouldRecord("GET", "https://x.test/", t0)
	d.ShouldRecord("GET", "https://x.test/", t0.Add(40*time.Millisecond))
	// 55ms after the first recorded observation; the suppressed one at
	// 40ms must not have restarted the window.
	if !d.ShouldRecord("GET", "https://x.test/", t0.Add(55*time.Millisecond)) {
		t.Error("window measured from the recorded observation, not the suppressed one")
	}
}

func TestDeduper_PrunesStaleEntries(t *testing.T) {
	d := NewDeduper(50 * time.Millisecond)
	t0 := time.Now()

	for i := 0; i < 100; i++ {
		d.ShouldRecord("GET", "https://x.test/", t0.Add(time.Duration(i)*100*time.Millisecond))
	}
	// One decision far in the future prunes everything older than 5s.
	d.ShouldRecord("GET", "https://y.test/", t0.Add(time.Hour))

	d.mu.Lock()
	n := len(d.seen)
	d.mu.Unlock()
	if n != 1 {
		t.Errorf("stale entries should be pruned, %d left", n)
	}
}

func TestDeduper_DefaultWindow(t *testing.T) {
	d := NewDeduper(0)
	if d.window != DefaultDedupWindow {
		t.Errorf("window = %v", d.window)
	}
}
