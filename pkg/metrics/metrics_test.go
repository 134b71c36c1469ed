package metrics

import (
	"sync"
	"testing"
)

func TestSnapshot(t *testing.T) {
	var p Pipeline
	p.Captured()
	p.Captured()
	p.Updated()
	p.Deduplicated()
	p.Evicted(false)
	p.Evicted(true)
	p.SubscriberDropped()
	p.DecodeFailed()
	p.InstrumentFault()

	snap := p.Snapshot()
	if snap.Captured != 2 {
		t.Errorf("Captured = %d, want 2", snap.Captured)
	}
	if snap.Updated != 1 {
		t.Errorf("Updated = %d, want 1", snap.Updated)
	}
	if snap.Deduplicated != 1 {
		t.Errorf("Deduplicated = %d, want 1", snap.Deduplicated)
	}
	if snap.Evicted != 2 {
		t.Errorf("Evicted = %d, want 2", snap.Evicted)
	}
	if snap.EvictedPending != 1 {
		t.Errorf("EvictedPending = %d, want 1", snap.EvictedPending)
	}
	if snap.SubscriberDrops != 1 {
		t.Errorf("SubscriberDrops = %d, want 1", snap.SubscriberDrops)
	}
	if snap.DecodeFailures != 1 {
		t.Errorf("DecodeFailures = %d, want 1", snap.DecodeFailures)
	}
	if snap.InstrumentFaults != 1 {
		t.Errorf("InstrumentFaults = %d, want 1", snap.InstrumentFaults)
	}
}

func TestConcurrentCounting(t *testing.T) {
	var p Pipeline
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				p.Captured()
			}
		}()
	}
	wg.Wait()

	if got := p.Snapshot().Captured; got != 1000 {
		t.Errorf("Captured = %d, want 1000", got)
	}
}
