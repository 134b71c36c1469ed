package netevent

import "sort"

// Stats is an aggregate over a snapshot of events. It is derived on
// demand and never stored.
type Stats struct {
	TotalRequests      int     `json:"totalRequests"`
	SuccessfulRequests int     `json:"successfulRequests"`
	FailedRequests     int     `json:"failedRequests"`
	PendingRequests    int     `json:"pendingRequests"`
	TotalRequestSize   int64   `json:"totalRequestSize"`
	TotalResponseSize  int64   `json:"totalResponseSize"`
	AverageDurationMs  float64 `json:"averageDuration"`
}

// ComputeStats aggregates outcome counts, size sums and mean duration over
// the given events. The mean covers only events that carry a duration;
// events without one are excluded from it, not counted as zero.
func ComputeStats(events []*Event) Stats {
	var s Stats
	var durationSum int64
	var durationCount int

	for _, e := range events {
		if e == nil {
			continue
		}
		s.TotalRequests++
		switch e.Outcome() {
		case OutcomeSuccess:
			s.SuccessfulRequests++
		case OutcomeError:
			s.FailedRequests++
		default:
			s.PendingRequests++
		}
		s.TotalRequestSize += e.RequestSize
		s.TotalResponseSize += e.ResponseSize
		if e.DurationMs > 0 {
			durationSum += e.DurationMs
			durationCount++
		}
	}

	if durationCount > 0 {
		s.AverageDurationMs = float64(durationSum) / float64(durationCount)
	}
	return s
}

// UniqueHosts returns the distinct hosts across the events, sorted.
func UniqueHosts(events []*Event) []string {
	return uniqueField(events, func(e *Event) string { return e.Host })
}

// UniqueMethods returns the distinct methods across the events, sorted.
func UniqueMethods(events []*Event) []string {
	return uniqueField(events, func(e *Event) string { return e.Method })
}

func uniqueField(events []*Event, field func(*Event) string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, e := range events {
		if e == nil {
			continue
		}
		v := field(e)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
