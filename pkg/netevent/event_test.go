package netevent

import (
	"testing"
	"time"
)

// ── Outcome classification ───────────────────────────────────────────────────

func TestEvent_Outcome(t *testing.T) {
	tests := []struct {
		name   string
		event  Event
		want   string
	}{
		{"no status no error", Event{}, OutcomePending},
		{"status 200", Event{Status: 200}, OutcomeSuccess},
		{"status 204", Event{Status: 204}, OutcomeSuccess},
		{"status 399", Event{Status: 399}, OutcomeSuccess},
		{"status 400", Event{Status: 400}, OutcomeError},
		{"status 500", Event{Status: 500}, OutcomeError},
		{"transport error", Event{Error: "connection refused"}, OutcomeError},
		{"error wins over status", Event{Status: 200, Error: "aborted"}, OutcomeError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.event.Outcome(); got != tt.want {
				t.Errorf("Outcome() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEvent_Terminal(t *testing.T) {
	if (&Event{}).Terminal() {
		t.Error("empty event should be pending")
	}
	if !(&Event{Status: 200}).Terminal() {
		t.Error("event with status should be terminal")
	}
	if !(&Event{Error: "timeout"}).Terminal() {
		t.Error("event with error should be terminal")
	}
}

// ── URL parsing ──────────────────────────────────────────────────────────────

func TestParseURL(t *testing.T) {
	host, path, query := ParseURL("https://api.example.com/users?page=2")
	if host != "api.example.com" {
		t.Errorf("host = %q", host)
	}
	if path != "/users" {
		t.Errorf("path = %q", path)
	}
	if query != "page=2" {
		t.Errorf("query = %q", query)
	}
}

func TestParseURL_NoPath(t *testing.T) {
	_, path, _ := ParseURL("https://api.example.com")
	if path != "/" {
		t.Errorf("empty path should normalize to /, got %q", path)
	}
}

func TestParseURL_Malformed(t *testing.T) {
	raw := "http://bad url\x7f"
	host, path, query := ParseURL(raw)
	if host != "" {
		t.Errorf("malformed URL should give empty host, got %q", host)
	}
	if path != raw {
		t.Errorf("malformed URL should land raw in path, got %q", path)
	}
	if query != "" {
		t.Errorf("malformed URL should give empty query, got %q", query)
	}
}

// ── Patch semantics ──────────────────────────────────────────────────────────

func TestPatch_Apply(t *testing.T) {
	ev := &Event{
		Method:         "GET",
		URL:            "https://api.example.com/users",
		RequestHeaders: map[string]string{"Accept": "application/json"},
	}

	patch := &Patch{
		Status:          Int(200),
		StatusText:      String("OK"),
		ResponseHeaders: map[string]string{"Content-Type": "application/json"},
		DurationMs:      Int64(150),
	}
	patch.Apply(ev)

	if ev.Status != 200 || ev.StatusText != "OK" {
		t.Errorf("status not applied: %d %q", ev.Status, ev.StatusText)
	}
	if ev.DurationMs != 150 {
		t.Errorf("duration not applied: %d", ev.DurationMs)
	}
	if ev.Method != "GET" || ev.URL != "https://api.example.com/users" {
		t.Error("patch must not touch unrelated fields")
	}
	if ev.RequestHeaders["Accept"] != "application/json" {
		t.Error("patch must not drop existing request headers")
	}
}

func TestPatch_DurationSetOnce(t *testing.T) {
	ev := &Event{}
	(&Patch{DurationMs: Int64(100)}).Apply(ev)
	(&Patch{DurationMs: Int64(999)}).Apply(ev)
	if ev.DurationMs != 100 {
		t.Errorf("duration must be set at most once, got %d", ev.DurationMs)
	}
}

func TestPatch_MergesHeaders(t *testing.T) {
	ev := &Event{RequestHeaders: map[string]string{"Accept": "application/json"}}
	(&Patch{RequestHeaders: map[string]string{"User-Agent": "test/1.0"}}).Apply(ev)
	if len(ev.RequestHeaders) != 2 {
		t.Fatalf("headers should merge, got %v", ev.RequestHeaders)
	}
}

func TestPatch_NilSafe(t *testing.T) {
	var p *Patch
	p.Apply(&Event{})
	(&Patch{}).Apply(nil)
}

// ── Clone ────────────────────────────────────────────────────────────────────

func TestEvent_Clone(t *testing.T) {
	ev := &Event{
		ID:             "evt-1",
		Timestamp:      time.Now(),
		Method:         "POST",
		RequestHeaders: map[string]string{"Accept": "application/json"},
	}
	c := ev.Clone()

	c.RequestHeaders["X-Mutated"] = "yes"
	c.Method = "DELETE"

	if ev.Method != "POST" {
		t.Error("clone mutation leaked into original")
	}
	if _, ok := ev.RequestHeaders["X-Mutated"]; ok {
		t.Error("clone header mutation leaked into original")
	}
}

func TestEvent_ContentType(t *testing.T) {
	ev := &Event{
		RequestHeaders:  map[string]string{"Content-Type": "text/plain"},
		ResponseHeaders: map[string]string{"content-type": "application/json"},
	}
	if got := ev.ContentType(); got != "application/json" {
		t.Errorf("response content type should win, got %q", got)
	}
}
