package netevent

import (
	"net/url"
	"strings"
	"time"
)

// Outcome buckets for a captured call.
const (
	// OutcomeSuccess means the call resolved with a status in [200,400).
	OutcomeSuccess = "success"
	// OutcomeError means the call resolved with status >= 400 or a
	// transport-level error.
	OutcomeError = "error"
	// OutcomePending means the call has neither status nor error yet.
	OutcomePending = "pending"
)

// Event captures one observed HTTP call made by the host application.
type Event struct {
	// ID is the correlation key linking the request-start observation to
	// its eventual completion. Assigned at capture time, never reassigned.
	ID string `json:"id"`

	// Timestamp is when the call started.
	Timestamp time.Time `json:"timestamp"`

	// Method is the HTTP method, upper-cased at capture time.
	Method string `json:"method"`

	// URL is the full request URL as seen by the client.
	URL string `json:"url"`

	// Host, Path and Query are the decomposed URL. On a parse failure the
	// raw string lands in Path with an empty Host.
	Host  string `json:"host,omitempty"`
	Path  string `json:"path,omitempty"`
	Query string `json:"query,omitempty"`

	// Status is the response status code. Zero until the call resolves.
	Status int `json:"status,omitempty"`

	// StatusText is the response status line text.
	StatusText string `json:"statusText,omitempty"`

	// Error is the transport failure, timeout or abort message. Mutually
	// exclusive with a successful Status.
	Error string `json:"error,omitempty"`

	// RequestHeaders and ResponseHeaders are populated incrementally as
	// they become available.
	RequestHeaders  map[string]string `json:"requestHeaders,omitempty"`
	ResponseHeaders map[string]string `json:"responseHeaders,omitempty"`

	// RequestBody and ResponseBody hold best-effort decoded bodies:
	// parsed JSON, raw text, or a BinaryPlaceholder for opaque payloads.
	RequestBody  any `json:"requestData,omitempty"`
	ResponseBody any `json:"responseData,omitempty"`

	// RequestSize and ResponseSize are byte-count estimates, zero when
	// unknown.
	RequestSize  int64 `json:"requestSize"`
	ResponseSize int64 `json:"responseSize"`

	// DurationMs is completion time minus start time in milliseconds.
	// Set exactly once, alongside the terminal status or error.
	DurationMs int64 `json:"duration,omitempty"`
}

// Outcome classifies the event as success, error or pending.
func (e *Event) Outcome() string {
	if e.Error != "" || e.Status >= 400 {
		return OutcomeError
	}
	if e.Status >= 200 && e.Status < 400 {
		return OutcomeSuccess
	}
	return OutcomePending
}

// Terminal reports whether the event has received its completion update.
func (e *Event) Terminal() bool {
	return e.Status != 0 || e.Error != ""
}

// ContentType returns the response content type header, falling back to
// the request's when no response has arrived.
func (e *Event) ContentType() string {
	if ct := headerValue(e.ResponseHeaders, "Content-Type"); ct != "" {
		return ct
	}
	return headerValue(e.RequestHeaders, "Content-Type")
}

// Clone returns a deep copy of the event. Header maps are copied; decoded
// bodies are shared because the store never mutates them after recording.
func (e *Event) Clone() *Event {
	if e == nil {
		return nil
	}
	c := *e
	c.RequestHeaders = cloneHeaders(e.RequestHeaders)
	c.ResponseHeaders = cloneHeaders(e.ResponseHeaders)
	return &c
}

// Patch is a shallow-merge update applied to an existing event. Nil fields
// are left untouched; header maps are merged key by key.
type Patch struct {
	Status          *int
	StatusText      *string
	Error           *string
	RequestHeaders  map[string]string
	ResponseHeaders map[string]string
	RequestBody     any
	ResponseBody    any
	RequestSize     *int64
	ResponseSize    *int64
	DurationMs      *int64
}

// Apply merges the patch into the event.
func (p *Patch) Apply(e *Event) {
	if p == nil || e == nil {
		return
	}
	if p.Status != nil {
		e.Status = *p.Status
	}
	if p.StatusText != nil {
		e.StatusText = *p.StatusText
	}
	if p.Error != nil {
		e.Error = *p.Error
	}
	if len(p.RequestHeaders) > 0 {
		e.RequestHeaders = mergeHeaders(e.RequestHeaders, p.RequestHeaders)
	}
	if len(p.ResponseHeaders) > 0 {
		e.ResponseHeaders = mergeHeaders(e.ResponseHeaders, p.ResponseHeaders)
	}
	if p.RequestBody != nil {
		e.RequestBody = p.RequestBody
	}
	if p.ResponseBody != nil {
		e.ResponseBody = p.ResponseBody
	}
	if p.RequestSize != nil {
		e.RequestSize = *p.RequestSize
	}
	if p.ResponseSize != nil {
		e.ResponseSize = *p.ResponseSize
	}
	if p.DurationMs != nil && e.DurationMs == 0 {
		// Duration is set at most once.
		e.DurationMs = *p.DurationMs
	}
}

// Int returns a pointer to v, for building patches inline.
func Int(v int) *int { return &v }

// Int64 returns a pointer to v, for building patches inline.
func Int64(v int64) *int64 { return &v }

// String returns a pointer to v, for building patches inline.
func String(v string) *string { return &v }

// ParseURL decomposes a raw URL into host, path and query. It never fails:
// when the URL does not parse, the raw string becomes the path and host
// stays empty, so a malformed URL still produces a usable event.
func ParseURL(raw string) (host, path, query string) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", raw, ""
	}
	path = u.Path
	if path == "" {
		path = "/"
	}
	return u.Host, path, u.RawQuery
}

func headerValue(h map[string]string, key string) string {
	if h == nil {
		return ""
	}
	if v, ok := h[key]; ok {
		return v
	}
	for k, v := range h {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

func cloneHeaders(h map[string]string) map[string]string {
	if h == nil {
		return nil
	}
	c := make(map[string]string, len(h))
	for k, v := range h {
		c[k] = v
	}
	return c
}

func mergeHeaders(dst, src map[string]string) map[string]string {
	if dst == nil {
		dst = make(map[string]string, len(src))
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
