package capture

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/netlens/netlens/pkg/netevent"
)

// maxCapturedBody caps how many body bytes are buffered per direction.
const maxCapturedBody = 256 * 1024

// Transport is an http.RoundTripper decorator recording every call into a
// Sink. It delegates to the base transport unconditionally; the response
// and error it returns are exactly what the base produced.
type Transport struct {
	base http.RoundTripper
	sink Sink
	now  func() time.Time
}

// NewTransport creates a capturing decorator over base. A nil base means
// http.DefaultTransport, matching http.Client semantics.
func NewTransport(base http.RoundTripper, sink Sink) *Transport {
	return &Transport{base: base, sink: sink, now: time.Now}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	if t.sink == nil || req == nil || alreadyCaptured(req.Context()) {
		return base.RoundTrip(req)
	}

	eventID, start := recordStart(t.sink, req, t.now())

	resp, err := base.RoundTrip(req)

	if eventID == "" {
		// Start-side instrumentation failed; nothing to resolve.
		return resp, err
	}
	if err != nil {
		finishError(t.sink, eventID, start, t.now(), err)
		return resp, err
	}
	return finishResponse(t.sink, eventID, start, t.now(), resp), nil
}

// recordStart captures the request-phase snapshot and records a pending
// event. Any panic inside it is swallowed; the returned id is empty when
// recording failed.
func recordStart(sink Sink, req *http.Request, start time.Time) (eventID string, at time.Time) {
	defer func() {
		if r := recover(); r != nil {
			eventID = ""
		}
	}()

	rawURL := ""
	if req.URL != nil {
		rawURL = req.URL.String()
	}
	host, path, query := netevent.ParseURL(rawURL)

	ev := &netevent.Event{
		Timestamp:      start,
		Method:         strings.ToUpper(req.Method),
		URL:            rawURL,
		Host:           host,
		Path:           path,
		Query:          query,
		RequestHeaders: flattenHeaders(req.Header),
	}
	ev.RequestBody, ev.RequestSize = snapshotRequestBody(req)

	return sink.AddEvent(ev), start
}

// finishError resolves an event as a transport failure: an error message,
// no status, duration set once.
func finishError(sink Sink, eventID string, start, end time.Time, err error) {
	defer func() { _ = recover() }()
	sink.UpdateEvent(eventID, &netevent.Patch{
		Error:      netevent.String(err.Error()),
		DurationMs: netevent.Int64(durationMs(start, end)),
	})
}

// finishResponse resolves an event with the response's status, headers
// and duration, then arranges for the body to be patched in as the caller
// drains it. The returned response behaves identically to resp.
func finishResponse(sink Sink, eventID string, start, end time.Time, resp *http.Response) *http.Response {
	defer func() { _ = recover() }()

	contentType := resp.Header.Get("Content-Type")
	statusText := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if statusText == "" {
		statusText = http.StatusText(resp.StatusCode)
	}
	sink.UpdateEvent(eventID, &netevent.Patch{
		Status:          netevent.Int(resp.StatusCode),
		StatusText:      netevent.String(statusText),
		ResponseHeaders: flattenHeaders(resp.Header),
		DurationMs:      netevent.Int64(durationMs(start, end)),
	})

	finish := func(data []byte, seen int64) {
		defer func() { _ = recover() }()
		body, _ := netevent.DecodeBody(data, contentType)
		size := seen
		if resp.ContentLength > size {
			size = resp.ContentLength
		}
		sink.UpdateEvent(eventID, &netevent.Patch{
			ResponseBody: body,
			ResponseSize: netevent.Int64(size),
		})
	}

	if resp.Body == nil || resp.Body == http.NoBody {
		finish(nil, 0)
		return resp
	}
	resp.Body = &bodyRecorder{rc: resp.Body, finish: finish}
	return resp
}

// snapshotRequestBody captures the request body without consuming it.
// Only requests with a rewindable body (GetBody) are captured; anything
// else degrades to a size estimate from Content-Length.
func snapshotRequestBody(req *http.Request) (any, int64) {
	size := req.ContentLength
	if size < 0 {
		size = 0
	}
	if req.GetBody == nil {
		return nil, size
	}
	rc, err := req.GetBody()
	if err != nil || rc == nil {
		return nil, size
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(io.LimitReader(rc, maxCapturedBody))
	if err != nil {
		return nil, size
	}
	body, n := netevent.DecodeBody(data, req.Header.Get("Content-Type"))
	if size < n {
		size = n
	}
	return body, size
}

// bodyRecorder tees response bytes into a bounded buffer and fires finish
// exactly once, at EOF or Close, whichever comes first.
type bodyRecorder struct {
	rc     io.ReadCloser
	buf    bytes.Buffer
	seen   int64
	once   sync.Once
	finish func(data []byte, seen int64)
}

func (b *bodyRecorder) Read(p []byte) (int, error) {
	n, err := b.rc.Read(p)
	if n > 0 {
		b.seen += int64(n)
		if room := maxCapturedBody - int64(b.buf.Len()); room > 0 {
			if int64(n) <= room {
				b.buf.Write(p[:n])
			} else {
				b.buf.Write(p[:room])
			}
		}
	}
	if err == io.EOF {
		b.finishOnce()
	}
	return n, err
}

func (b *bodyRecorder) Close() error {
	err := b.rc.Close()
	b.finishOnce()
	return err
}

func (b *bodyRecorder) finishOnce() {
	b.once.Do(func() {
		if b.finish != nil {
			b.finish(b.buf.Bytes(), b.seen)
		}
	})
}

func flattenHeaders(h http.Header) map[string]string {
	if len(h) == 0 {
		return nil
	}
	out := make(map[string]string, len(h))
	for k, values := range h {
		out[k] = strings.Join(values, ", ")
	}
	return out
}

func durationMs(start, end time.Time) int64 {
	d := end.Sub(start).Milliseconds()
	if d <= 0 {
		// Sub-millisecond calls still count as resolved.
		return 1
	}
	return d
}
