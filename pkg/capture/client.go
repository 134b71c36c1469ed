package capture

import (
	"io"
	"net/http"
	"net/http/httptrace"
	"strings"
	"sync"
	"time"

	"github.com/netlens/netlens/pkg/netevent"
)

// Client is the call-level entry point: a decorator over *http.Client
// with the same contract. Unlike Transport it observes headers as the
// transport stack writes them to the wire, so headers added below the
// wrapper (User-Agent, Host, auth injected by a nested RoundTripper) are
// merged into the request-phase snapshot before the response arrives.
type Client struct {
	hc   *http.Client
	sink Sink
	now  func() time.Time
}

// NewClient wraps hc. A nil hc means http.DefaultClient.
func NewClient(hc *http.Client, sink Sink) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{hc: hc, sink: sink, now: time.Now}
}

// Do executes the request through the underlying client, recording its
// lifecycle. The caller sees exactly the response and error the
// underlying client produced.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if c.sink == nil || req == nil {
		return c.hc.Do(req)
	}

	start := c.now()
	eventID, _ := recordStart(c.sink, req, start)

	if eventID != "" {
		req = c.instrument(req, eventID)
	}

	resp, err := c.hc.Do(req)

	if eventID == "" {
		return resp, err
	}
	if err != nil {
		finishError(c.sink, eventID, start, c.now(), err)
		return resp, err
	}
	return finishResponse(c.sink, eventID, start, c.now(), resp), nil
}

// Get issues a GET through the wrapper.
func (c *Client) Get(url string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

// Post issues a POST through the wrapper.
func (c *Client) Post(url, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	return c.Do(req)
}

// Head issues a HEAD through the wrapper.
func (c *Client) Head(url string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodHead, url, nil)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

// instrument attaches the wire-header trace and marks the context so an
// enabled Transport below does not record the call a second time.
func (c *Client) instrument(req *http.Request, eventID string) *http.Request {
	merger := &headerMerger{sink: c.sink, eventID: eventID}
	trace := &httptrace.ClientTrace{
		WroteHeaderField: merger.field,
		WroteHeaders:     merger.flush,
	}
	ctx := httptrace.WithClientTrace(markCaptured(req.Context()), trace)
	return req.WithContext(ctx)
}

// headerMerger accumulates header fields reported by the transport and
// merges them into the pending event once the request headers are fully
// written. Fields arrive via separate callbacks; the request-phase
// snapshot is complete only after the merge.
type headerMerger struct {
	sink    Sink
	eventID string

	mu     sync.Mutex
	fields map[string]string
}

func (m *headerMerger) field(key string, values []string) {
	// Skip HTTP/2 pseudo-headers.
	if strings.HasPrefix(key, ":") {
		return
	}
	m.mu.Lock()
	if m.fields == nil {
		m.fields = make(map[string]string)
	}
	m.fields[http.CanonicalHeaderKey(key)] = strings.Join(values, ", ")
	m.mu.Unlock()
}

func (m *headerMerger) flush() {
	defer func() { _ = recover() }()

	m.mu.Lock()
	fields := m.fields
	m.fields = nil
	m.mu.Unlock()

	if len(fields) == 0 {
		return
	}
	m.sink.UpdateEvent(m.eventID, &netevent.Patch{RequestHeaders: fields})
}
