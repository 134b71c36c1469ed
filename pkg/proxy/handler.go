package proxy

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/netlens/netlens/pkg/netevent"
)

// DefaultMaxBodySize is the maximum body size buffered per direction (10MB).
const DefaultMaxBodySize = 10 * 1024 * 1024

// handleHTTP forwards a plain HTTP request, recording it as a pending
// event that resolves once the upstream response is in.
func (p *Proxy) handleHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var reqBody []byte
	if r.Body != nil {
		var err error
		reqBody, err = io.ReadAll(io.LimitReader(r.Body, DefaultMaxBodySize))
		if err != nil {
			p.log.Warn("reading request body", "error", err)
			http.Error(w, "Error reading request", http.StatusBadGateway)
			return
		}
		_ = r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(reqBody))
	}

	shouldRecord := p.Filter().ShouldRecord(r.Host, r.URL.Path)

	var eventID string
	if shouldRecord {
		eventID = p.recordStart(r, reqBody, start)
	}

	p.log.Debug("proxying", "method", r.Method, "host", r.Host, "path", r.URL.Path)

	resp, err := p.forwardRequest(r)
	if err != nil {
		if eventID != "" {
			p.store.UpdateEvent(eventID, &netevent.Patch{
				Error:      netevent.String(err.Error()),
				DurationMs: netevent.Int64(sinceMs(start)),
			})
		}
		p.log.Warn("forwarding request", "error", err)
		http.Error(w, "Error forwarding request: "+err.Error(), http.StatusBadGateway)
		return
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, DefaultMaxBodySize))
	if err != nil {
		if eventID != "" {
			p.store.UpdateEvent(eventID, &netevent.Patch{
				Error:      netevent.String(err.Error()),
				DurationMs: netevent.Int64(sinceMs(start)),
			})
		}
		p.log.Warn("reading response body", "error", err)
		http.Error(w, "Error reading response", http.StatusBadGateway)
		return
	}

	if eventID != "" {
		p.recordFinish(eventID, resp, respBody, start)
	}

	copyHeaders(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(respBody)
}

// recordStart captures the request side as a pending event.
func (p *Proxy) recordStart(r *http.Request, reqBody []byte, start time.Time) string {
	rawURL := r.URL.String()
	if r.URL.Host == "" {
		rawURL = "http://" + r.Host + r.URL.RequestURI()
	}
	host, path, query := netevent.ParseURL(rawURL)

	body, size := netevent.DecodeBody(reqBody, r.Header.Get("Content-Type"))
	return p.store.AddEvent(&netevent.Event{
		Timestamp:      start,
		Method:         strings.ToUpper(r.Method),
		URL:            rawURL,
		Host:           host,
		Path:           path,
		Query:          query,
		RequestHeaders: flattenHeaders(r.Header),
		RequestBody:    body,
		RequestSize:    size,
	})
}

// recordFinish resolves the pending event with the upstream outcome.
func (p *Proxy) recordFinish(eventID string, resp *http.Response, respBody []byte, start time.Time) {
	body, size := netevent.DecodeBody(respBody, resp.Header.Get("Content-Type"))
	statusText := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if statusText == "" {
		statusText = http.StatusText(resp.StatusCode)
	}
	p.store.UpdateEvent(eventID, &netevent.Patch{
		Status:          netevent.Int(resp.StatusCode),
		StatusText:      netevent.String(statusText),
		ResponseHeaders: flattenHeaders(resp.Header),
		ResponseBody:    body,
		ResponseSize:    netevent.Int64(size),
		DurationMs:      netevent.Int64(sinceMs(start)),
	})
}

// forwardRequest forwards an HTTP request to the target server.
func (p *Proxy) forwardRequest(r *http.Request) (*http.Response, error) {
	targetURL := r.URL.String()
	if r.URL.Host == "" {
		targetURL = "http://" + r.Host + r.URL.RequestURI()
	}

	outReq, err := http.NewRequestWithContext(r.Context(), r.Method, targetURL, r.Body)
	if err != nil {
		return nil, err
	}

	copyHeaders(outReq.Header, r.Header)
	removeHopByHopHeaders(outReq.Header)

	outReq.Header.Set("X-Forwarded-For", r.RemoteAddr)
	outReq.Header.Set("X-Forwarded-Host", r.Host)

	return p.client.Do(outReq)
}

// copyHeaders copies headers from src to dst.
func copyHeaders(dst, src http.Header) {
	for key, values := range src {
		for _, value := range values {
			dst.Add(key, value)
		}
	}
}

// removeHopByHopHeaders removes headers that should not be forwarded.
func removeHopByHopHeaders(h http.Header) {
	for _, header := range []string{
		"Connection",
		"Keep-Alive",
		"Proxy-Authenticate",
		"Proxy-Authorization",
		"Proxy-Connection",
		"TE",
		"Trailers",
		"Transfer-Encoding",
		"Upgrade",
	} {
		h.Del(header)
	}
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

func sinceMs(start time.Time) int64 {
	ms := time.Since(start).Milliseconds()
	if ms <= 0 {
		return 1
	}
	return ms
}
