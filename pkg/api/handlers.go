package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/netlens/netlens/pkg/httputil"
	"github.com/netlens/netlens/pkg/netevent"
)

// EventListResponse is the payload of GET /api/events.
type EventListResponse struct {
	Events []*netevent.Event `json:"events"`
	Total  int               `json:"total"`
}

// HealthResponse is the payload of GET /health.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
	})
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	filter := filterFromQuery(r)
	events := netevent.FilterEvents(s.store.Events(), filter)
	total := len(events)

	if offset := intParam(r, "offset"); offset > 0 {
		if offset >= len(events) {
			events = nil
		} else {
			events = events[offset:]
		}
	}
	if limit := intParam(r, "limit"); limit > 0 && limit < len(events) {
		events = events[:limit]
	}
	if events == nil {
		events = []*netevent.Event{}
	}

	httputil.WriteJSON(w, http.StatusOK, EventListResponse{Events: events, Total: total})
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	ev := s.store.EventByID(r.PathValue("id"))
	if ev == nil {
		httputil.WriteError(w, http.StatusNotFound, "not_found", "no event with that id")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ev)
}

func (s *Server) handleClearEvents(w http.ResponseWriter, r *http.Request) {
	s.store.ClearEvents()
	httputil.WriteNoContent(w)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, s.store.Stats())
}

func (s *Server) handleHosts(w http.ResponseWriter, r *http.Request) {
	hosts := netevent.UniqueHosts(s.store.Events())
	if hosts == nil {
		hosts = []string{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string][]string{"hosts": hosts})
}

func (s *Server) handleMethods(w http.ResponseWriter, r *http.Request) {
	methods := netevent.UniqueMethods(s.store.Events())
	if methods == nil {
		methods = []string{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string][]string{"methods": methods})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, s.store.Metrics().Snapshot())
}

// filterFromQuery builds an event filter from request query parameters.
// Unknown values are passed through; the filter itself degrades
// gracefully on invalid expressions.
func filterFromQuery(r *http.Request) *netevent.Filter {
	q := r.URL.Query()
	f := &netevent.Filter{
		Outcome:  q.Get("outcome"),
		Query:    q.Get("q"),
		Host:     q.Get("host"),
		Expr:     q.Get("expr"),
		BodyPath: q.Get("bodyPath"),
	}
	if methods := q.Get("methods"); methods != "" {
		f.Methods = splitParam(methods)
	}
	if cts := q.Get("contentTypes"); cts != "" {
		f.ContentTypes = splitParam(cts)
	}
	return f
}

func splitParam(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func intParam(r *http.Request, name string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v < 0 {
		return 0
	}
	return v
}
