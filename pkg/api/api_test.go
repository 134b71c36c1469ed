package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netlens/netlens/pkg/netevent"
	"github.com/netlens/netlens/pkg/store"
)

func seededServer(t *testing.T) (*Server, *store.Store, []string) {
	t.Helper()

	st := store.New(store.Options{})
	var ids []string

	id := st.AddEvent(&netevent.Event{Method: "GET", URL: "https://api.example.com/users", Host: "api.example.com", Path: "/users"})
	st.UpdateEvent(id, &netevent.Patch{Status: netevent.Int(200), DurationMs: netevent.Int64(20)})
	ids = append(ids, id)

	id = st.AddEvent(&netevent.Event{Method: "POST", URL: "https://api.example.com/users", Host: "api.example.com", Path: "/users"})
	st.UpdateEvent(id, &netevent.Patch{Status: netevent.Int(500), DurationMs: netevent.Int64(40)})
	ids = append(ids, id)

	ids = append(ids, st.AddEvent(&netevent.Event{Method: "GET", URL: "https://cdn.example.com/app.js", Host: "cdn.example.com", Path: "/app.js"}))

	return NewServer(st, ":0"), st, ids
}

func doJSON(t *testing.T, s *Server, method, target string, out any) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if out != nil && rec.Code < 300 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec
}

func TestHealth(t *testing.T) {
	s, _, _ := seededServer(t)

	var resp HealthResponse
	rec := doJSON(t, s, http.MethodGet, "/health", &resp)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", resp.Status)
}

func TestListEvents(t *testing.T) {
	s, _, ids := seededServer(t)

	var resp EventListResponse
	rec := doJSON(t, s, http.MethodGet, "/api/events", &resp)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 3, resp.Total)
	require.Len(t, resp.Events, 3)
	assert.Equal(t, ids[2], resp.Events[0].ID, "newest first")
	assert.Equal(t, ids[0], resp.Events[2].ID)
}

func TestListEvents_Filtered(t *testing.T) {
	s, _, _ := seededServer(t)

	tests := []struct {
		name   string
		target string
		want   int
	}{
		{"by outcome error", "/api/events?outcome=error", 1},
		{"by outcome pending", "/api/events?outcome=pending", 1},
		{"by method", "/api/events?methods=POST", 1},
		{"by host", "/api/events?host=cdn.example.com", 1},
		{"by text query", "/api/events?q=users", 2},
		{"by expression", "/api/events?expr=status+%3E%3D+500", 1},
		{"invalid expression ignored", "/api/events?expr=%25%25nope", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp EventListResponse
			rec := doJSON(t, s, http.MethodGet, tt.target, &resp)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, resp.Total)
		})
	}
}

func TestListEvents_Pagination(t *testing.T) {
	s, _, ids := seededServer(t)

	var resp EventListResponse
	doJSON(t, s, http.MethodGet, "/api/events?offset=1&limit=1", &resp)

	assert.Equal(t, 3, resp.Total, "total counts the filtered set, not the page")
	require.Len(t, resp.Events, 1)
	assert.Equal(t, ids[1], resp.Events[0].ID)

	doJSON(t, s, http.MethodGet, "/api/events?offset=99", &resp)
	assert.Empty(t, resp.Events)
	assert.Equal(t, 3, resp.Total)
}

func TestGetEvent(t *testing.T) {
	s, _, ids := seededServer(t)

	var ev netevent.Event
	rec := doJSON(t, s, http.MethodGet, "/api/events/"+ids[0], &ev)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 200, ev.Status)

	rec = doJSON(t, s, http.MethodGet, "/api/events/evt-nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClearEvents(t *testing.T) {
	s, st, _ := seededServer(t)

	rec := doJSON(t, s, http.MethodDelete, "/api/events", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, st.Len())
}

func TestStats(t *testing.T) {
	s, _, _ := seededServer(t)

	var stats netevent.Stats
	rec := doJSON(t, s, http.MethodGet, "/api/stats", &stats)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 3, stats.TotalRequests)
	assert.Equal(t, 1, stats.SuccessfulRequests)
	assert.Equal(t, 1, stats.FailedRequests)
	assert.Equal(t, 1, stats.PendingRequests)
	assert.Equal(t, float64(30), stats.AverageDurationMs)
}

func TestHostsAndMethods(t *testing.T) {
	s, _, _ := seededServer(t)

	var hosts map[string][]string
	doJSON(t, s, http.MethodGet, "/api/hosts", &hosts)
	assert.Equal(t, []string{"api.example.com", "cdn.example.com"}, hosts["hosts"])

	var methods map[string][]string
	doJSON(t, s, http.MethodGet, "/api/methods", &methods)
	assert.Equal(t, []string{"GET", "POST"}, methods["methods"])
}

func TestMetrics(t *testing.T) {
	s, _, _ := seededServer(t)

	var snap map[string]any
	rec := doJSON(t, s, http.MethodGet, "/api/metrics", &snap)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 3, snap["captured"])
	assert.EqualValues(t, 2, snap["updated"])
}
