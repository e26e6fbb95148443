package adminhttp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stonehall/dungeonfinder/internal/core"
)

type stubStatsSource struct {
	stats core.Stats
}

func (s stubStatsSource) Stats() core.Stats { return s.stats }

func TestHealthz(t *testing.T) {
	r := NewRouter(stubStatsSource{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestStatus(t *testing.T) {
	stub := stubStatsSource{stats: core.Stats{
		ActiveRequests:   3,
		ActiveTickets:    2,
		QueuedEntries:    5,
		ActiveRoleChecks: 1,
	}}
	r := NewRouter(stub)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var got statusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 3, got.ActiveRequests)
	assert.Equal(t, 2, got.ActiveTickets)
	assert.Equal(t, 5, got.QueuedEntries)
	assert.Equal(t, 1, got.ActiveRoleChecks)
}

func TestMetricsEndpointServesPrometheusFormat(t *testing.T) {
	r := NewRouter(stubStatsSource{})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
}

func TestUnknownRouteReturnsNotFound(t *testing.T) {
	r := NewRouter(stubStatsSource{})

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
