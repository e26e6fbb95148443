// Package adminhttp exposes a read-only operational surface for a running
// core.Manager: liveness, a point-in-time status snapshot, and Prometheus
// metrics. It sits outside the core's mutex-serialized entry points — it
// never calls ProcessJoin, ProcessLeave, or ProcessRoleSelection, only
// Manager.Stats, which takes its own lock internally.
package adminhttp

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stonehall/dungeonfinder/internal/core"
)

// StatsSource is the subset of *core.Manager this package depends on, so a
// test can substitute a stub without standing up a whole Manager.
type StatsSource interface {
	Stats() core.Stats
}

// NewRouter builds the admin surface's chi router. The middleware order
// mirrors the canonical ingress stack: recoverer outermost, then a request
// id for correlating log lines, matching the chi convention the example
// pack's middleware stack follows.
func NewRouter(mgr StatsSource) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/healthz", handleHealthz)
	r.Get("/status", handleStatus(mgr))
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return r
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// statusResponse is the JSON body /status returns, a plain projection of
// core.Stats.
type statusResponse struct {
	ActiveRequests   int `json:"active_requests"`
	ActiveTickets    int `json:"active_tickets"`
	QueuedEntries    int `json:"queued_entries"`
	ActiveRoleChecks int `json:"active_role_checks"`
}

func handleStatus(mgr StatsSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats := mgr.Stats()
		resp := statusResponse{
			ActiveRequests:   stats.ActiveRequests,
			ActiveTickets:    stats.ActiveTickets,
			QueuedEntries:    stats.QueuedEntries,
			ActiveRoleChecks: stats.ActiveRoleChecks,
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
