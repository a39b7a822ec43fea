// Package debug exposes an operational surface on a separate listener:
// recent trace segments and the effective configuration. It is meant for
// local inspection and is disabled unless a debug address is configured.
package debug

import (
	"encoding/json"
	"net/http"

	"pulse-backend/infrastructure/config"
	"pulse-backend/pkg/observability"

	"github.com/gorilla/mux"
)

// NewRouter creates the debug router backed by the in-memory collector
func NewRouter(cfg *config.Config, recent *observability.MemoryCollector) *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/debug/traces", tracesHandler(recent)).Methods("GET")
	router.HandleFunc("/debug/config", configHandler(cfg)).Methods("GET")

	return router
}

// tracesHandler serves the retained segments, newest first
func tracesHandler(recent *observability.MemoryCollector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		segments := recent.Recent()

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"count":    len(segments),
			"segments": segments,
		})
	}
}

// configHandler echoes the operational configuration
func configHandler(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"app_name":         cfg.AppName,
			"stage":            cfg.Stage,
			"log_level":        cfg.LogLevel,
			"tracing_enabled":  cfg.EnableTracing,
			"remote_logs":      cfg.EnableRemoteLogs,
			"metrics_enabled":  cfg.EnableMetrics,
			"db_failure_rate":  cfg.DatabaseFailureRate,
			"api_failure_rate": cfg.ExternalFailureRate,
			"db_latency_ms":    []int64{cfg.DatabaseLatencyMin.Milliseconds(), cfg.DatabaseLatencyMax.Milliseconds()},
			"api_latency_ms":   []int64{cfg.ExternalLatencyMin.Milliseconds(), cfg.ExternalLatencyMax.Milliseconds()},
		})
	}
}
