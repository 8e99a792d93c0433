// Package health provides liveness and readiness handlers for the dispatcher.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// Database is the subset of database.DB the checks need.
type Database interface {
	Health(ctx context.Context) map[string]interface{}
	Ping(ctx context.Context) error
}

// RouteState reports whether routes are loaded and how many.
type RouteState interface {
	Ready() bool
	RouteCounts() (static, dynamic int, ok bool)
}

// Handler provides HTTP handlers for health checks.
type Handler struct {
	db     Database
	routes RouteState
}

// NewHandler creates a new health check handler.
func NewHandler(db Database, routes RouteState) *Handler {
	return &Handler{
		db:     db,
		routes: routes,
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status   string                 `json:"status"` // "healthy" or "unhealthy"
	Uptime   string                 `json:"uptime,omitempty"`
	Database map[string]interface{} `json:"database"`
	Checks   map[string]CheckResult `json:"checks,omitempty"`
}

// CheckResult represents the result of an individual health check.
type CheckResult struct {
	Status  string `json:"status"` // "pass" or "fail"
	Message string `json:"message,omitempty"`
}

type readyResponse struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

var startTime = time.Now()

// Health handles the /health endpoint.
//
// Returns 200 if the database is healthy, 503 otherwise. Route state is
// reported but does not affect the status code; use /ready for that.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	dbHealth := h.db.Health(ctx)

	overallStatus := "healthy"
	statusCode := http.StatusOK
	if dbHealth["status"] != "healthy" {
		overallStatus = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:   overallStatus,
		Uptime:   formatDuration(time.Since(startTime)),
		Database: dbHealth,
		Checks: map[string]CheckResult{
			"database": {
				Status:  getCheckStatus(dbHealth["status"]),
				Message: getCheckMessage(dbHealth),
			},
			"routes": h.routesCheck(),
		},
	}

	log.Debug().
		Str("component", "health").
		Str("status", overallStatus).
		Str("remote_addr", r.RemoteAddr).
		Msg("Health check requested")

	writeJSON(w, statusCode, response)
}

func (h *Handler) routesCheck() CheckResult {
	static, dynamic, ok := h.routes.RouteCounts()
	if !ok {
		return CheckResult{Status: "fail", Message: "routes not loaded"}
	}
	return CheckResult{
		Status:  "pass",
		Message: fmt.Sprintf("%d static, %d dynamic", static, dynamic),
	}
}

// Ready handles the /ready endpoint.
//
// Returns 200 once the database is reachable and routes have been loaded,
// 503 otherwise.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		log.Warn().
			Err(err).
			Str("component", "health").
			Msg("Readiness check failed: database not reachable")

		writeJSON(w, http.StatusServiceUnavailable, readyResponse{Status: "not ready", Reason: "database unavailable"})
		return
	}

	if !h.routes.Ready() {
		log.Warn().
			Str("component", "health").
			Msg("Readiness check failed: routes not loaded")

		writeJSON(w, http.StatusServiceUnavailable, readyResponse{Status: "not ready", Reason: "routes not loaded"})
		return
	}

	log.Debug().
		Str("component", "health").
		Str("remote_addr", r.RemoteAddr).
		Msg("Readiness check passed")

	writeJSON(w, http.StatusOK, readyResponse{Status: "ready"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to encode health response")
	}
}

// getCheckStatus converts a health status to a check status.
func getCheckStatus(status interface{}) string {
	if s, ok := status.(string); ok && s == "healthy" {
		return "pass"
	}
	return "fail"
}

// getCheckMessage extracts a message from health check results.
func getCheckMessage(health map[string]interface{}) string {
	if err, ok := health["error"].(string); ok {
		return err
	}
	return "operational"
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}
	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}
