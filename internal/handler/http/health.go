// Package http provides the HTTP handlers and middleware for the status API.
// It includes provider status endpoints, health check endpoints, metrics
// collection, and the standard middleware chain (request ID, logging,
// recovery, timeout, body limits).
package http

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"socialwatch/internal/platform"
)

// HealthResponse represents the JSON response for health check endpoints.
type HealthResponse struct {
	Status    string                 `json:"status"`    // "healthy" or "unhealthy"
	Timestamp string                 `json:"timestamp"` // ISO 8601 format
	Checks    map[string]CheckStatus `json:"checks"`    // Status of each check item
	Version   string                 `json:"version"`   // Application version
}

// CheckStatus represents the status of a single health check.
type CheckStatus struct {
	Status  string                 `json:"status"`            // "healthy", "degraded" or "unhealthy"
	Message string                 `json:"message,omitempty"` // Optional status message
	Details map[string]interface{} `json:"details,omitempty"` // Optional additional details
}

// AlertDropCounter reports how many audit alerts were dropped because the
// delivery queue was full. The audit auditor satisfies this.
type AlertDropCounter interface {
	Dropped() int64
}

// HealthHandler handles health check endpoint requests. It verifies the
// provider registry is populated and reports audit queue pressure.
type HealthHandler struct {
	Registry *platform.Registry
	Auditor  AlertDropCounter // optional
	Version  string
}

// ServeHTTP performs health checks and returns the application health status.
// Returns 200 OK if healthy, or 503 Service Unavailable if any check fails.
// Degraded checks are warnings and do not fail the endpoint.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]CheckStatus)
	allHealthy := true

	providerCheck := h.checkProviders()
	checks["providers"] = providerCheck
	if providerCheck.Status == "unhealthy" {
		allHealthy = false
	}

	// Dropped alerts mean the webhook sink cannot keep up. That degrades
	// observability but the call path itself is unaffected.
	if h.Auditor != nil {
		checks["audit_queue"] = h.checkAuditQueue()
	}

	status := "healthy"
	statusCode := http.StatusOK
	if !allHealthy {
		status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Version:   h.Version,
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("health: failed to encode response: %v", err)
	}
}

// checkProviders verifies that at least one platform client is configured.
func (h *HealthHandler) checkProviders() CheckStatus {
	if h.Registry == nil {
		return CheckStatus{
			Status:  "unhealthy",
			Message: "provider registry not configured",
		}
	}

	names := h.Registry.Names()
	if len(names) == 0 {
		return CheckStatus{
			Status:  "unhealthy",
			Message: "no providers configured",
		}
	}

	return CheckStatus{
		Status: "healthy",
		Details: map[string]interface{}{
			"count":     len(names),
			"providers": names,
		},
	}
}

// checkAuditQueue reports audit alert queue pressure. A non-zero drop count
// is degraded, not unhealthy.
func (h *HealthHandler) checkAuditQueue() CheckStatus {
	dropped := h.Auditor.Dropped()
	details := map[string]interface{}{"dropped_alerts": dropped}

	if dropped > 0 {
		return CheckStatus{
			Status:  "degraded",
			Message: "audit alerts dropped due to full queue",
			Details: details,
		}
	}

	return CheckStatus{
		Status:  "healthy",
		Details: details,
	}
}

// ReadyHandler handles Kubernetes readiness probe requests. The service is
// ready once the provider registry has been built.
type ReadyHandler struct {
	Registry *platform.Registry
}

// ServeHTTP performs readiness checks and returns 200 OK if ready,
// or 503 Service Unavailable if no providers are loaded.
func (h *ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Registry == nil || len(h.Registry.Names()) == 0 {
		http.Error(w, "providers not loaded", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ready")); err != nil {
		log.Printf("ready: failed to write response: %v", err)
	}
}

// LiveHandler handles Kubernetes liveness probe requests.
// It performs a lightweight check to verify the application is responsive.
type LiveHandler struct{}

// ServeHTTP performs a simple liveness check and always returns 200 OK
// if the application is running and able to respond.
func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("alive")); err != nil {
		log.Printf("alive: failed to write response: %v", err)
	}
}
