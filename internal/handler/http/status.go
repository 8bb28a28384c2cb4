package http

import (
	"fmt"
	"net/http"

	"socialwatch/internal/handler/http/respond"
	"socialwatch/internal/platform"
)

// defaultClientID is the API client account reported when the caller does
// not name one.
const defaultClientID = "default"

// ProviderStatusHandler serves GET /status/providers: the defensive state
// of every provider (rate windows, quota budgets, circuit, cache) for one
// API client account. Reads never consume limiter or quota capacity.
//
// Query parameters:
//   - client: API client account to report (default "default")
//   - provider: restrict the report to a single provider
type ProviderStatusHandler struct {
	Registry *platform.Registry
}

// ServeHTTP handles the provider status request.
func (h *ProviderStatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respond.Error(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
		return
	}

	clientID := r.URL.Query().Get("client")
	if clientID == "" {
		clientID = defaultClientID
	}

	if name := r.URL.Query().Get("provider"); name != "" {
		client, ok := h.Registry.Get(name)
		if !ok {
			respond.Error(w, http.StatusNotFound, fmt.Errorf("provider %q not found", name))
			return
		}
		respond.JSON(w, http.StatusOK, client.Status(clientID))
		return
	}

	statuses := make([]platform.Status, 0, len(h.Registry.Names()))
	for _, client := range h.Registry.Clients() {
		statuses = append(statuses, client.Status(clientID))
	}
	respond.JSON(w, http.StatusOK, statuses)
}
