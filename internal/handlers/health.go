package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// Pinger reports whether the backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthResponse is the body of GET /healthz
type HealthResponse struct {
	Status string `json:"status"`
	Store  string `json:"store"`
}

// HealthHandler reports store reachability
type HealthHandler struct {
	store   Pinger
	driver  string
	timeout time.Duration
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(store Pinger, driver string, timeout time.Duration) *HealthHandler {
	return &HealthHandler{store: store, driver: driver, timeout: timeout}
}

// Health handles GET /healthz
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	if err := h.store.Ping(ctx); err != nil {
		log.Warn().Err(err).Str("store", h.driver).Msg("Health check failed")
		respondJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable", Store: h.driver})
		return
	}
	respondJSON(w, http.StatusOK, HealthResponse{Status: "ok", Store: h.driver})
}
