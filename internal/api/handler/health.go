package handler

import (
	"net/http"

	"github.com/idletap/tapgame-go/internal/api/response"
)

// Degrader reports whether the rank store is serving from its fallback
type Degrader interface {
	Degraded() bool
}

// HealthHandler handles the health endpoint
type HealthHandler struct {
	degrader Degrader
}

// NewHealthHandler creates a new HealthHandler. degrader may be nil
// when the deployment runs without a backend to degrade from.
func NewHealthHandler(degrader Degrader) *HealthHandler {
	return &HealthHandler{degrader: degrader}
}

// healthResponse reports process liveness and rank store mode
type healthResponse struct {
	Status    string `json:"status"`
	RankStore string `json:"rank_store"`
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, _ *http.Request) {
	mode := "backend"
	if h.degrader != nil && h.degrader.Degraded() {
		mode = "fallback"
	}
	response.JSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		RankStore: mode,
	})
}
