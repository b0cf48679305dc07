package handler

import (
	"net/http"

	"github.com/idletap/tapgame-go/internal/model"
	"github.com/idletap/tapgame-go/internal/push"
)

// EventsHandler serves the SSE stream of rank-change notifications
type EventsHandler struct {
	hub *push.Hub
}

// NewEventsHandler creates a new EventsHandler
func NewEventsHandler(hub *push.Hub) *EventsHandler {
	return &EventsHandler{hub: hub}
}

// Stream handles GET /events. The optional player_id query parameter
// identifies the connection in logs; all clients receive all events.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	playerID := model.PlayerID(r.URL.Query().Get("player_id"))
	push.ServeSSE(w, r, h.hub, playerID)
}
