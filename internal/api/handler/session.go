package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/idletap/tapgame-go/internal/api/apierr"
	"github.com/idletap/tapgame-go/internal/api/response"
	"github.com/idletap/tapgame-go/internal/model"
	"github.com/idletap/tapgame-go/internal/services/anticheat"
	"github.com/idletap/tapgame-go/internal/services/session"
)

// SessionHandler handles session and anti-cheat endpoints
type SessionHandler struct {
	tracker  *session.Tracker
	analyzer *anticheat.Analyzer
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(tracker *session.Tracker, analyzer *anticheat.Analyzer) *SessionHandler {
	return &SessionHandler{
		tracker:  tracker,
		analyzer: analyzer,
	}
}

// startSessionRequest is the session-open payload
type startSessionRequest struct {
	PlayerID   string `json:"player_id"`
	ClientMeta string `json:"client_meta"`
}

// Start handles POST /sessions
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("Invalid JSON body"))
		return
	}
	if req.PlayerID == "" {
		apierr.WriteError(w, apierr.NewInvalidRequestError("player_id is required"))
		return
	}

	s, err := h.tracker.StartSession(r.Context(), model.PlayerID(req.PlayerID), req.ClientMeta)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, response.SessionFromModel(s))
}

// recordTapRequest is the tap payload
type recordTapRequest struct {
	Earnings        int64      `json:"earnings"`
	IsGoldenTap     bool       `json:"is_golden_tap"`
	ClientTimestamp *time.Time `json:"client_timestamp,omitempty"`
}

// RecordTap handles POST /sessions/{id}/taps
func (h *SessionHandler) RecordTap(w http.ResponseWriter, r *http.Request) {
	sessionID := model.SessionID(mux.Vars(r)["id"])

	var req recordTapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("Invalid JSON body"))
		return
	}
	if req.Earnings < 0 {
		apierr.WriteError(w, apierr.NewInvalidRequestError("earnings must be non-negative"))
		return
	}

	event, err := h.tracker.RecordTap(r.Context(), sessionID, req.Earnings, req.IsGoldenTap, req.ClientTimestamp)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, response.TapEventFromModel(event))
}

// End handles POST /sessions/{id}/end
func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	sessionID := model.SessionID(mux.Vars(r)["id"])

	if err := h.tracker.EndSession(r.Context(), sessionID); err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.NoContent(w)
}

// Get handles GET /sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID := model.SessionID(mux.Vars(r)["id"])

	s, err := h.tracker.GetSession(r.Context(), sessionID)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.SessionFromModel(s))
}

// BotReport handles GET /players/{player_id}/bot-report.
//
// The analyzer only computes; the punitive policy lives here: every
// session the report implicates is marked suspicious before the report
// is returned.
func (h *SessionHandler) BotReport(w http.ResponseWriter, r *http.Request) {
	playerID := model.PlayerID(mux.Vars(r)["player_id"])
	windowHours := int(queryInt64(r, "window_hours", 24))
	if windowHours < 1 {
		windowHours = 1
	}

	report, err := h.analyzer.DetectBotBehavior(r.Context(), playerID, windowHours)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	for _, sessionID := range report.FlaggedSessions {
		if err := h.tracker.MarkSuspicious(r.Context(), sessionID); err != nil {
			apierr.WriteError(w, err)
			return
		}
	}

	response.JSON(w, http.StatusOK, response.BotReportFromModel(report))
}

// RecentTaps handles GET /players/{player_id}/taps
func (h *SessionHandler) RecentTaps(w http.ResponseWriter, r *http.Request) {
	playerID := model.PlayerID(mux.Vars(r)["player_id"])
	windowSeconds := int(queryInt64(r, "window_seconds", 60))
	if windowSeconds < 1 {
		windowSeconds = 1
	}

	events, err := h.tracker.RecentTaps(r.Context(), playerID, windowSeconds)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	taps := make([]response.TapEvent, len(events))
	for i := range events {
		taps[i] = response.TapEventFromModel(&events[i])
	}
	response.JSON(w, http.StatusOK, taps)
}
