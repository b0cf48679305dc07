package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/idletap/tapgame-go/internal/api/apierr"
	"github.com/idletap/tapgame-go/internal/api/response"
	"github.com/idletap/tapgame-go/internal/model"
	"github.com/idletap/tapgame-go/internal/services/leaderboard"
)

// LeaderboardHandler handles leaderboard endpoints
type LeaderboardHandler struct {
	service *leaderboard.Service
}

// NewLeaderboardHandler creates a new LeaderboardHandler
func NewLeaderboardHandler(service *leaderboard.Service) *LeaderboardHandler {
	return &LeaderboardHandler{service: service}
}

// boardName extracts and validates the leaderboard path variable
func boardName(r *http.Request) (model.LeaderboardName, error) {
	name := model.LeaderboardName(mux.Vars(r)["name"])
	if !name.Valid() {
		return "", model.ErrInvalidLeaderboard
	}
	return name, nil
}

// queryInt64 parses an integer query parameter with a default
func queryInt64(r *http.Request, key string, def int64) int64 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return def
	}
	return v
}

// GetPage handles GET /leaderboards/{name}
func (h *LeaderboardHandler) GetPage(w http.ResponseWriter, r *http.Request) {
	name, err := boardName(r)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	limit := queryInt64(r, "limit", 10)
	offset := queryInt64(r, "offset", 0)

	page, err := h.service.GetPage(r.Context(), name, limit, offset)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.PageFromModel(page))
}

// GetPlayerContext handles GET /leaderboards/{name}/players/{player_id}/context
func (h *LeaderboardHandler) GetPlayerContext(w http.ResponseWriter, r *http.Request) {
	name, err := boardName(r)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	playerID := model.PlayerID(mux.Vars(r)["player_id"])
	radius := queryInt64(r, "radius", 2)

	pc, err := h.service.GetPlayerContext(r.Context(), playerID, name, radius)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.PlayerContextFromModel(pc))
}

// updateScoreRequest is the score-push payload from the game-economy
// service
type updateScoreRequest struct {
	PlayerID string `json:"player_id"`
	Score    int64  `json:"score"`
}

// UpdateScore handles POST /scores
func (h *LeaderboardHandler) UpdateScore(w http.ResponseWriter, r *http.Request) {
	var req updateScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("Invalid JSON body"))
		return
	}
	if req.PlayerID == "" {
		apierr.WriteError(w, apierr.NewInvalidRequestError("player_id is required"))
		return
	}
	if req.Score < 0 {
		apierr.WriteError(w, apierr.NewInvalidRequestError("score must be non-negative"))
		return
	}

	update, err := h.service.UpdateScore(r.Context(), model.PlayerID(req.PlayerID), req.Score)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	if update == nil {
		// Accepted, but no board could produce a rank right now
		response.NoContent(w)
		return
	}
	response.JSON(w, http.StatusOK, response.RankUpdateFromModel(update))
}

// Reset handles POST /leaderboards/{name}/reset
func (h *LeaderboardHandler) Reset(w http.ResponseWriter, r *http.Request) {
	name, err := boardName(r)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	if err := h.service.ResetLeaderboard(r.Context(), name); err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.NoContent(w)
}

// RemovePlayer handles DELETE /players/{player_id}
func (h *LeaderboardHandler) RemovePlayer(w http.ResponseWriter, r *http.Request) {
	playerID := model.PlayerID(mux.Vars(r)["player_id"])

	if err := h.service.RemovePlayer(r.Context(), playerID); err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.NoContent(w)
}
