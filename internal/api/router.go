package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/idletap/tapgame-go/internal/api/handler"
	"github.com/idletap/tapgame-go/internal/api/middleware"
	"github.com/idletap/tapgame-go/internal/push"
	"github.com/idletap/tapgame-go/internal/services/anticheat"
	"github.com/idletap/tapgame-go/internal/services/leaderboard"
	"github.com/idletap/tapgame-go/internal/services/session"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger             *slog.Logger
	LeaderboardService *leaderboard.Service
	SessionTracker     *session.Tracker
	AntiCheatAnalyzer  *anticheat.Analyzer
	Hub                *push.Hub

	// Degrader is optional; nil reports backend mode always
	Degrader handler.Degrader
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	leaderboardHandler := handler.NewLeaderboardHandler(cfg.LeaderboardService)
	sessionHandler := handler.NewSessionHandler(cfg.SessionTracker, cfg.AntiCheatAnalyzer)
	healthHandler := handler.NewHealthHandler(cfg.Degrader)
	eventsHandler := handler.NewEventsHandler(cfg.Hub)

	// Create middleware
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Leaderboard routes
	api.HandleFunc("/leaderboards/{name}", leaderboardHandler.GetPage).Methods(http.MethodGet)
	api.HandleFunc("/leaderboards/{name}/players/{player_id}/context", leaderboardHandler.GetPlayerContext).Methods(http.MethodGet)
	api.HandleFunc("/leaderboards/{name}/reset", leaderboardHandler.Reset).Methods(http.MethodPost)
	api.HandleFunc("/scores", leaderboardHandler.UpdateScore).Methods(http.MethodPost)
	api.HandleFunc("/players/{player_id}", leaderboardHandler.RemovePlayer).Methods(http.MethodDelete)

	// Session routes
	api.HandleFunc("/sessions", sessionHandler.Start).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}", sessionHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}/taps", sessionHandler.RecordTap).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/end", sessionHandler.End).Methods(http.MethodPost)

	// Anti-cheat routes
	api.HandleFunc("/players/{player_id}/bot-report", sessionHandler.BotReport).Methods(http.MethodGet)
	api.HandleFunc("/players/{player_id}/taps", sessionHandler.RecentTaps).Methods(http.MethodGet)

	// Push and health
	api.HandleFunc("/events", eventsHandler.Stream).Methods(http.MethodGet)
	api.HandleFunc("/health", healthHandler.Health).Methods(http.MethodGet)

	return r
}
