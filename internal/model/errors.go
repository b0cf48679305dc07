package model

import "errors"

// Common errors used across the application
var (
	// Ranking errors
	ErrBackendUnavailable = errors.New("ranking backend unavailable")
	ErrInvalidLeaderboard = errors.New("invalid leaderboard name")
	ErrPlayerNotRanked    = errors.New("player not ranked")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionClosed   = errors.New("session already closed")
)
