package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/idletap/tapgame-go/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeInvalidLeaderboard = "INVALID_LEADERBOARD"
	CodeSessionNotFound    = "SESSION_NOT_FOUND"
	CodeSessionClosed      = "SESSION_CLOSED"
	CodePlayerNotRanked    = "PLAYER_NOT_RANKED"
	CodeInternalError      = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	// Map model errors. Backend unavailability never reaches here on
	// the read path (reads degrade); a write that still fails is an
	// internal error from the client's point of view.
	switch {
	case errors.Is(err, model.ErrInvalidLeaderboard):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidLeaderboard, "Leaderboard must be all_time, weekly, or daily"}}
	case errors.Is(err, model.ErrSessionNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeSessionNotFound, "Session not found"}}
	case errors.Is(err, model.ErrSessionClosed):
		return &httpError{http.StatusConflict, APIError{CodeSessionClosed, "Session has already ended"}}
	case errors.Is(err, model.ErrPlayerNotRanked):
		return &httpError{http.StatusNotFound, APIError{CodePlayerNotRanked, "Player is not on this leaderboard"}}
	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
