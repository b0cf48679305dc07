package redis

import (
	"fmt"

	"github.com/idletap/tapgame-go/internal/model"
)

// Key prefix for all session-tracking data
const keyPrefix = "tapgame"

// sessionKey returns the Redis key for a Session
func sessionKey(id model.SessionID) string {
	return fmt.Sprintf("%s:session:%s", keyPrefix, id)
}

// sessionTapsKey returns the Redis key for a session's tap-event log
func sessionTapsKey(id model.SessionID) string {
	return fmt.Sprintf("%s:session_taps:%s", keyPrefix, id)
}

// playerTapsKey returns the Redis key for the per-player tap index,
// a ZSET of event JSON scored by tap timestamp
func playerTapsKey(playerID model.PlayerID) string {
	return fmt.Sprintf("%s:idx:player_taps:%s", keyPrefix, playerID)
}

// playerSessionsKey returns the Redis key for the per-player session
// index, a ZSET of session IDs scored by start time
func playerSessionsKey(playerID model.PlayerID) string {
	return fmt.Sprintf("%s:idx:player_sessions:%s", keyPrefix, playerID)
}

// openSessionsKey returns the Redis key for the SET of open session IDs
func openSessionsKey() string {
	return fmt.Sprintf("%s:idx:open_sessions", keyPrefix)
}
