package model

import "time"

// PlayerID identifies a player across leaderboards and sessions
type PlayerID string

// SessionID identifies a single play session
type SessionID string

// LeaderboardName is one of the fixed leaderboard identifiers
type LeaderboardName string

// The three leaderboards maintained by the engine
const (
	LeaderboardAllTime LeaderboardName = "all_time"
	LeaderboardWeekly  LeaderboardName = "weekly"
	LeaderboardDaily   LeaderboardName = "daily"
)

// AllLeaderboards returns the fixed leaderboard names in update order
func AllLeaderboards() []LeaderboardName {
	return []LeaderboardName{LeaderboardAllTime, LeaderboardWeekly, LeaderboardDaily}
}

// Valid reports whether the name is one of the three fixed leaderboards
func (n LeaderboardName) Valid() bool {
	switch n {
	case LeaderboardAllTime, LeaderboardWeekly, LeaderboardDaily:
		return true
	}
	return false
}

// Session is one continuous play interval for a player.
// A session is Open until EndedAt is set; it never reopens.
type Session struct {
	ID             SessionID  `json:"id"`
	PlayerID       PlayerID   `json:"player_id"`
	StartedAt      time.Time  `json:"started_at"`
	EndedAt        *time.Time `json:"ended_at,omitempty"`
	LastActivityAt time.Time  `json:"last_activity_at"`
	TotalTaps      int64      `json:"total_taps"`
	TotalEarnings  int64      `json:"total_earnings"`
	Suspicious     bool       `json:"suspicious"`
	ClientMeta     string     `json:"client_meta,omitempty"`
}

// Closed reports whether the session has ended
func (s *Session) Closed() bool {
	return s.EndedAt != nil
}

// Duration returns the session length, using now for still-open sessions
func (s *Session) Duration(now time.Time) time.Duration {
	end := now
	if s.EndedAt != nil {
		end = *s.EndedAt
	}
	if end.Before(s.StartedAt) {
		return 0
	}
	return end.Sub(s.StartedAt)
}

// TapEvent is one discrete scored input action within a session.
// Events are append-only and belong to exactly one session.
type TapEvent struct {
	ID              string     `json:"id"`
	SessionID       SessionID  `json:"session_id"`
	PlayerID        PlayerID   `json:"player_id"`
	Earnings        int64      `json:"earnings"`
	IsGoldenTap     bool       `json:"is_golden_tap"`
	TapTimestamp    time.Time  `json:"tap_timestamp"`
	ClientTimestamp *time.Time `json:"client_timestamp,omitempty"`
}

// RankState tags a RankResult so callers cannot confuse "unranked"
// with rank zero or with a backend outage
type RankState int

const (
	// RankFound means the player holds a rank on the leaderboard
	RankFound RankState = iota
	// RankNotFound means the player has no entry on the leaderboard
	RankNotFound
	// RankUnavailable means no authoritative answer could be computed
	RankUnavailable
)

// RankResult is the outcome of a rank lookup. Rank is 1-based and only
// meaningful when State is RankFound.
type RankResult struct {
	State RankState `json:"state"`
	Rank  int64     `json:"rank,omitempty"`
}

// FoundRank builds a RankResult for a ranked player
func FoundRank(rank int64) RankResult {
	return RankResult{State: RankFound, Rank: rank}
}

// NoRank builds a RankResult for a player absent from the leaderboard
func NoRank() RankResult {
	return RankResult{State: RankNotFound}
}

// UnavailableRank builds a RankResult for a failed lookup
func UnavailableRank() RankResult {
	return RankResult{State: RankUnavailable}
}

// RankPtr returns the 1-based rank, or nil when not found
func (r RankResult) RankPtr() *int64 {
	if r.State != RankFound {
		return nil
	}
	rank := r.Rank
	return &rank
}

// RankUpdate is the result of pushing a score to all leaderboards
type RankUpdate struct {
	PlayerID  PlayerID   `json:"player_id"`
	Score     int64      `json:"score"`
	AllTime   RankResult `json:"all_time"`
	Weekly    RankResult `json:"weekly"`
	Daily     RankResult `json:"daily"`
	Timestamp time.Time  `json:"timestamp"`
}

// Ranked reports whether at least one leaderboard produced a rank
func (u *RankUpdate) Ranked() bool {
	return u.AllTime.State == RankFound ||
		u.Weekly.State == RankFound ||
		u.Daily.State == RankFound
}

// Profile is display metadata for a player, resolved from an external
// profile source
type Profile struct {
	DisplayName  string     `json:"display_name"`
	LastActiveAt *time.Time `json:"last_active_at,omitempty"`
}

// LeaderboardEntry is one decorated row of a leaderboard page
type LeaderboardEntry struct {
	Rank        int64      `json:"rank"`
	PlayerID    PlayerID   `json:"player_id"`
	Score       int64      `json:"score"`
	DisplayName string     `json:"display_name,omitempty"`
	LastActive  *time.Time `json:"last_active,omitempty"`
}

// Pagination describes the window a leaderboard page covers
type Pagination struct {
	Limit   int64 `json:"limit"`
	Offset  int64 `json:"offset"`
	Total   int64 `json:"total"`
	HasMore bool  `json:"has_more"`
}

// LeaderboardPage is a cached, decorated slice of one leaderboard
type LeaderboardPage struct {
	Leaderboard LeaderboardName    `json:"leaderboard"`
	Entries     []LeaderboardEntry `json:"entries"`
	Pagination  Pagination         `json:"pagination"`
	LastUpdated time.Time          `json:"last_updated"`
}

// PlayerContext is the "players around me" view of one leaderboard
type PlayerContext struct {
	Leaderboard   LeaderboardName    `json:"leaderboard"`
	UserRank      *int64             `json:"user_rank"`
	UserScore     *int64             `json:"user_score"`
	NearbyPlayers []LeaderboardEntry `json:"nearby_players"`
	TotalPlayers  int64              `json:"total_players"`
}

// TapInterval is the inter-arrival gap between two consecutive taps
type TapInterval struct {
	Event        TapEvent `json:"event"`
	Previous     TapEvent `json:"previous"`
	DeltaSeconds float64  `json:"delta_seconds"`
}

// BotReport aggregates tap-rate statistics across a player's sessions
// within an analysis window
type BotReport struct {
	PlayerID              PlayerID    `json:"player_id"`
	WindowHours           int         `json:"window_hours"`
	SessionsAnalyzed      int         `json:"sessions_analyzed"`
	AvgTapsPerSecond      float64     `json:"avg_taps_per_second"`
	MaxTapsPerSecond      float64     `json:"max_taps_per_second"`
	AvgEarningsPerTap     float64     `json:"avg_earnings_per_tap"`
	SessionsOverLimit     int         `json:"sessions_over_limit"`
	SessionsMissingEvents int         `json:"sessions_missing_events"`
	FlaggedSessions       []SessionID `json:"flagged_sessions,omitempty"`
}
