package response

import (
	"time"

	"github.com/idletap/tapgame-go/internal/model"
)

// Entry represents one leaderboard row in API responses
type Entry struct {
	Rank        int64      `json:"rank"`
	PlayerID    string     `json:"player_id"`
	Score       int64      `json:"score"`
	DisplayName string     `json:"display_name,omitempty"`
	LastActive  *time.Time `json:"last_active,omitempty"`
}

// EntryFromModel converts a model.LeaderboardEntry
func EntryFromModel(e model.LeaderboardEntry) Entry {
	return Entry{
		Rank:        e.Rank,
		PlayerID:    string(e.PlayerID),
		Score:       e.Score,
		DisplayName: e.DisplayName,
		LastActive:  e.LastActive,
	}
}

// Pagination mirrors model.Pagination
type Pagination struct {
	Limit   int64 `json:"limit"`
	Offset  int64 `json:"offset"`
	Total   int64 `json:"total"`
	HasMore bool  `json:"has_more"`
}

// Page is the paginated leaderboard response
type Page struct {
	Leaderboard string     `json:"leaderboard"`
	Entries     []Entry    `json:"entries"`
	Pagination  Pagination `json:"pagination"`
	LastUpdated time.Time  `json:"last_updated"`
}

// PageFromModel converts a model.LeaderboardPage
func PageFromModel(p *model.LeaderboardPage) Page {
	entries := make([]Entry, len(p.Entries))
	for i, e := range p.Entries {
		entries[i] = EntryFromModel(e)
	}
	return Page{
		Leaderboard: string(p.Leaderboard),
		Entries:     entries,
		Pagination: Pagination{
			Limit:   p.Pagination.Limit,
			Offset:  p.Pagination.Offset,
			Total:   p.Pagination.Total,
			HasMore: p.Pagination.HasMore,
		},
		LastUpdated: p.LastUpdated,
	}
}

// PlayerContext is the "around me" response
type PlayerContext struct {
	Leaderboard   string  `json:"leaderboard"`
	UserRank      *int64  `json:"user_rank"`
	UserScore     *int64  `json:"user_score"`
	NearbyPlayers []Entry `json:"nearby_players"`
	TotalPlayers  int64   `json:"total_players"`
}

// PlayerContextFromModel converts a model.PlayerContext
func PlayerContextFromModel(pc *model.PlayerContext) PlayerContext {
	nearby := make([]Entry, len(pc.NearbyPlayers))
	for i, e := range pc.NearbyPlayers {
		nearby[i] = EntryFromModel(e)
	}
	return PlayerContext{
		Leaderboard:   string(pc.Leaderboard),
		UserRank:      pc.UserRank,
		UserScore:     pc.UserScore,
		NearbyPlayers: nearby,
		TotalPlayers:  pc.TotalPlayers,
	}
}

// RankUpdate is the score-push response; rank fields are null when the
// player is unranked on that board
type RankUpdate struct {
	PlayerID  string    `json:"player_id"`
	Score     int64     `json:"score"`
	AllTime   *int64    `json:"all_time"`
	Weekly    *int64    `json:"weekly"`
	Daily     *int64    `json:"daily"`
	Timestamp time.Time `json:"timestamp"`
}

// RankUpdateFromModel converts a model.RankUpdate
func RankUpdateFromModel(u *model.RankUpdate) RankUpdate {
	return RankUpdate{
		PlayerID:  string(u.PlayerID),
		Score:     u.Score,
		AllTime:   u.AllTime.RankPtr(),
		Weekly:    u.Weekly.RankPtr(),
		Daily:     u.Daily.RankPtr(),
		Timestamp: u.Timestamp,
	}
}

// Session represents a session in API responses
type Session struct {
	ID            string     `json:"id"`
	PlayerID      string     `json:"player_id"`
	StartedAt     time.Time  `json:"started_at"`
	EndedAt       *time.Time `json:"ended_at,omitempty"`
	TotalTaps     int64      `json:"total_taps"`
	TotalEarnings int64      `json:"total_earnings"`
	Suspicious    bool       `json:"suspicious"`
}

// SessionFromModel converts a model.Session
func SessionFromModel(s *model.Session) Session {
	return Session{
		ID:            string(s.ID),
		PlayerID:      string(s.PlayerID),
		StartedAt:     s.StartedAt,
		EndedAt:       s.EndedAt,
		TotalTaps:     s.TotalTaps,
		TotalEarnings: s.TotalEarnings,
		Suspicious:    s.Suspicious,
	}
}

// TapEvent represents a recorded tap in API responses
type TapEvent struct {
	ID           string    `json:"id"`
	SessionID    string    `json:"session_id"`
	Earnings     int64     `json:"earnings"`
	IsGoldenTap  bool      `json:"is_golden_tap"`
	TapTimestamp time.Time `json:"tap_timestamp"`
}

// TapEventFromModel converts a model.TapEvent
func TapEventFromModel(e *model.TapEvent) TapEvent {
	return TapEvent{
		ID:           e.ID,
		SessionID:    string(e.SessionID),
		Earnings:     e.Earnings,
		IsGoldenTap:  e.IsGoldenTap,
		TapTimestamp: e.TapTimestamp,
	}
}

// BotReport is the bot-detection response
type BotReport struct {
	PlayerID              string   `json:"player_id"`
	WindowHours           int      `json:"window_hours"`
	SessionsAnalyzed      int      `json:"sessions_analyzed"`
	AvgTapsPerSecond      float64  `json:"avg_taps_per_second"`
	MaxTapsPerSecond      float64  `json:"max_taps_per_second"`
	AvgEarningsPerTap     float64  `json:"avg_earnings_per_tap"`
	SessionsOverLimit     int      `json:"sessions_over_limit"`
	SessionsMissingEvents int      `json:"sessions_missing_events"`
	FlaggedSessions       []string `json:"flagged_sessions,omitempty"`
}

// BotReportFromModel converts a model.BotReport
func BotReportFromModel(r *model.BotReport) BotReport {
	flagged := make([]string, len(r.FlaggedSessions))
	for i, id := range r.FlaggedSessions {
		flagged[i] = string(id)
	}
	return BotReport{
		PlayerID:              string(r.PlayerID),
		WindowHours:           r.WindowHours,
		SessionsAnalyzed:      r.SessionsAnalyzed,
		AvgTapsPerSecond:      r.AvgTapsPerSecond,
		MaxTapsPerSecond:      r.MaxTapsPerSecond,
		AvgEarningsPerTap:     r.AvgEarningsPerTap,
		SessionsOverLimit:     r.SessionsOverLimit,
		SessionsMissingEvents: r.SessionsMissingEvents,
		FlaggedSessions:       flagged,
	}
}
