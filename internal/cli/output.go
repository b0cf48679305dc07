package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Page:
		o.printPage(v)
	case PlayerContext:
		o.printPlayerContext(v)
	case RankUpdate:
		o.printRankUpdate(v)
	case Session:
		o.printSession(v)
	case TapEvent:
		o.printTapEvent(v)
	case []TapEvent:
		o.printTapEvents(v)
	case BotReport:
		o.printBotReport(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Entry response type (matches API)
type Entry struct {
	Rank        int64      `json:"rank"`
	PlayerID    string     `json:"player_id"`
	Score       int64      `json:"score"`
	DisplayName string     `json:"display_name,omitempty"`
	LastActive  *time.Time `json:"last_active,omitempty"`
}

// Pagination response type
type Pagination struct {
	Limit   int64 `json:"limit"`
	Offset  int64 `json:"offset"`
	Total   int64 `json:"total"`
	HasMore bool  `json:"has_more"`
}

// Page response type
type Page struct {
	Leaderboard string     `json:"leaderboard"`
	Entries     []Entry    `json:"entries"`
	Pagination  Pagination `json:"pagination"`
	LastUpdated time.Time  `json:"last_updated"`
}

// PlayerContext response type
type PlayerContext struct {
	Leaderboard   string  `json:"leaderboard"`
	UserRank      *int64  `json:"user_rank"`
	UserScore     *int64  `json:"user_score"`
	NearbyPlayers []Entry `json:"nearby_players"`
	TotalPlayers  int64   `json:"total_players"`
}

// RankUpdate response type
type RankUpdate struct {
	PlayerID  string    `json:"player_id"`
	Score     int64     `json:"score"`
	AllTime   *int64    `json:"all_time"`
	Weekly    *int64    `json:"weekly"`
	Daily     *int64    `json:"daily"`
	Timestamp time.Time `json:"timestamp"`
}

// Session response type
type Session struct {
	ID            string     `json:"id"`
	PlayerID      string     `json:"player_id"`
	StartedAt     time.Time  `json:"started_at"`
	EndedAt       *time.Time `json:"ended_at,omitempty"`
	TotalTaps     int64      `json:"total_taps"`
	TotalEarnings int64      `json:"total_earnings"`
	Suspicious    bool       `json:"suspicious"`
}

// TapEvent response type
type TapEvent struct {
	ID           string    `json:"id"`
	SessionID    string    `json:"session_id"`
	Earnings     int64     `json:"earnings"`
	IsGoldenTap  bool      `json:"is_golden_tap"`
	TapTimestamp time.Time `json:"tap_timestamp"`
}

// BotReport response type
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

// HealthResult response type
type HealthResult struct {
	Status    string `json:"status"`
	RankStore string `json:"rank_store"`
}

func (o *Output) printPage(p Page) {
	fmt.Printf("Leaderboard: %s\n", p.Leaderboard)
	fmt.Printf("Players: %d (showing %d at offset %d)\n",
		p.Pagination.Total, len(p.Entries), p.Pagination.Offset)
	fmt.Printf("Updated: %s\n", p.LastUpdated.Format(time.RFC3339))
	fmt.Println()
	o.printEntries(p.Entries)
	if p.Pagination.HasMore {
		fmt.Printf("\n... more entries from offset %d\n",
			p.Pagination.Offset+int64(len(p.Entries)))
	}
}

func (o *Output) printEntries(entries []Entry) {
	if len(entries) == 0 {
		fmt.Println("  (empty)")
		return
	}
	for _, e := range entries {
		name := e.DisplayName
		if name == "" {
			name = e.PlayerID
		}
		fmt.Printf("  %4d. %-24s %12d\n", e.Rank, name, e.Score)
	}
}

func (o *Output) printPlayerContext(pc PlayerContext) {
	fmt.Printf("Leaderboard: %s\n", pc.Leaderboard)
	if pc.UserRank == nil {
		fmt.Println("Rank: unranked")
	} else {
		fmt.Printf("Rank: %d of %d\n", *pc.UserRank, pc.TotalPlayers)
	}
	if pc.UserScore != nil {
		fmt.Printf("Score: %d\n", *pc.UserScore)
	}
	if len(pc.NearbyPlayers) > 0 {
		fmt.Println("\nNearby:")
		o.printEntries(pc.NearbyPlayers)
	}
}

func (o *Output) printRankUpdate(u RankUpdate) {
	fmt.Printf("Player: %s\n", u.PlayerID)
	fmt.Printf("Score: %d\n", u.Score)
	fmt.Printf("All-time rank: %s\n", formatRank(u.AllTime))
	fmt.Printf("Weekly rank: %s\n", formatRank(u.Weekly))
	fmt.Printf("Daily rank: %s\n", formatRank(u.Daily))
}

func formatRank(rank *int64) string {
	if rank == nil {
		return "unranked"
	}
	return fmt.Sprintf("%d", *rank)
}

func (o *Output) printSession(s Session) {
	fmt.Printf("Session: %s\n", s.ID)
	fmt.Printf("Player: %s\n", s.PlayerID)
	fmt.Printf("Started: %s\n", s.StartedAt.Format(time.RFC3339))
	if s.EndedAt != nil {
		fmt.Printf("Ended: %s\n", s.EndedAt.Format(time.RFC3339))
	} else {
		fmt.Println("Ended: (open)")
	}
	fmt.Printf("Taps: %d\n", s.TotalTaps)
	fmt.Printf("Earnings: %d\n", s.TotalEarnings)
	if s.Suspicious {
		fmt.Println("Suspicious: yes")
	}
}

func (o *Output) printTapEvent(e TapEvent) {
	golden := ""
	if e.IsGoldenTap {
		golden = " [golden]"
	}
	fmt.Printf("Tap %s: +%d at %s%s\n",
		e.ID, e.Earnings, e.TapTimestamp.Format(time.RFC3339Nano), golden)
}

func (o *Output) printTapEvents(events []TapEvent) {
	if len(events) == 0 {
		fmt.Println("No taps in window")
		return
	}
	fmt.Printf("Taps: %d\n", len(events))
	for _, e := range events {
		o.printTapEvent(e)
	}
}

func (o *Output) printBotReport(r BotReport) {
	fmt.Printf("Player: %s\n", r.PlayerID)
	fmt.Printf("Window: %dh\n", r.WindowHours)
	fmt.Printf("Sessions analyzed: %d\n", r.SessionsAnalyzed)
	fmt.Printf("Avg taps/s: %.2f\n", r.AvgTapsPerSecond)
	fmt.Printf("Max taps/s: %.2f\n", r.MaxTapsPerSecond)
	fmt.Printf("Avg earnings/tap: %.2f\n", r.AvgEarningsPerTap)
	fmt.Printf("Sessions over limit: %d\n", r.SessionsOverLimit)
	fmt.Printf("Sessions missing events: %d\n", r.SessionsMissingEvents)
	if len(r.FlaggedSessions) > 0 {
		fmt.Printf("Flagged: %s\n", strings.Join(r.FlaggedSessions, ", "))
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
	fmt.Printf("Rank store: %s\n", h.RankStore)
}
