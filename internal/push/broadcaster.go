package push

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/idletap/tapgame-go/internal/model"
)

// Event type identifiers carried in every payload
const (
	EventRankUpdate       = "rank_update"
	EventLeaderboardReset = "leaderboard_reset"
)

// rankUpdateEvent is the wire shape of a rank-change notification
type rankUpdateEvent struct {
	Type      string     `json:"type"`
	PlayerID  string     `json:"playerId"`
	Ranks     rankValues `json:"ranks"`
	Timestamp time.Time  `json:"timestamp"`
}

// rankValues carries the 1-based ranks; null means unranked there
type rankValues struct {
	AllTime *int64 `json:"allTime"`
	Weekly  *int64 `json:"weekly"`
	Daily   *int64 `json:"daily"`
}

// resetEvent is the wire shape of a leaderboard reset notification
type resetEvent struct {
	Type            string    `json:"type"`
	LeaderboardName string    `json:"leaderboardName"`
	Timestamp       time.Time `json:"timestamp"`
}

// Broadcaster fans rank-change and reset events out to the hub
type Broadcaster struct {
	hub    *Hub
	logger *slog.Logger
}

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(hub *Hub, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		hub:    hub,
		logger: logger.With(slog.String("component", "push-broadcaster")),
	}
}

// BroadcastRankUpdate publishes a player's new ranks to all clients
func (b *Broadcaster) BroadcastRankUpdate(update *model.RankUpdate) {
	payload := rankUpdateEvent{
		Type:     EventRankUpdate,
		PlayerID: string(update.PlayerID),
		Ranks: rankValues{
			AllTime: update.AllTime.RankPtr(),
			Weekly:  update.Weekly.RankPtr(),
			Daily:   update.Daily.RankPtr(),
		},
		Timestamp: update.Timestamp,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		b.logger.Error("failed to encode rank update",
			slog.String("player_id", string(update.PlayerID)),
			slog.Any("error", err))
		return
	}
	b.hub.BroadcastEvent(EventRankUpdate, string(data))
}

// BroadcastReset publishes a leaderboard reset to all clients
func (b *Broadcaster) BroadcastReset(name model.LeaderboardName, at time.Time) {
	payload := resetEvent{
		Type:            EventLeaderboardReset,
		LeaderboardName: string(name),
		Timestamp:       at,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		b.logger.Error("failed to encode reset event",
			slog.String("leaderboard", string(name)),
			slog.Any("error", err))
		return
	}
	b.hub.BroadcastEvent(EventLeaderboardReset, string(data))
}
