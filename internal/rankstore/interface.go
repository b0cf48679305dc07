package rankstore

import (
	"context"

	"github.com/idletap/tapgame-go/internal/model"
)

// Entry is one (player, score) pair from a rank-ordered set
type Entry struct {
	PlayerID model.PlayerID
	Score    int64
}

// Store is the sorted-set abstraction backing the leaderboards.
//
// Ordering is score descending. Equal scores order by player ID
// descending lexicographically; this matches the native ordering of a
// reversed Redis ZSET range, and the in-memory implementation applies
// the same rule so both backends agree. The tie-break is stable across
// repeated calls against the same store state.
//
// Operations that cannot reach the backend within the configured
// timeout fail with an error wrapping model.ErrBackendUnavailable.
type Store interface {
	// UpsertScore creates or overwrites the player's score in a set.
	// Idempotent; last write wins.
	UpsertScore(ctx context.Context, setName string, playerID model.PlayerID, score int64) error

	// RankOf returns the zero-based rank of the player, or
	// model.ErrPlayerNotRanked when the player has no entry.
	RankOf(ctx context.Context, setName string, playerID model.PlayerID) (int64, error)

	// ScoreOf returns the player's score, or model.ErrPlayerNotRanked.
	ScoreOf(ctx context.Context, setName string, playerID model.PlayerID) (int64, error)

	// Range returns entries for ranks [start, stop], both inclusive.
	// stop == -1 means "to the end". Out-of-range bounds clamp rather
	// than error. Scores are zero when withScores is false.
	Range(ctx context.Context, setName string, start, stop int64, withScores bool) ([]Entry, error)

	// Size returns the number of entries in a set.
	Size(ctx context.Context, setName string) (int64, error)

	// Remove deletes the player's entry, returning 0 or 1.
	Remove(ctx context.Context, setName string, playerID model.PlayerID) (int64, error)

	// RemoveSet clears an entire set.
	RemoveSet(ctx context.Context, setName string) error

	// AroundRank returns entries for ranks RankOf(player)-radius through
	// +radius, clamped to [0, Size-1]. Empty when the player is absent.
	AroundRank(ctx context.Context, setName string, playerID model.PlayerID, radius int64) ([]Entry, error)
}

// SetKey returns the backing set name for a leaderboard
func SetKey(name model.LeaderboardName) string {
	return "leaderboard:" + string(name)
}
