package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/idletap/tapgame-go/internal/model"
	"github.com/idletap/tapgame-go/internal/rankstore"
)

type StoreSuite struct {
	suite.Suite
	mini  *miniredis.Miniredis
	store *Store
	ctx   context.Context
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	s.store = NewWithClient(client, DefaultConfig())
	s.ctx = context.Background()
}

func (s *StoreSuite) TearDownTest() {
	if s.store != nil {
		_ = s.store.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

func (s *StoreSuite) seed(setName string, scores map[string]int64) {
	for id, score := range scores {
		err := s.store.UpsertScore(s.ctx, setName, model.PlayerID(id), score)
		s.Require().NoError(err)
	}
}

// UpsertScore tests

func (s *StoreSuite) TestUpsertScoreCreatesEntry() {
	err := s.store.UpsertScore(s.ctx, "leaderboard:all_time", "alice", 100)
	s.Require().NoError(err)

	score, err := s.store.ScoreOf(s.ctx, "leaderboard:all_time", "alice")
	s.Require().NoError(err)
	s.Equal(int64(100), score)
}

func (s *StoreSuite) TestUpsertScoreOverwrites() {
	s.seed("board", map[string]int64{"alice": 100})

	err := s.store.UpsertScore(s.ctx, "board", "alice", 250)
	s.Require().NoError(err)

	score, err := s.store.ScoreOf(s.ctx, "board", "alice")
	s.Require().NoError(err)
	s.Equal(int64(250), score)

	size, err := s.store.Size(s.ctx, "board")
	s.Require().NoError(err)
	s.Equal(int64(1), size)
}

// RankOf tests

func (s *StoreSuite) TestRankOfOrdersByScoreDescending() {
	s.seed("board", map[string]int64{"alice": 300, "bob": 100, "carol": 200})

	rank, err := s.store.RankOf(s.ctx, "board", "alice")
	s.Require().NoError(err)
	s.Equal(int64(0), rank)

	rank, err = s.store.RankOf(s.ctx, "board", "bob")
	s.Require().NoError(err)
	s.Equal(int64(2), rank)
}

func (s *StoreSuite) TestRankOfTieBreaksByPlayerIDDescending() {
	// ZREVRANK orders equal scores by member descending
	s.seed("board", map[string]int64{"alice": 500, "bob": 500, "carol": 300})

	rank, err := s.store.RankOf(s.ctx, "board", "bob")
	s.Require().NoError(err)
	s.Equal(int64(0), rank)

	rank, err = s.store.RankOf(s.ctx, "board", "alice")
	s.Require().NoError(err)
	s.Equal(int64(1), rank)

	rank, err = s.store.RankOf(s.ctx, "board", "carol")
	s.Require().NoError(err)
	s.Equal(int64(2), rank)
}

func (s *StoreSuite) TestRankOfUnknownPlayer() {
	s.seed("board", map[string]int64{"alice": 100})

	_, err := s.store.RankOf(s.ctx, "board", "ghost")
	s.ErrorIs(err, model.ErrPlayerNotRanked)
}

func (s *StoreSuite) TestScoreOfUnknownPlayer() {
	_, err := s.store.ScoreOf(s.ctx, "board", "ghost")
	s.ErrorIs(err, model.ErrPlayerNotRanked)
}

// Range tests

func (s *StoreSuite) TestRangeReturnsOrderedEntries() {
	s.seed("board", map[string]int64{"alice": 300, "bob": 100, "carol": 200})

	entries, err := s.store.Range(s.ctx, "board", 0, -1, true)
	s.Require().NoError(err)
	s.Equal([]rankstore.Entry{
		{PlayerID: "alice", Score: 300},
		{PlayerID: "carol", Score: 200},
		{PlayerID: "bob", Score: 100},
	}, entries)
}

func (s *StoreSuite) TestRangeSubWindow() {
	s.seed("board", map[string]int64{"a": 50, "b": 40, "c": 30, "d": 20, "e": 10})

	entries, err := s.store.Range(s.ctx, "board", 1, 3, true)
	s.Require().NoError(err)
	s.Require().Len(entries, 3)
	s.Equal(model.PlayerID("b"), entries[0].PlayerID)
	s.Equal(model.PlayerID("d"), entries[2].PlayerID)
}

func (s *StoreSuite) TestRangeClampsOutOfBounds() {
	s.seed("board", map[string]int64{"alice": 100, "bob": 50})

	entries, err := s.store.Range(s.ctx, "board", 0, 999, true)
	s.Require().NoError(err)
	s.Len(entries, 2)

	entries, err = s.store.Range(s.ctx, "board", 5, 10, true)
	s.Require().NoError(err)
	s.Empty(entries)
}

func (s *StoreSuite) TestRangeWithoutScores() {
	s.seed("board", map[string]int64{"alice": 100})

	entries, err := s.store.Range(s.ctx, "board", 0, -1, false)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(model.PlayerID("alice"), entries[0].PlayerID)
	s.Equal(int64(0), entries[0].Score)
}

// Remove tests

func (s *StoreSuite) TestRemoveExistingPlayer() {
	s.seed("board", map[string]int64{"alice": 100, "bob": 50})

	removed, err := s.store.Remove(s.ctx, "board", "alice")
	s.Require().NoError(err)
	s.Equal(int64(1), removed)

	_, err = s.store.RankOf(s.ctx, "board", "alice")
	s.ErrorIs(err, model.ErrPlayerNotRanked)
}

func (s *StoreSuite) TestRemoveAbsentPlayerIsNoop() {
	removed, err := s.store.Remove(s.ctx, "board", "ghost")
	s.Require().NoError(err)
	s.Equal(int64(0), removed)
}

func (s *StoreSuite) TestRemoveSet() {
	s.seed("board", map[string]int64{"alice": 100, "bob": 50})

	err := s.store.RemoveSet(s.ctx, "board")
	s.Require().NoError(err)

	size, err := s.store.Size(s.ctx, "board")
	s.Require().NoError(err)
	s.Equal(int64(0), size)
}

// AroundRank tests

func (s *StoreSuite) TestAroundRankMiddle() {
	s.seed("board", map[string]int64{"a": 50, "b": 40, "c": 30, "d": 20, "e": 10})

	entries, err := s.store.AroundRank(s.ctx, "board", "c", 1)
	s.Require().NoError(err)
	s.Require().Len(entries, 3)
	s.Equal(model.PlayerID("b"), entries[0].PlayerID)
	s.Equal(model.PlayerID("c"), entries[1].PlayerID)
	s.Equal(model.PlayerID("d"), entries[2].PlayerID)
}

func (s *StoreSuite) TestAroundRankClampsAtEdges() {
	s.seed("board", map[string]int64{"a": 50, "b": 40, "c": 30})

	entries, err := s.store.AroundRank(s.ctx, "board", "a", 2)
	s.Require().NoError(err)
	s.Require().Len(entries, 3)
	s.Equal(model.PlayerID("a"), entries[0].PlayerID)

	entries, err = s.store.AroundRank(s.ctx, "board", "c", 2)
	s.Require().NoError(err)
	s.Require().Len(entries, 3)
	s.Equal(model.PlayerID("c"), entries[2].PlayerID)
}

func (s *StoreSuite) TestAroundRankAbsentPlayer() {
	s.seed("board", map[string]int64{"a": 50})

	entries, err := s.store.AroundRank(s.ctx, "board", "ghost", 2)
	s.Require().NoError(err)
	s.Empty(entries)
}

// Failure reporting

func (s *StoreSuite) TestOperationsReportBackendUnavailable() {
	s.mini.Close()

	err := s.store.UpsertScore(s.ctx, "board", "alice", 100)
	s.ErrorIs(err, model.ErrBackendUnavailable)

	_, err = s.store.RankOf(s.ctx, "board", "alice")
	s.ErrorIs(err, model.ErrBackendUnavailable)

	_, err = s.store.Range(s.ctx, "board", 0, -1, true)
	s.ErrorIs(err, model.ErrBackendUnavailable)

	err = s.store.Ping(s.ctx)
	s.ErrorIs(err, model.ErrBackendUnavailable)
}
