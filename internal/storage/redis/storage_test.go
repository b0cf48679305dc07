package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/idletap/tapgame-go/internal/model"
)

type StorageSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	cfg := DefaultConfig()
	cfg.SessionTTL = time.Hour
	cfg.TapIndexRetention = time.Hour

	s.storage = NewWithClient(client, cfg)
	s.ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

func (s *StorageSuite) newSession(id model.SessionID, playerID model.PlayerID, startedAt time.Time) *model.Session {
	return &model.Session{
		ID:             id,
		PlayerID:       playerID,
		StartedAt:      startedAt,
		LastActivityAt: startedAt,
		ClientMeta:     "test-client",
	}
}

// Session tests

func (s *StorageSuite) TestSaveAndGetSession() {
	session := s.newSession("sess-1", "alice", time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))

	err := s.storage.SaveSession(s.ctx, session)
	s.Require().NoError(err)

	got, err := s.storage.GetSession(s.ctx, "sess-1")
	s.Require().NoError(err)
	s.Equal(session.ID, got.ID)
	s.Equal(session.PlayerID, got.PlayerID)
	s.Nil(got.EndedAt)
}

func (s *StorageSuite) TestGetSessionNotFound() {
	_, err := s.storage.GetSession(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *StorageSuite) TestOpenSessionHasNoTTL() {
	session := s.newSession("sess-1", "alice", time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	_ = s.storage.SaveSession(s.ctx, session)

	s.mini.FastForward(2 * time.Hour)

	_, err := s.storage.GetSession(s.ctx, "sess-1")
	s.NoError(err)
}

func (s *StorageSuite) TestClosedSessionExpiresAfterTTL() {
	started := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	session := s.newSession("sess-1", "alice", started)
	endedAt := started.Add(time.Minute)
	session.EndedAt = &endedAt
	_ = s.storage.SaveSession(s.ctx, session)

	s.mini.FastForward(2 * time.Hour)

	_, err := s.storage.GetSession(s.ctx, "sess-1")
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *StorageSuite) TestSessionsForPlayerSince() {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	_ = s.storage.SaveSession(s.ctx, s.newSession("old", "alice", base.Add(-48*time.Hour)))
	_ = s.storage.SaveSession(s.ctx, s.newSession("recent", "alice", base.Add(-time.Hour)))
	_ = s.storage.SaveSession(s.ctx, s.newSession("other", "bob", base))

	sessions, err := s.storage.SessionsForPlayerSince(s.ctx, "alice", base.Add(-24*time.Hour))
	s.Require().NoError(err)
	s.Require().Len(sessions, 1)
	s.Equal(model.SessionID("recent"), sessions[0].ID)
}

func (s *StorageSuite) TestSessionsForPlayerSinceEmpty() {
	sessions, err := s.storage.SessionsForPlayerSince(s.ctx, "ghost", time.Now())
	s.Require().NoError(err)
	s.Empty(sessions)
}

func (s *StorageSuite) TestOpenSessionsTracksCloses() {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	alice := s.newSession("sess-a", "alice", base)
	bob := s.newSession("sess-b", "bob", base)
	_ = s.storage.SaveSession(s.ctx, alice)
	_ = s.storage.SaveSession(s.ctx, bob)

	sessions, err := s.storage.OpenSessions(s.ctx)
	s.Require().NoError(err)
	s.Len(sessions, 2)

	endedAt := base.Add(time.Hour)
	bob.EndedAt = &endedAt
	_ = s.storage.SaveSession(s.ctx, bob)

	sessions, err = s.storage.OpenSessions(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(sessions, 1)
	s.Equal(model.SessionID("sess-a"), sessions[0].ID)
}

// Tap event tests

func (s *StorageSuite) TestAppendAndGetTapEvents() {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		err := s.storage.AppendTapEvent(s.ctx, &model.TapEvent{
			ID:           string(rune('a' + i)),
			SessionID:    "sess-1",
			PlayerID:     "alice",
			Earnings:     int64(i + 1),
			TapTimestamp: base.Add(time.Duration(i) * time.Second),
		})
		s.Require().NoError(err)
	}

	events, err := s.storage.TapEventsForSession(s.ctx, "sess-1")
	s.Require().NoError(err)
	s.Require().Len(events, 3)
	s.Equal(int64(1), events[0].Earnings)
	s.Equal(int64(3), events[2].Earnings)
}

func (s *StorageSuite) TestTapEventsForSessionEmpty() {
	events, err := s.storage.TapEventsForSession(s.ctx, "nothing")
	s.Require().NoError(err)
	s.Empty(events)
}

func (s *StorageSuite) TestTapEventsForPlayerSince() {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	_ = s.storage.AppendTapEvent(s.ctx, &model.TapEvent{
		ID: "old", SessionID: "sess-1", PlayerID: "alice",
		TapTimestamp: base.Add(-30 * time.Minute),
	})
	_ = s.storage.AppendTapEvent(s.ctx, &model.TapEvent{
		ID: "recent", SessionID: "sess-2", PlayerID: "alice",
		TapTimestamp: base.Add(-time.Minute),
	})
	_ = s.storage.AppendTapEvent(s.ctx, &model.TapEvent{
		ID: "other", SessionID: "sess-3", PlayerID: "bob",
		TapTimestamp: base,
	})

	events, err := s.storage.TapEventsForPlayerSince(s.ctx, "alice", base.Add(-10*time.Minute))
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal("recent", events[0].ID)
}

func (s *StorageSuite) TestTapIndexTrimsOldEntries() {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	_ = s.storage.AppendTapEvent(s.ctx, &model.TapEvent{
		ID: "ancient", SessionID: "sess-1", PlayerID: "alice",
		TapTimestamp: base.Add(-2 * time.Hour),
	})
	// This append trims everything older than the retention window
	_ = s.storage.AppendTapEvent(s.ctx, &model.TapEvent{
		ID: "current", SessionID: "sess-1", PlayerID: "alice",
		TapTimestamp: base,
	})

	events, err := s.storage.TapEventsForPlayerSince(s.ctx, "alice", base.Add(-3*time.Hour))
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal("current", events[0].ID)
}

func (s *StorageSuite) TestGoldenTapRoundTrips() {
	event := &model.TapEvent{
		ID:           "tap-1",
		SessionID:    "sess-1",
		PlayerID:     "alice",
		Earnings:     50,
		IsGoldenTap:  true,
		TapTimestamp: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	_ = s.storage.AppendTapEvent(s.ctx, event)

	events, err := s.storage.TapEventsForSession(s.ctx, "sess-1")
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.True(events[0].IsGoldenTap)
	s.Equal(int64(50), events[0].Earnings)
}
