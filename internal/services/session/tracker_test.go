package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/idletap/tapgame-go/internal/dependencies/mocks"
	"github.com/idletap/tapgame-go/internal/model"
	"github.com/idletap/tapgame-go/internal/storage/memory"
	"github.com/idletap/tapgame-go/internal/testutil"
)

type TrackerSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *mocks.MockClock
	tracker *Tracker
	ctx     context.Context
}

func TestTrackerSuite(t *testing.T) {
	suite.Run(t, new(TrackerSuite))
}

func (s *TrackerSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.tracker = NewTracker(s.storage, s.clock, testutil.NopLogger())
	s.ctx = context.Background()
}

// StartSession tests

func (s *TrackerSuite) TestStartSessionCreatesOpenSession() {
	session, err := s.tracker.StartSession(s.ctx, "alice", "ios/2.1.0")
	s.Require().NoError(err)

	s.NotEmpty(session.ID)
	s.Equal(model.PlayerID("alice"), session.PlayerID)
	s.Equal(s.clock.Now(), session.StartedAt)
	s.Equal(s.clock.Now(), session.LastActivityAt)
	s.Equal("ios/2.1.0", session.ClientMeta)
	s.False(session.Closed())
	s.Equal(int64(0), session.TotalTaps)
}

func (s *TrackerSuite) TestStartSessionPersists() {
	session, _ := s.tracker.StartSession(s.ctx, "alice", "")

	got, err := s.tracker.GetSession(s.ctx, session.ID)
	s.Require().NoError(err)
	s.Equal(session.ID, got.ID)
}

func (s *TrackerSuite) TestConcurrentSessionsForSamePlayer() {
	first, err := s.tracker.StartSession(s.ctx, "alice", "phone")
	s.Require().NoError(err)
	second, err := s.tracker.StartSession(s.ctx, "alice", "tablet")
	s.Require().NoError(err)

	s.NotEqual(first.ID, second.ID)

	// Both stay open independently
	s.Require().NoError(s.tracker.EndSession(s.ctx, first.ID))
	got, err := s.tracker.GetSession(s.ctx, second.ID)
	s.Require().NoError(err)
	s.False(got.Closed())
}

func (s *TrackerSuite) TestGetSessionNotFound() {
	_, err := s.tracker.GetSession(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrSessionNotFound)
}

// RecordTap tests

func (s *TrackerSuite) TestRecordTapUpdatesCounters() {
	session, _ := s.tracker.StartSession(s.ctx, "alice", "")

	s.clock.Advance(time.Second)
	event, err := s.tracker.RecordTap(s.ctx, session.ID, 5, false, nil)
	s.Require().NoError(err)

	s.NotEmpty(event.ID)
	s.Equal(session.ID, event.SessionID)
	s.Equal(model.PlayerID("alice"), event.PlayerID)
	s.Equal(int64(5), event.Earnings)
	s.Equal(s.clock.Now(), event.TapTimestamp)

	got, err := s.tracker.GetSession(s.ctx, session.ID)
	s.Require().NoError(err)
	s.Equal(int64(1), got.TotalTaps)
	s.Equal(int64(5), got.TotalEarnings)
	s.Equal(s.clock.Now(), got.LastActivityAt)
}

func (s *TrackerSuite) TestRecordTapAccumulates() {
	session, _ := s.tracker.StartSession(s.ctx, "alice", "")

	for i := 0; i < 5; i++ {
		s.clock.Advance(100 * time.Millisecond)
		_, err := s.tracker.RecordTap(s.ctx, session.ID, 2, false, nil)
		s.Require().NoError(err)
	}

	got, _ := s.tracker.GetSession(s.ctx, session.ID)
	s.Equal(int64(5), got.TotalTaps)
	s.Equal(int64(10), got.TotalEarnings)
}

func (s *TrackerSuite) TestRecordTapAppendsEvent() {
	session, _ := s.tracker.StartSession(s.ctx, "alice", "")

	_, _ = s.tracker.RecordTap(s.ctx, session.ID, 1, false, nil)
	_, _ = s.tracker.RecordTap(s.ctx, session.ID, 3, true, nil)

	events, err := s.storage.TapEventsForSession(s.ctx, session.ID)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.False(events[0].IsGoldenTap)
	s.True(events[1].IsGoldenTap)
}

func (s *TrackerSuite) TestRecordTapKeepsClientTimestamp() {
	session, _ := s.tracker.StartSession(s.ctx, "alice", "")

	clientTime := s.clock.Now().Add(-50 * time.Millisecond)
	event, err := s.tracker.RecordTap(s.ctx, session.ID, 1, false, &clientTime)
	s.Require().NoError(err)

	// The client timestamp is advisory; the server clock is the
	// authoritative ordering
	s.Require().NotNil(event.ClientTimestamp)
	s.Equal(clientTime, *event.ClientTimestamp)
	s.Equal(s.clock.Now(), event.TapTimestamp)
}

func (s *TrackerSuite) TestRecordTapOnClosedSession() {
	session, _ := s.tracker.StartSession(s.ctx, "alice", "")
	s.Require().NoError(s.tracker.EndSession(s.ctx, session.ID))

	_, err := s.tracker.RecordTap(s.ctx, session.ID, 1, false, nil)
	s.ErrorIs(err, model.ErrSessionClosed)
}

func (s *TrackerSuite) TestRecordTapOnUnknownSession() {
	_, err := s.tracker.RecordTap(s.ctx, "nonexistent", 1, false, nil)
	s.ErrorIs(err, model.ErrSessionNotFound)
}

// EndSession tests

func (s *TrackerSuite) TestEndSessionClosesSession() {
	session, _ := s.tracker.StartSession(s.ctx, "alice", "")

	s.clock.Advance(10 * time.Minute)
	err := s.tracker.EndSession(s.ctx, session.ID)
	s.Require().NoError(err)

	got, _ := s.tracker.GetSession(s.ctx, session.ID)
	s.True(got.Closed())
	s.Equal(s.clock.Now(), *got.EndedAt)
	s.Equal(10*time.Minute, got.Duration(s.clock.Now()))
}

func (s *TrackerSuite) TestEndSessionIdempotent() {
	session, _ := s.tracker.StartSession(s.ctx, "alice", "")

	s.Require().NoError(s.tracker.EndSession(s.ctx, session.ID))
	firstEnd, _ := s.tracker.GetSession(s.ctx, session.ID)

	s.clock.Advance(time.Hour)
	s.Require().NoError(s.tracker.EndSession(s.ctx, session.ID))

	secondEnd, _ := s.tracker.GetSession(s.ctx, session.ID)
	s.Equal(*firstEnd.EndedAt, *secondEnd.EndedAt)
}

func (s *TrackerSuite) TestEndSessionNotFound() {
	err := s.tracker.EndSession(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrSessionNotFound)
}

// MarkSuspicious tests

func (s *TrackerSuite) TestMarkSuspicious() {
	session, _ := s.tracker.StartSession(s.ctx, "alice", "")

	err := s.tracker.MarkSuspicious(s.ctx, session.ID)
	s.Require().NoError(err)

	got, _ := s.tracker.GetSession(s.ctx, session.ID)
	s.True(got.Suspicious)
}

func (s *TrackerSuite) TestMarkSuspiciousOnClosedSession() {
	session, _ := s.tracker.StartSession(s.ctx, "alice", "")
	s.Require().NoError(s.tracker.EndSession(s.ctx, session.ID))

	err := s.tracker.MarkSuspicious(s.ctx, session.ID)
	s.Require().NoError(err)

	got, _ := s.tracker.GetSession(s.ctx, session.ID)
	s.True(got.Suspicious)
}

// RecentTaps tests

func (s *TrackerSuite) TestRecentTapsWindow() {
	session, _ := s.tracker.StartSession(s.ctx, "alice", "")

	_, _ = s.tracker.RecordTap(s.ctx, session.ID, 1, false, nil)
	s.clock.Advance(2 * time.Minute)
	_, _ = s.tracker.RecordTap(s.ctx, session.ID, 2, false, nil)

	events, err := s.tracker.RecentTaps(s.ctx, "alice", 60)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(int64(2), events[0].Earnings)
}

// CloseIdleSessions tests

func (s *TrackerSuite) TestCloseIdleSessions() {
	idle, _ := s.tracker.StartSession(s.ctx, "alice", "")
	active, _ := s.tracker.StartSession(s.ctx, "bob", "")

	s.clock.Advance(29 * time.Minute)
	_, err := s.tracker.RecordTap(s.ctx, active.ID, 1, false, nil)
	s.Require().NoError(err)

	s.clock.Advance(2 * time.Minute)
	closed, err := s.tracker.CloseIdleSessions(s.ctx, 30*time.Minute)
	s.Require().NoError(err)
	s.Equal(1, closed)

	gotIdle, _ := s.tracker.GetSession(s.ctx, idle.ID)
	s.Require().True(gotIdle.Closed())
	// EndedAt backdates to last activity plus the idle threshold
	s.Equal(gotIdle.LastActivityAt.Add(30*time.Minute), *gotIdle.EndedAt)

	gotActive, _ := s.tracker.GetSession(s.ctx, active.ID)
	s.False(gotActive.Closed())
}

func (s *TrackerSuite) TestCloseIdleSessionsNothingToDo() {
	_, _ = s.tracker.StartSession(s.ctx, "alice", "")

	closed, err := s.tracker.CloseIdleSessions(s.ctx, 30*time.Minute)
	s.Require().NoError(err)
	s.Equal(0, closed)
}
