package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/idletap/tapgame-go/internal/dependencies/clock"
	"github.com/idletap/tapgame-go/internal/model"
	"github.com/idletap/tapgame-go/internal/storage"
)

// Tracker owns the session state machine: Open --RecordTap--> Open,
// Open --EndSession--> Closed, no transition out of Closed.
type Tracker struct {
	storage storage.Storage
	clock   clock.Clock
	logger  *slog.Logger
}

// NewTracker creates a new session Tracker
func NewTracker(storage storage.Storage, clk clock.Clock, logger *slog.Logger) *Tracker {
	return &Tracker{
		storage: storage,
		clock:   clk,
		logger:  logger.With(slog.String("component", "session-tracker")),
	}
}

// StartSession opens a new session for a player
func (t *Tracker) StartSession(ctx context.Context, playerID model.PlayerID, clientMeta string) (*model.Session, error) {
	now := t.clock.Now()
	session := &model.Session{
		ID:             model.SessionID(uuid.NewString()),
		PlayerID:       playerID,
		StartedAt:      now,
		LastActivityAt: now,
		ClientMeta:     clientMeta,
	}

	if err := t.storage.SaveSession(ctx, session); err != nil {
		return nil, err
	}

	t.logger.Info("session started",
		slog.String("session_id", string(session.ID)),
		slog.String("player_id", string(playerID)),
	)
	return session, nil
}

// GetSession retrieves a session by ID
func (t *Tracker) GetSession(ctx context.Context, id model.SessionID) (*model.Session, error) {
	return t.storage.GetSession(ctx, id)
}

// RecordTap appends a tap event to an open session's log and bumps the
// session counters. Fails with model.ErrSessionClosed on an ended
// session.
func (t *Tracker) RecordTap(ctx context.Context, sessionID model.SessionID, earnings int64, isGoldenTap bool, clientTimestamp *time.Time) (*model.TapEvent, error) {
	session, err := t.storage.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Closed() {
		return nil, model.ErrSessionClosed
	}

	now := t.clock.Now()
	event := &model.TapEvent{
		ID:              uuid.NewString(),
		SessionID:       sessionID,
		PlayerID:        session.PlayerID,
		Earnings:        earnings,
		IsGoldenTap:     isGoldenTap,
		TapTimestamp:    now,
		ClientTimestamp: clientTimestamp,
	}

	if err := t.storage.AppendTapEvent(ctx, event); err != nil {
		return nil, err
	}

	session.TotalTaps++
	session.TotalEarnings += earnings
	session.LastActivityAt = now
	if err := t.storage.SaveSession(ctx, session); err != nil {
		return nil, err
	}

	return event, nil
}

// EndSession closes a session. Re-ending an already-closed session is
// a no-op.
func (t *Tracker) EndSession(ctx context.Context, sessionID model.SessionID) error {
	session, err := t.storage.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.Closed() {
		return nil
	}

	now := t.clock.Now()
	session.EndedAt = &now
	if err := t.storage.SaveSession(ctx, session); err != nil {
		return err
	}

	t.logger.Info("session ended",
		slog.String("session_id", string(sessionID)),
		slog.String("player_id", string(session.PlayerID)),
		slog.Int64("total_taps", session.TotalTaps),
		slog.Int64("total_earnings", session.TotalEarnings),
	)
	return nil
}

// MarkSuspicious flags a session; valid in either state
func (t *Tracker) MarkSuspicious(ctx context.Context, sessionID model.SessionID) error {
	session, err := t.storage.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.Suspicious {
		return nil
	}

	session.Suspicious = true
	if err := t.storage.SaveSession(ctx, session); err != nil {
		return err
	}

	t.logger.Warn("session marked suspicious",
		slog.String("session_id", string(sessionID)),
		slog.String("player_id", string(session.PlayerID)),
	)
	return nil
}

// RecentTaps returns a player's tap events from the last windowSeconds
func (t *Tracker) RecentTaps(ctx context.Context, playerID model.PlayerID, windowSeconds int) ([]model.TapEvent, error) {
	since := t.clock.Now().Add(-time.Duration(windowSeconds) * time.Second)
	return t.storage.TapEventsForPlayerSince(ctx, playerID, since)
}

// CloseIdleSessions closes open sessions with no activity for idleFor
// or longer, returning the number closed. Driven by the scheduler.
func (t *Tracker) CloseIdleSessions(ctx context.Context, idleFor time.Duration) (int, error) {
	sessions, err := t.storage.OpenSessions(ctx)
	if err != nil {
		return 0, err
	}

	now := t.clock.Now()
	closed := 0
	for _, session := range sessions {
		if now.Sub(session.LastActivityAt) < idleFor {
			continue
		}
		ended := session.LastActivityAt.Add(idleFor)
		session.EndedAt = &ended
		if err := t.storage.SaveSession(ctx, session); err != nil {
			t.logger.Error("failed to close idle session",
				slog.String("session_id", string(session.ID)),
				slog.String("error", err.Error()),
			)
			continue
		}
		closed++
	}

	if closed > 0 {
		t.logger.Info("idle sessions closed", slog.Int("count", closed))
	}
	return closed, nil
}
