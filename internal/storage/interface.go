package storage

import (
	"context"
	"time"

	"github.com/idletap/tapgame-go/internal/model"
)

// Storage defines persistence for sessions and their tap-event logs.
// Tap events are append-only; sessions are mutated in place until
// closed.
type Storage interface {
	// Session operations
	SaveSession(ctx context.Context, session *model.Session) error
	GetSession(ctx context.Context, id model.SessionID) (*model.Session, error)
	SessionsForPlayerSince(ctx context.Context, playerID model.PlayerID, since time.Time) ([]*model.Session, error)
	OpenSessions(ctx context.Context) ([]*model.Session, error)

	// Tap event operations
	AppendTapEvent(ctx context.Context, event *model.TapEvent) error
	TapEventsForSession(ctx context.Context, id model.SessionID) ([]model.TapEvent, error)
	TapEventsForPlayerSince(ctx context.Context, playerID model.PlayerID, since time.Time) ([]model.TapEvent, error)
}
