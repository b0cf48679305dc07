package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/idletap/tapgame-go/internal/model"
	"github.com/idletap/tapgame-go/internal/storage"
)

// Storage is an in-memory implementation of the storage interface,
// used in tests and single-node deployments
type Storage struct {
	mu       sync.RWMutex
	sessions map[model.SessionID]*model.Session
	taps     map[model.SessionID][]model.TapEvent
	byPlayer map[model.PlayerID][]model.SessionID
}

// New creates an empty in-memory storage
func New() *Storage {
	return &Storage{
		sessions: make(map[model.SessionID]*model.Session),
		taps:     make(map[model.SessionID][]model.TapEvent),
		byPlayer: make(map[model.PlayerID][]model.SessionID),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) SaveSession(_ context.Context, session *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *session
	if _, exists := s.sessions[session.ID]; !exists {
		s.byPlayer[session.PlayerID] = append(s.byPlayer[session.PlayerID], session.ID)
	}
	s.sessions[session.ID] = &copied
	return nil
}

func (s *Storage) GetSession(_ context.Context, id model.SessionID) (*model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	copied := *session
	return &copied, nil
}

func (s *Storage) SessionsForPlayerSince(_ context.Context, playerID model.PlayerID, since time.Time) ([]*model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]*model.Session, 0)
	for _, id := range s.byPlayer[playerID] {
		session, ok := s.sessions[id]
		if !ok || session.StartedAt.Before(since) {
			continue
		}
		copied := *session
		sessions = append(sessions, &copied)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].StartedAt.Before(sessions[j].StartedAt)
	})
	return sessions, nil
}

func (s *Storage) OpenSessions(_ context.Context) ([]*model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]*model.Session, 0)
	for _, session := range s.sessions {
		if session.Closed() {
			continue
		}
		copied := *session
		sessions = append(sessions, &copied)
	}
	return sessions, nil
}

func (s *Storage) AppendTapEvent(_ context.Context, event *model.TapEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.taps[event.SessionID] = append(s.taps[event.SessionID], *event)
	return nil
}

func (s *Storage) TapEventsForSession(_ context.Context, id model.SessionID) ([]model.TapEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]model.TapEvent, len(s.taps[id]))
	copy(events, s.taps[id])
	return events, nil
}

func (s *Storage) TapEventsForPlayerSince(_ context.Context, playerID model.PlayerID, since time.Time) ([]model.TapEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]model.TapEvent, 0)
	for _, id := range s.byPlayer[playerID] {
		for _, event := range s.taps[id] {
			if event.TapTimestamp.Before(since) {
				continue
			}
			events = append(events, event)
		}
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].TapTimestamp.Before(events[j].TapTimestamp)
	})
	return events, nil
}
