package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/idletap/tapgame-go/internal/model"
	"github.com/idletap/tapgame-go/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Session operations

func (s *Storage) SaveSession(ctx context.Context, session *model.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	key := sessionKey(session.ID)

	// Use pipeline for atomic save + index updates
	pipe := s.client.Pipeline()
	if session.Closed() {
		pipe.Set(ctx, key, data, s.cfg.SessionTTL)
		pipe.SRem(ctx, openSessionsKey(), string(session.ID))
	} else {
		pipe.Set(ctx, key, data, 0)
		pipe.SAdd(ctx, openSessionsKey(), string(session.ID))
	}
	pipe.ZAdd(ctx, playerSessionsKey(session.PlayerID), redis.Z{
		Score:  float64(session.StartedAt.UnixNano()),
		Member: string(session.ID),
	})
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetSession(ctx context.Context, id model.SessionID) (*model.Session, error) {
	data, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrSessionNotFound
		}
		return nil, err
	}

	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *Storage) SessionsForPlayerSince(ctx context.Context, playerID model.PlayerID, since time.Time) ([]*model.Session, error) {
	ids, err := s.client.ZRangeByScore(ctx, playerSessionsKey(playerID), &redis.ZRangeBy{
		Min: strconv.FormatInt(since.UnixNano(), 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*model.Session{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = sessionKey(model.SessionID(id))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	sessions := make([]*model.Session, 0, len(values))
	for _, val := range values {
		if val == nil {
			continue // Session may have expired
		}
		var session model.Session
		if err := json.Unmarshal([]byte(val.(string)), &session); err != nil {
			continue // Skip invalid data
		}
		sessions = append(sessions, &session)
	}

	return sessions, nil
}

func (s *Storage) OpenSessions(ctx context.Context) ([]*model.Session, error) {
	ids, err := s.client.SMembers(ctx, openSessionsKey()).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*model.Session{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = sessionKey(model.SessionID(id))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	sessions := make([]*model.Session, 0, len(values))
	for i, val := range values {
		if val == nil {
			// Record expired but index entry survived; drop it
			s.client.SRem(ctx, openSessionsKey(), ids[i])
			continue
		}
		var session model.Session
		if err := json.Unmarshal([]byte(val.(string)), &session); err != nil {
			continue
		}
		if session.Closed() {
			continue
		}
		sessions = append(sessions, &session)
	}

	return sessions, nil
}

// Tap event operations

func (s *Storage) AppendTapEvent(ctx context.Context, event *model.TapEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	tapsKey := sessionTapsKey(event.SessionID)
	idxKey := playerTapsKey(event.PlayerID)

	pipe := s.client.Pipeline()
	pipe.RPush(ctx, tapsKey, data)
	pipe.Expire(ctx, tapsKey, s.cfg.SessionTTL)
	pipe.ZAdd(ctx, idxKey, redis.Z{
		Score:  float64(event.TapTimestamp.UnixNano()),
		Member: string(data),
	})
	// Trim the per-player index to its retention window
	cutoff := event.TapTimestamp.Add(-s.cfg.TapIndexRetention).UnixNano()
	pipe.ZRemRangeByScore(ctx, idxKey, "-inf", strconv.FormatInt(cutoff, 10))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) TapEventsForSession(ctx context.Context, id model.SessionID) ([]model.TapEvent, error) {
	values, err := s.client.LRange(ctx, sessionTapsKey(id), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	events := make([]model.TapEvent, 0, len(values))
	for _, val := range values {
		var event model.TapEvent
		if err := json.Unmarshal([]byte(val), &event); err != nil {
			continue // Skip invalid data
		}
		events = append(events, event)
	}
	return events, nil
}

func (s *Storage) TapEventsForPlayerSince(ctx context.Context, playerID model.PlayerID, since time.Time) ([]model.TapEvent, error) {
	values, err := s.client.ZRangeByScore(ctx, playerTapsKey(playerID), &redis.ZRangeBy{
		Min: strconv.FormatInt(since.UnixNano(), 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, err
	}

	events := make([]model.TapEvent, 0, len(values))
	for _, val := range values {
		var event model.TapEvent
		if err := json.Unmarshal([]byte(val), &event); err != nil {
			continue
		}
		events = append(events, event)
	}
	return events, nil
}
