package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/idletap/tapgame-go/internal/model"
	"github.com/idletap/tapgame-go/internal/rankstore"
)

// Store is a Redis ZSET-backed implementation of the rank store.
// Every call carries a bounded timeout; failures to reach Redis are
// reported as model.ErrBackendUnavailable so callers can degrade.
type Store struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis rank store and verifies the connection
func New(cfg Config) (*Store, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.OpTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Store{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis rank store with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Store {
	return &Store{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

// Ping checks backend reachability; used by the failover reconnect probe
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()
	if err := s.client.Ping(ctx).Err(); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

// Ensure Store implements the interface
var _ rankstore.Store = (*Store)(nil)

// opContext bounds a backend call with the configured timeout
func (s *Store) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.cfg.OpTimeout)
}

// unavailable wraps a backend failure so errors.Is can match it
func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", model.ErrBackendUnavailable, op, err)
}

func (s *Store) UpsertScore(ctx context.Context, setName string, playerID model.PlayerID, score int64) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	err := s.client.ZAdd(ctx, setName, redis.Z{
		Score:  float64(score),
		Member: string(playerID),
	}).Err()
	if err != nil {
		return unavailable("zadd", err)
	}
	return nil
}

func (s *Store) RankOf(ctx context.Context, setName string, playerID model.PlayerID) (int64, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	rank, err := s.client.ZRevRank(ctx, setName, string(playerID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, model.ErrPlayerNotRanked
		}
		return 0, unavailable("zrevrank", err)
	}
	return rank, nil
}

func (s *Store) ScoreOf(ctx context.Context, setName string, playerID model.PlayerID) (int64, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	score, err := s.client.ZScore(ctx, setName, string(playerID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, model.ErrPlayerNotRanked
		}
		return 0, unavailable("zscore", err)
	}
	return int64(score), nil
}

func (s *Store) Range(ctx context.Context, setName string, start, stop int64, withScores bool) ([]rankstore.Entry, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	if withScores {
		zs, err := s.client.ZRevRangeWithScores(ctx, setName, start, stop).Result()
		if err != nil {
			return nil, unavailable("zrevrange", err)
		}
		entries := make([]rankstore.Entry, 0, len(zs))
		for _, z := range zs {
			member, ok := z.Member.(string)
			if !ok {
				continue
			}
			entries = append(entries, rankstore.Entry{
				PlayerID: model.PlayerID(member),
				Score:    int64(z.Score),
			})
		}
		return entries, nil
	}

	members, err := s.client.ZRevRange(ctx, setName, start, stop).Result()
	if err != nil {
		return nil, unavailable("zrevrange", err)
	}
	entries := make([]rankstore.Entry, 0, len(members))
	for _, m := range members {
		entries = append(entries, rankstore.Entry{PlayerID: model.PlayerID(m)})
	}
	return entries, nil
}

func (s *Store) Size(ctx context.Context, setName string) (int64, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	count, err := s.client.ZCard(ctx, setName).Result()
	if err != nil {
		return 0, unavailable("zcard", err)
	}
	return count, nil
}

func (s *Store) Remove(ctx context.Context, setName string, playerID model.PlayerID) (int64, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	removed, err := s.client.ZRem(ctx, setName, string(playerID)).Result()
	if err != nil {
		return 0, unavailable("zrem", err)
	}
	return removed, nil
}

func (s *Store) RemoveSet(ctx context.Context, setName string) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	if err := s.client.Del(ctx, setName).Err(); err != nil {
		return unavailable("del", err)
	}
	return nil
}

func (s *Store) AroundRank(ctx context.Context, setName string, playerID model.PlayerID, radius int64) ([]rankstore.Entry, error) {
	rank, err := s.RankOf(ctx, setName, playerID)
	if err != nil {
		if errors.Is(err, model.ErrPlayerNotRanked) {
			return []rankstore.Entry{}, nil
		}
		return nil, err
	}

	start := rank - radius
	if start < 0 {
		start = 0
	}
	// Redis clamps the upper bound to the set size itself
	return s.Range(ctx, setName, start, rank+radius, true)
}
