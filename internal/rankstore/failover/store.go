package failover

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/idletap/tapgame-go/internal/dependencies/clock"
	"github.com/idletap/tapgame-go/internal/model"
	"github.com/idletap/tapgame-go/internal/rankstore"
)

// Pinger checks backend reachability for the reconnect probe
type Pinger interface {
	Ping(ctx context.Context) error
}

// Store wraps the Redis-backed rank store with an in-process fallback.
//
// In backend mode every call goes to the primary; a call that fails
// with model.ErrBackendUnavailable is answered from the fallback for
// that call only. The store flips to fallback mode once the failure
// count inside a moving window crosses the threshold, so a single
// timeout never causes flapping. A probe goroutine (started explicitly
// via Start) pings the primary and flips back on success. The mode
// flip is a single locked transition; no lock is held across backend
// I/O.
//
// Writes are mirrored into the fallback in both modes so the fallback
// index has data to serve the moment the backend drops. Divergence
// between the two after an outage is accepted; the fallback is a
// cache, not a system of record.
type Store struct {
	primary  rankstore.Store
	fallback rankstore.Store
	pinger   Pinger
	clock    clock.Clock
	logger   *slog.Logger
	cfg      Config

	mu       sync.Mutex
	degraded bool
	failures []int64 // unix nanos of recent primary failures

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New creates a failover store. Start must be called to run the
// reconnect probe; constructors have no side effects.
func New(primary rankstore.Store, fallback rankstore.Store, pinger Pinger, clk clock.Clock, cfg Config, logger *slog.Logger) *Store {
	return &Store{
		primary:  primary,
		fallback: fallback,
		pinger:   pinger,
		clock:    clk,
		logger:   logger.With(slog.String("component", "rankstore-failover")),
		cfg:      cfg,
		stopCh:   make(chan struct{}),
	}
}

// Ensure Store implements the interface
var _ rankstore.Store = (*Store)(nil)

// Start launches the reconnect probe goroutine
func (s *Store) Start() {
	s.wg.Add(1)
	go s.probeLoop()
}

// Stop shuts down the reconnect probe
func (s *Store) Stop() {
	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}
	s.wg.Wait()
}

func (s *Store) probeLoop() {
	defer s.wg.Done()
	ticker := s.cfg.newTicker()
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			if !s.inFallback() {
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ProbeTimeout)
			err := s.pinger.Ping(ctx)
			cancel()
			if err == nil {
				s.restore()
			}
		}
	}
}

func (s *Store) inFallback() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

// recordFailure notes a primary failure and flips to fallback mode
// once the moving-window count crosses the threshold
func (s *Store) recordFailure() {
	now := s.clock.Now().UnixNano()
	cutoff := now - s.cfg.FailureWindow.Nanoseconds()

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.failures[:0]
	for _, t := range s.failures {
		if t > cutoff {
			kept = append(kept, t)
		}
	}
	s.failures = append(kept, now)

	if !s.degraded && len(s.failures) >= s.cfg.FailureThreshold {
		s.degraded = true
		s.logger.Warn("rank store degraded to in-memory fallback",
			slog.Int("failures", len(s.failures)),
			slog.Duration("window", s.cfg.FailureWindow))
	}
}

// restore flips back to backend mode after a successful probe
func (s *Store) restore() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.degraded {
		s.degraded = false
		s.failures = s.failures[:0]
		s.logger.Info("rank store backend restored")
	}
}

// Degraded reports whether the store is serving from the fallback
func (s *Store) Degraded() bool {
	return s.inFallback()
}

func (s *Store) UpsertScore(ctx context.Context, setName string, playerID model.PlayerID, score int64) error {
	// Mirror unconditionally; the fallback must hold current writes
	_ = s.fallback.UpsertScore(ctx, setName, playerID, score)

	if s.inFallback() {
		return nil
	}
	if err := s.primary.UpsertScore(ctx, setName, playerID, score); err != nil {
		if errors.Is(err, model.ErrBackendUnavailable) {
			s.recordFailure()
			return nil
		}
		return err
	}
	return nil
}

func (s *Store) RankOf(ctx context.Context, setName string, playerID model.PlayerID) (int64, error) {
	if s.inFallback() {
		return s.fallback.RankOf(ctx, setName, playerID)
	}
	rank, err := s.primary.RankOf(ctx, setName, playerID)
	if err != nil && errors.Is(err, model.ErrBackendUnavailable) {
		s.recordFailure()
		return s.fallback.RankOf(ctx, setName, playerID)
	}
	return rank, err
}

func (s *Store) ScoreOf(ctx context.Context, setName string, playerID model.PlayerID) (int64, error) {
	if s.inFallback() {
		return s.fallback.ScoreOf(ctx, setName, playerID)
	}
	score, err := s.primary.ScoreOf(ctx, setName, playerID)
	if err != nil && errors.Is(err, model.ErrBackendUnavailable) {
		s.recordFailure()
		return s.fallback.ScoreOf(ctx, setName, playerID)
	}
	return score, err
}

func (s *Store) Range(ctx context.Context, setName string, start, stop int64, withScores bool) ([]rankstore.Entry, error) {
	if s.inFallback() {
		return s.fallback.Range(ctx, setName, start, stop, withScores)
	}
	entries, err := s.primary.Range(ctx, setName, start, stop, withScores)
	if err != nil && errors.Is(err, model.ErrBackendUnavailable) {
		s.recordFailure()
		return s.fallback.Range(ctx, setName, start, stop, withScores)
	}
	return entries, err
}

func (s *Store) Size(ctx context.Context, setName string) (int64, error) {
	if s.inFallback() {
		return s.fallback.Size(ctx, setName)
	}
	count, err := s.primary.Size(ctx, setName)
	if err != nil && errors.Is(err, model.ErrBackendUnavailable) {
		s.recordFailure()
		return s.fallback.Size(ctx, setName)
	}
	return count, err
}

func (s *Store) Remove(ctx context.Context, setName string, playerID model.PlayerID) (int64, error) {
	removed, _ := s.fallback.Remove(ctx, setName, playerID)

	if s.inFallback() {
		return removed, nil
	}
	n, err := s.primary.Remove(ctx, setName, playerID)
	if err != nil {
		if errors.Is(err, model.ErrBackendUnavailable) {
			s.recordFailure()
			return removed, nil
		}
		return 0, err
	}
	return n, nil
}

func (s *Store) RemoveSet(ctx context.Context, setName string) error {
	_ = s.fallback.RemoveSet(ctx, setName)

	if s.inFallback() {
		return nil
	}
	if err := s.primary.RemoveSet(ctx, setName); err != nil {
		if errors.Is(err, model.ErrBackendUnavailable) {
			s.recordFailure()
			return nil
		}
		return err
	}
	return nil
}

func (s *Store) AroundRank(ctx context.Context, setName string, playerID model.PlayerID, radius int64) ([]rankstore.Entry, error) {
	if s.inFallback() {
		return s.fallback.AroundRank(ctx, setName, playerID, radius)
	}
	entries, err := s.primary.AroundRank(ctx, setName, playerID, radius)
	if err != nil && errors.Is(err, model.ErrBackendUnavailable) {
		s.recordFailure()
		return s.fallback.AroundRank(ctx, setName, playerID, radius)
	}
	return entries, err
}
