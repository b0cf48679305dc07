// Package scheduler owns the timed maintenance of the engine: daily
// and weekly leaderboard rollover and the idle-session sweep. It is
// started and stopped explicitly by the composition root; constructing
// it has no side effects, so services stay instantiable in tests.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/idletap/tapgame-go/internal/dependencies/clock"
	"github.com/idletap/tapgame-go/internal/model"
)

// Resetter clears one leaderboard; satisfied by the leaderboard service
type Resetter interface {
	ResetLeaderboard(ctx context.Context, name model.LeaderboardName) error
}

// Sweeper closes idle sessions; satisfied by the session tracker
type Sweeper interface {
	CloseIdleSessions(ctx context.Context, idleFor time.Duration) (int, error)
}

// Config holds scheduler cadences
type Config struct {
	// SweepInterval is how often idle sessions are swept
	SweepInterval time.Duration

	// SessionIdleTimeout is the inactivity threshold for the sweep
	SessionIdleTimeout time.Duration
}

// DefaultConfig returns sensible scheduler defaults
func DefaultConfig() Config {
	return Config{
		SweepInterval:      time.Minute,
		SessionIdleTimeout: 30 * time.Minute,
	}
}

// Scheduler drives rollover resets and idle-session sweeps
type Scheduler struct {
	resetter Resetter
	sweeper  Sweeper
	clock    clock.Clock
	cfg      Config
	logger   *slog.Logger

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New creates a Scheduler; call Start to begin running
func New(resetter Resetter, sweeper Sweeper, clk clock.Clock, cfg Config, logger *slog.Logger) *Scheduler {
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultConfig().SweepInterval
	}
	if cfg.SessionIdleTimeout <= 0 {
		cfg.SessionIdleTimeout = DefaultConfig().SessionIdleTimeout
	}
	return &Scheduler{
		resetter: resetter,
		sweeper:  sweeper,
		clock:    clk,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "scheduler")),
		stopCh:   make(chan struct{}),
	}
}

// Start launches the rollover and sweep loops
func (s *Scheduler) Start() {
	s.wg.Add(3)
	go s.rolloverLoop(model.LeaderboardDaily, nextDailyReset)
	go s.rolloverLoop(model.LeaderboardWeekly, nextWeeklyReset)
	go s.sweepLoop()
	s.logger.Info("scheduler started")
}

// Stop shuts down all loops and waits for them to exit
func (s *Scheduler) Stop() {
	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

// rolloverLoop sleeps until each reset boundary and fires the reset
func (s *Scheduler) rolloverLoop(name model.LeaderboardName, next func(time.Time) time.Time) {
	defer s.wg.Done()
	for {
		wait := next(s.clock.Now()).Sub(s.clock.Now())
		timer := time.NewTimer(wait)
		select {
		case <-s.stopCh:
			timer.Stop()
			return
		case <-timer.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			err := s.resetter.ResetLeaderboard(ctx, name)
			cancel()
			if err != nil {
				s.logger.Error("scheduled reset failed",
					slog.String("leaderboard", string(name)),
					slog.String("error", err.Error()),
				)
			} else {
				s.logger.Info("scheduled reset complete",
					slog.String("leaderboard", string(name)))
			}
		}
	}
}

// sweepLoop periodically closes idle sessions
func (s *Scheduler) sweepLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			_, err := s.sweeper.CloseIdleSessions(ctx, s.cfg.SessionIdleTimeout)
			cancel()
			if err != nil {
				s.logger.Error("idle session sweep failed",
					slog.String("error", err.Error()))
			}
		}
	}
}

// nextDailyReset returns the next UTC midnight after now
func nextDailyReset(now time.Time) time.Time {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	return next
}

// nextWeeklyReset returns the next Monday UTC midnight after now
func nextWeeklyReset(now time.Time) time.Time {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	for {
		next = next.AddDate(0, 0, 1)
		if next.Weekday() == time.Monday {
			return next
		}
	}
}
