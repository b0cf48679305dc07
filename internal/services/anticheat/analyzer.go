package anticheat

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/idletap/tapgame-go/internal/dependencies/clock"
	"github.com/idletap/tapgame-go/internal/model"
	"github.com/idletap/tapgame-go/internal/storage"
)

// Config holds the tunable detection thresholds
type Config struct {
	// TapsPerSecondLimit is the rate above which (strictly greater
	// than) a session counts as over limit
	TapsPerSecondLimit float64
}

// DefaultConfig returns the default detection thresholds
func DefaultConfig() Config {
	return Config{
		TapsPerSecondLimit: 20,
	}
}

// Analyzer derives tap-rate statistics from session tap logs. It only
// computes; punitive action (marking sessions suspicious, bans) is the
// caller's policy decision.
type Analyzer struct {
	storage storage.Storage
	clock   clock.Clock
	cfg     Config
	logger  *slog.Logger
}

// New creates a new Analyzer
func New(storage storage.Storage, clk clock.Clock, cfg Config, logger *slog.Logger) *Analyzer {
	if cfg.TapsPerSecondLimit <= 0 {
		cfg = DefaultConfig()
	}
	return &Analyzer{
		storage: storage,
		clock:   clk,
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "anticheat")),
	}
}

// TapIntervalAnalysis returns the inter-arrival time between
// consecutive taps of a session, ordered by tap timestamp. A session
// with n events yields n-1 intervals; the first event has no delta.
func (a *Analyzer) TapIntervalAnalysis(ctx context.Context, sessionID model.SessionID) ([]model.TapInterval, error) {
	events, err := a.storage.TapEventsForSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(events) < 2 {
		return []model.TapInterval{}, nil
	}

	sort.Slice(events, func(i, j int) bool {
		return events[i].TapTimestamp.Before(events[j].TapTimestamp)
	})

	intervals := make([]model.TapInterval, 0, len(events)-1)
	for i := 1; i < len(events); i++ {
		delta := events[i].TapTimestamp.Sub(events[i-1].TapTimestamp)
		intervals = append(intervals, model.TapInterval{
			Event:        events[i],
			Previous:     events[i-1],
			DeltaSeconds: delta.Seconds(),
		})
	}
	return intervals, nil
}

// DetectBotBehavior aggregates tap-rate statistics across all of a
// player's sessions within the window. Empty data yields a zero-valued
// report, never an error.
func (a *Analyzer) DetectBotBehavior(ctx context.Context, playerID model.PlayerID, windowHours int) (*model.BotReport, error) {
	report := &model.BotReport{
		PlayerID:    playerID,
		WindowHours: windowHours,
	}

	since := a.clock.Now().Add(-time.Duration(windowHours) * time.Hour)
	sessions, err := a.storage.SessionsForPlayerSince(ctx, playerID, since)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return report, nil
	}

	now := a.clock.Now()
	var (
		tpsSum        float64
		totalTaps     int64
		totalEarnings int64
	)

	for _, session := range sessions {
		report.SessionsAnalyzed++
		totalTaps += session.TotalTaps
		totalEarnings += session.TotalEarnings

		tps := tapsPerSecond(session, now)
		tpsSum += tps
		if tps > report.MaxTapsPerSecond {
			report.MaxTapsPerSecond = tps
		}
		if tps > a.cfg.TapsPerSecondLimit {
			report.SessionsOverLimit++
			report.FlaggedSessions = append(report.FlaggedSessions, session.ID)
		}

		if session.TotalTaps > 0 {
			events, err := a.storage.TapEventsForSession(ctx, session.ID)
			if err != nil {
				return nil, err
			}
			// Counter says taps happened but the log is empty: the
			// client tampered with one of the two paths
			if len(events) == 0 {
				report.SessionsMissingEvents++
			}
		}
	}

	report.AvgTapsPerSecond = tpsSum / float64(report.SessionsAnalyzed)
	if totalTaps > 0 {
		report.AvgEarningsPerTap = float64(totalEarnings) / float64(totalTaps)
	}

	if report.SessionsOverLimit > 0 || report.SessionsMissingEvents > 0 {
		a.logger.Warn("bot-like behavior detected",
			slog.String("player_id", string(playerID)),
			slog.Int("sessions_over_limit", report.SessionsOverLimit),
			slog.Int("sessions_missing_events", report.SessionsMissingEvents),
			slog.Float64("max_taps_per_second", report.MaxTapsPerSecond),
		)
	}
	return report, nil
}

// tapsPerSecond computes the session tap rate from its counters,
// guarding against zero duration
func tapsPerSecond(session *model.Session, now time.Time) float64 {
	seconds := session.Duration(now).Seconds()
	if seconds <= 0 {
		return 0
	}
	return float64(session.TotalTaps) / seconds
}
