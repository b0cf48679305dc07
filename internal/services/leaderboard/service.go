package leaderboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/idletap/tapgame-go/internal/cache"
	"github.com/idletap/tapgame-go/internal/dependencies/clock"
	"github.com/idletap/tapgame-go/internal/model"
	"github.com/idletap/tapgame-go/internal/rankstore"
)

// Broadcaster receives rank-change and reset notifications for fan-out
// to connected clients
type Broadcaster interface {
	BroadcastRankUpdate(update *model.RankUpdate)
	BroadcastReset(name model.LeaderboardName, at time.Time)
}

// Config holds leaderboard service tuning
type Config struct {
	// PageTTL is how long cached pages stay fresh
	PageTTL time.Duration

	// MaxPageSize caps GetPage limits
	MaxPageSize int64
}

// DefaultConfig returns sensible defaults for the service
func DefaultConfig() Config {
	return Config{
		PageTTL:     30 * time.Second,
		MaxPageSize: 100,
	}
}

// Service orchestrates the rank store across the three fixed
// leaderboards, adding read-through page caching, pagination,
// around-me windows, and change broadcasts.
type Service struct {
	ranks       rankstore.Store
	cache       cache.Cache
	profiles    ProfileResolver
	broadcaster Broadcaster
	clock       clock.Clock
	cfg         Config
	logger      *slog.Logger
}

// New creates a new leaderboard Service
func New(
	ranks rankstore.Store,
	pageCache cache.Cache,
	profiles ProfileResolver,
	broadcaster Broadcaster,
	clk clock.Clock,
	cfg Config,
	logger *slog.Logger,
) *Service {
	if cfg.PageTTL <= 0 {
		cfg.PageTTL = DefaultConfig().PageTTL
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = DefaultConfig().MaxPageSize
	}
	return &Service{
		ranks:       ranks,
		cache:       pageCache,
		profiles:    profiles,
		broadcaster: broadcaster,
		clock:       clk,
		cfg:         cfg,
		logger:      logger.With(slog.String("component", "leaderboard")),
	}
}

// pageKey builds the cache key for one paginated view
func pageKey(name model.LeaderboardName, limit, offset int64) string {
	return fmt.Sprintf("cache:leaderboard:%s:%d:%d", name, limit, offset)
}

// cachePrefix covers every cached page of one leaderboard
func cachePrefix(name model.LeaderboardName) string {
	return fmt.Sprintf("cache:leaderboard:%s:", name)
}

// UpdateScore writes the player's score to all three leaderboards in
// sequence, invalidates cached pages, and returns the new 1-based
// ranks. A partial backend failure leaves at most one board stale and
// self-heals on the next update. Returns nil when no board could rank
// the player.
func (s *Service) UpdateScore(ctx context.Context, playerID model.PlayerID, score int64) (*model.RankUpdate, error) {
	if score < 0 {
		return nil, fmt.Errorf("%w: score must be non-negative", model.ErrInvalidLeaderboard)
	}

	update := &model.RankUpdate{
		PlayerID:  playerID,
		Score:     score,
		Timestamp: s.clock.Now(),
	}

	for _, name := range model.AllLeaderboards() {
		result := s.updateOne(ctx, name, playerID, score)
		switch name {
		case model.LeaderboardAllTime:
			update.AllTime = result
		case model.LeaderboardWeekly:
			update.Weekly = result
		case model.LeaderboardDaily:
			update.Daily = result
		}
	}

	if !update.Ranked() {
		return nil, nil
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastRankUpdate(update)
	}
	return update, nil
}

// updateOne upserts into a single board and computes the 1-based rank
func (s *Service) updateOne(ctx context.Context, name model.LeaderboardName, playerID model.PlayerID, score int64) model.RankResult {
	setName := rankstore.SetKey(name)

	if err := s.ranks.UpsertScore(ctx, setName, playerID, score); err != nil {
		s.logger.Warn("score upsert failed",
			slog.String("leaderboard", string(name)),
			slog.String("player_id", string(playerID)),
			slog.String("error", err.Error()),
		)
		return model.UnavailableRank()
	}

	s.invalidatePages(ctx, name)

	rank, err := s.ranks.RankOf(ctx, setName, playerID)
	if err != nil {
		if errors.Is(err, model.ErrPlayerNotRanked) {
			return model.NoRank()
		}
		s.logger.Warn("rank lookup failed",
			slog.String("leaderboard", string(name)),
			slog.String("player_id", string(playerID)),
			slog.String("error", err.Error()),
		)
		return model.UnavailableRank()
	}
	return model.FoundRank(rank + 1)
}

// invalidatePages drops every cached page of a board. Cache errors are
// logged, never propagated.
func (s *Service) invalidatePages(ctx context.Context, name model.LeaderboardName) {
	if err := s.cache.DeletePrefix(ctx, cachePrefix(name)); err != nil {
		s.logger.Warn("page cache invalidation failed",
			slog.String("leaderboard", string(name)),
			slog.String("error", err.Error()),
		)
	}
}

// GetPage returns one paginated leaderboard view, served from the page
// cache when fresh. Reads degrade to an empty page rather than fail.
func (s *Service) GetPage(ctx context.Context, name model.LeaderboardName, limit, offset int64) (*model.LeaderboardPage, error) {
	if !name.Valid() {
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidLeaderboard, name)
	}
	if limit < 1 {
		limit = 1
	}
	if limit > s.cfg.MaxPageSize {
		limit = s.cfg.MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	key := pageKey(name, limit, offset)
	if data, err := s.cache.Get(ctx, key); err == nil {
		var page model.LeaderboardPage
		if err := json.Unmarshal(data, &page); err == nil {
			return &page, nil
		}
	} else if !errors.Is(err, cache.ErrMiss) {
		// A broken cache is a miss, not a failed read
		s.logger.Warn("page cache read failed", slog.String("error", err.Error()))
	}

	page := s.buildPage(ctx, name, limit, offset)

	if data, err := json.Marshal(page); err == nil {
		if err := s.cache.Set(ctx, key, data, s.cfg.PageTTL); err != nil {
			s.logger.Warn("page cache write failed", slog.String("error", err.Error()))
		}
	}
	return page, nil
}

// buildPage assembles a page from the rank store and profile resolver
func (s *Service) buildPage(ctx context.Context, name model.LeaderboardName, limit, offset int64) *model.LeaderboardPage {
	setName := rankstore.SetKey(name)
	page := &model.LeaderboardPage{
		Leaderboard: name,
		Entries:     []model.LeaderboardEntry{},
		Pagination:  model.Pagination{Limit: limit, Offset: offset},
		LastUpdated: s.clock.Now(),
	}

	total, err := s.ranks.Size(ctx, setName)
	if err != nil {
		s.logger.Warn("leaderboard size unavailable",
			slog.String("leaderboard", string(name)),
			slog.String("error", err.Error()),
		)
		return page
	}
	page.Pagination.Total = total
	page.Pagination.HasMore = offset+limit < total

	entries, err := s.ranks.Range(ctx, setName, offset, offset+limit-1, true)
	if err != nil {
		s.logger.Warn("leaderboard range unavailable",
			slog.String("leaderboard", string(name)),
			slog.String("error", err.Error()),
		)
		return page
	}

	page.Entries = s.decorate(ctx, entries, offset)
	return page
}

// decorate converts store entries to page rows with ranks and batch
// resolved profile metadata. Resolver failure degrades to bare rows.
func (s *Service) decorate(ctx context.Context, entries []rankstore.Entry, firstRank int64) []model.LeaderboardEntry {
	rows := make([]model.LeaderboardEntry, len(entries))
	ids := make([]model.PlayerID, len(entries))
	for i, e := range entries {
		ids[i] = e.PlayerID
		rows[i] = model.LeaderboardEntry{
			Rank:     firstRank + int64(i) + 1,
			PlayerID: e.PlayerID,
			Score:    e.Score,
		}
	}

	if s.profiles == nil || len(ids) == 0 {
		return rows
	}
	profiles, err := s.profiles.ResolveProfiles(ctx, ids)
	if err != nil {
		s.logger.Warn("profile resolution failed", slog.String("error", err.Error()))
		return rows
	}
	for i := range rows {
		if p, ok := profiles[rows[i].PlayerID]; ok {
			rows[i].DisplayName = p.DisplayName
			rows[i].LastActive = p.LastActiveAt
		}
	}
	return rows
}

// GetPlayerContext returns the player's rank, score, and neighbors on
// one leaderboard. An unranked player yields nil rank/score and an
// empty neighbor list, never an error.
func (s *Service) GetPlayerContext(ctx context.Context, playerID model.PlayerID, name model.LeaderboardName, radius int64) (*model.PlayerContext, error) {
	if !name.Valid() {
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidLeaderboard, name)
	}
	if radius < 0 {
		radius = 0
	}

	setName := rankstore.SetKey(name)
	pc := &model.PlayerContext{
		Leaderboard:   name,
		NearbyPlayers: []model.LeaderboardEntry{},
	}

	if total, err := s.ranks.Size(ctx, setName); err == nil {
		pc.TotalPlayers = total
	}

	rank, err := s.ranks.RankOf(ctx, setName, playerID)
	if err != nil {
		if errors.Is(err, model.ErrPlayerNotRanked) {
			return pc, nil
		}
		s.logger.Warn("player context rank unavailable",
			slog.String("leaderboard", string(name)),
			slog.String("player_id", string(playerID)),
			slog.String("error", err.Error()),
		)
		return pc, nil
	}

	userRank := rank + 1
	pc.UserRank = &userRank
	if score, err := s.ranks.ScoreOf(ctx, setName, playerID); err == nil {
		pc.UserScore = &score
	}

	entries, err := s.ranks.AroundRank(ctx, setName, playerID, radius)
	if err != nil {
		s.logger.Warn("around-rank window unavailable",
			slog.String("leaderboard", string(name)),
			slog.String("error", err.Error()),
		)
		return pc, nil
	}

	windowStart := rank - radius
	if windowStart < 0 {
		windowStart = 0
	}
	pc.NearbyPlayers = s.decorate(ctx, entries, windowStart)
	return pc, nil
}

// ResetLeaderboard clears one board's backing set, drops its cache
// namespace, and broadcasts a reset event. Used for weekly/daily
// rollover; the cadence is the scheduler's responsibility.
func (s *Service) ResetLeaderboard(ctx context.Context, name model.LeaderboardName) error {
	if !name.Valid() {
		return fmt.Errorf("%w: %q", model.ErrInvalidLeaderboard, name)
	}

	if err := s.ranks.RemoveSet(ctx, rankstore.SetKey(name)); err != nil {
		return err
	}
	s.invalidatePages(ctx, name)

	at := s.clock.Now()
	if s.broadcaster != nil {
		s.broadcaster.BroadcastReset(name, at)
	}

	s.logger.Info("leaderboard reset", slog.String("leaderboard", string(name)))
	return nil
}

// RemovePlayer purges a player from all three leaderboards; idempotent
func (s *Service) RemovePlayer(ctx context.Context, playerID model.PlayerID) error {
	for _, name := range model.AllLeaderboards() {
		if _, err := s.ranks.Remove(ctx, rankstore.SetKey(name), playerID); err != nil {
			s.logger.Warn("player removal failed",
				slog.String("leaderboard", string(name)),
				slog.String("player_id", string(playerID)),
				slog.String("error", err.Error()),
			)
			continue
		}
		s.invalidatePages(ctx, name)
	}
	return nil
}
