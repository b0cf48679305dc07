package leaderboard

import (
	"context"
	"sync"

	"github.com/idletap/tapgame-go/internal/model"
)

// ProfileResolver resolves display metadata for a batch of players.
// Page assembly calls it once per page, never per row.
type ProfileResolver interface {
	ResolveProfiles(ctx context.Context, ids []model.PlayerID) (map[model.PlayerID]model.Profile, error)
}

// StaticResolver is an in-process ProfileResolver backed by a map.
// Deployments wire the real profile service behind the interface;
// this one serves tests and standalone runs.
type StaticResolver struct {
	mu       sync.RWMutex
	profiles map[model.PlayerID]model.Profile
}

// NewStaticResolver creates an empty StaticResolver
func NewStaticResolver() *StaticResolver {
	return &StaticResolver{
		profiles: make(map[model.PlayerID]model.Profile),
	}
}

// Ensure StaticResolver implements the interface
var _ ProfileResolver = (*StaticResolver)(nil)

// Put registers or replaces a player's profile
func (r *StaticResolver) Put(id model.PlayerID, profile model.Profile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[id] = profile
}

// ResolveProfiles returns profiles for the ids that have one
func (r *StaticResolver) ResolveProfiles(_ context.Context, ids []model.PlayerID) (map[model.PlayerID]model.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	resolved := make(map[model.PlayerID]model.Profile, len(ids))
	for _, id := range ids {
		if p, ok := r.profiles[id]; ok {
			resolved[id] = p
		}
	}
	return resolved, nil
}
