package memory

import (
	"context"
	"sync"

	"github.com/idletap/tapgame-go/internal/model"
	"github.com/idletap/tapgame-go/internal/rankstore"
)

// Store is an in-process implementation of the rank store, used both
// standalone (tests, single-node deployments) and as the fallback
// index when the Redis backend is unreachable.
//
// State lives for the process lifetime only; rankings computed from it
// are a cache, not a system of record. Safe for concurrent use:
// reads share the lock, writes are exclusive, and no operation blocks
// on anything but the lock itself.
type Store struct {
	mu   sync.RWMutex
	sets map[string]*set
}

// set is one rank-ordered index: the treap plus a player -> score
// side map for O(1) membership and score lookups
type set struct {
	root *node
	byID map[string]int64
}

// New creates an empty in-memory rank store
func New() *Store {
	return &Store{
		sets: make(map[string]*set),
	}
}

// Ensure Store implements the interface
var _ rankstore.Store = (*Store)(nil)

func (s *Store) getSet(name string) *set {
	if st, ok := s.sets[name]; ok {
		return st
	}
	st := &set{byID: make(map[string]int64)}
	s.sets[name] = st
	return st
}

func (s *Store) UpsertScore(_ context.Context, setName string, playerID model.PlayerID, score int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.getSet(setName)
	id := string(playerID)
	if old, ok := st.byID[id]; ok {
		if old == score {
			return nil
		}
		st.root = remove(st.root, id, old)
	}
	st.byID[id] = score
	st.root = insert(st.root, id, score)
	return nil
}

func (s *Store) RankOf(_ context.Context, setName string, playerID model.PlayerID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.sets[setName]
	if !ok {
		return 0, model.ErrPlayerNotRanked
	}
	score, ok := st.byID[string(playerID)]
	if !ok {
		return 0, model.ErrPlayerNotRanked
	}
	rank := rankOf(st.root, string(playerID), score)
	if rank < 0 {
		return 0, model.ErrPlayerNotRanked
	}
	return rank, nil
}

func (s *Store) ScoreOf(_ context.Context, setName string, playerID model.PlayerID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.sets[setName]
	if !ok {
		return 0, model.ErrPlayerNotRanked
	}
	score, ok := st.byID[string(playerID)]
	if !ok {
		return 0, model.ErrPlayerNotRanked
	}
	return score, nil
}

func (s *Store) Range(_ context.Context, setName string, start, stop int64, withScores bool) ([]rankstore.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.sets[setName]
	if !ok {
		return []rankstore.Entry{}, nil
	}

	total := nsize(st.root)
	if stop == -1 || stop > total-1 {
		stop = total - 1
	}
	if start < 0 {
		start = 0
	}
	if start > stop {
		return []rankstore.Entry{}, nil
	}

	entries := make([]rankstore.Entry, 0, stop-start+1)
	collectRange(st.root, 0, start, stop, &entries)
	if !withScores {
		for i := range entries {
			entries[i].Score = 0
		}
	}
	return entries, nil
}

func (s *Store) Size(_ context.Context, setName string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.sets[setName]
	if !ok {
		return 0, nil
	}
	return nsize(st.root), nil
}

func (s *Store) Remove(_ context.Context, setName string, playerID model.PlayerID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sets[setName]
	if !ok {
		return 0, nil
	}
	id := string(playerID)
	score, ok := st.byID[id]
	if !ok {
		return 0, nil
	}
	st.root = remove(st.root, id, score)
	delete(st.byID, id)
	return 1, nil
}

func (s *Store) RemoveSet(_ context.Context, setName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sets, setName)
	return nil
}

func (s *Store) AroundRank(ctx context.Context, setName string, playerID model.PlayerID, radius int64) ([]rankstore.Entry, error) {
	s.mu.RLock()
	st, ok := s.sets[setName]
	if !ok {
		s.mu.RUnlock()
		return []rankstore.Entry{}, nil
	}
	score, found := st.byID[string(playerID)]
	var rank int64 = -1
	if found {
		rank = rankOf(st.root, string(playerID), score)
	}
	s.mu.RUnlock()

	if rank < 0 {
		return []rankstore.Entry{}, nil
	}
	start := rank - radius
	if start < 0 {
		start = 0
	}
	return s.Range(ctx, setName, start, rank+radius, true)
}
