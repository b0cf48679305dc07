package factory

import (
	"time"

	"github.com/idletap/tapgame-go/internal/cache"
	"github.com/idletap/tapgame-go/internal/dependencies/mocks"
	"github.com/idletap/tapgame-go/internal/model"
	rankmemory "github.com/idletap/tapgame-go/internal/rankstore/memory"
	storagememory "github.com/idletap/tapgame-go/internal/storage/memory"
	"github.com/idletap/tapgame-go/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// MockClock for deterministic time control
	MockClock *mocks.MockClock
}

// NewTestApp creates an App configured for testing with in-memory
// stores and a mocked clock
func NewTestApp() *TestApp {
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))

	app := newWithDependencies(
		rankmemory.New(), nil,
		cache.NewMemory(mockClock),
		storagememory.New(),
		mockClock,
		Config{},
		testutil.NopLogger(),
	)

	return &TestApp{
		App:       app,
		MockClock: mockClock,
	}
}

// SeedProfiles registers display profiles for the given player ids,
// deriving a name from each id
func (t *TestApp) SeedProfiles(ids ...model.PlayerID) {
	for _, id := range ids {
		t.ProfileResolver.Put(id, model.Profile{
			DisplayName: "Player " + string(id),
		})
	}
}
