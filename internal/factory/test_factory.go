package factory

import (
	"io"
	"log/slog"
	"time"

	cachememory "github.com/mcarden/authgate/internal/cache/memory"
	"github.com/mcarden/authgate/internal/dependencies/mocks"
	"github.com/mcarden/authgate/internal/services/identity"
	"github.com/mcarden/authgate/internal/storage/memory"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	localCache := cachememory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	app := newWithDependencies(store, localCache, mockClock, mockRandom, identity.DefaultConfig(), logger)

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}
