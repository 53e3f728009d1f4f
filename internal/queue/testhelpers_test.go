package queue

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

func newTestManager(t *testing.T) (*Manager, *MemoryStore, *fakeClock) {
	t.Helper()

	store := NewMemoryStore()
	clock := newFakeClock()
	m, err := NewManager(store, DefaultManagerConfig(), testLogger(), WithClock(clock.Now))
	require.NoError(t, err)
	return m, store, clock
}

type generationPayload struct {
	GenerationID string `json:"generationId"`
	UserID       string `json:"userId"`
	AnalysisID   string `json:"analysisId"`
}
