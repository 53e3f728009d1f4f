package task

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/phrazzld/resumeq/internal/queue"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func newTestManager(t *testing.T) *queue.Manager {
	t.Helper()
	m, err := queue.NewManager(queue.NewMemoryStore(), queue.DefaultManagerConfig(), testLogger())
	require.NoError(t, err)
	return m
}

func jobWithPayload(t *testing.T, q queue.Name, payload any) *queue.Job {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return &queue.Job{ID: "job-1", Queue: q, Payload: raw, MaxAttempts: 3}
}
