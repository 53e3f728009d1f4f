package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/resumeq/internal/config"
	"github.com/phrazzld/resumeq/internal/mocks"
	"github.com/phrazzld/resumeq/internal/queue"
	"github.com/phrazzld/resumeq/internal/service/auth"
	"github.com/stretchr/testify/require"
)

const testSecret = "api-test-secret-that-is-long-enough-1234"

type testEnv struct {
	t           *testing.T
	router      http.Handler
	jwt         auth.JWTService
	generations *mocks.GenerationStore
	manager     *queue.Manager
	queueStore  *queue.MemoryStore
}

func newTestEnv(t *testing.T, checks map[string]HealthCheck) *testEnv {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	jwtService, err := auth.NewJWTService(config.AuthConfig{JWTSecret: testSecret})
	require.NoError(t, err)

	qs := queue.NewMemoryStore()
	manager, err := queue.NewManager(qs, queue.DefaultManagerConfig(), log)
	require.NoError(t, err)

	generations := &mocks.GenerationStore{}
	t.Cleanup(func() { generations.AssertExpectations(t) })

	return &testEnv{
		t: t,
		router: NewRouter(RouterConfig{
			Logger:       log,
			JWTService:   jwtService,
			Generations:  generations,
			Queue:        manager,
			HealthChecks: checks,
		}),
		jwt:         jwtService,
		generations: generations,
		manager:     manager,
		queueStore:  qs,
	}
}

func (e *testEnv) token(userID uuid.UUID, role string) string {
	e.t.Helper()
	tok, err := e.jwt.GenerateToken(context.Background(), userID, role)
	require.NoError(e.t, err)
	return tok
}

// do sends a request through the router. An empty token sends no
// Authorization header.
func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()

	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(e.t, err)
		r = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, r)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}
