package gemini

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/resumeq/internal/config"
	"github.com/phrazzld/resumeq/internal/generation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

var rewrittenResume = strings.Repeat("Platform engineer who cut deploy time by 40%. ", 4)

// fakeModels replays a scripted sequence of responses.
type fakeModels struct {
	mu        sync.Mutex
	responses []*genai.GenerateContentResponse
	errs      []error
	calls     int
	lastModel string
	lastText  string
}

func (f *fakeModels) GenerateContent(
	ctx context.Context,
	model string,
	contents []*genai.Content,
	cfg *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.calls
	f.calls++
	f.lastModel = model
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.lastText = contents[0].Parts[0].Text
	}

	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	var resp *genai.GenerateContentResponse
	if i < len(f.responses) {
		resp = f.responses[i]
	}
	return resp, err
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content:      &genai.Content{Role: "model", Parts: []*genai.Part{{Text: text}}},
			FinishReason: genai.FinishReasonStop,
		}},
	}
}

func testConfig() config.LLMConfig {
	return config.LLMConfig{
		GeminiAPIKey:      "test-key",
		ModelName:         "gemini-2.0-flash",
		MaxRetries:        2,
		RetryDelaySeconds: 1,
	}
}

func newTestRewriter(t *testing.T, models contentGenerator) *Rewriter {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r, err := newRewriter(logger, models, testConfig(), WithRetryDelay(time.Millisecond))
	require.NoError(t, err)
	return r
}

var request = generation.Request{
	OriginalText:   "Jane Doe, engineer",
	JobDescription: "Platform role",
}

func TestRewriter_Success(t *testing.T) {
	t.Parallel()

	models := &fakeModels{
		responses: []*genai.GenerateContentResponse{textResponse("```\n" + rewrittenResume + "\n```")},
	}
	r := newTestRewriter(t, models)

	res, err := r.Rewrite(context.Background(), request)
	require.NoError(t, err)
	assert.Equal(t, strings.TrimSpace(rewrittenResume), res.Text)
	assert.Equal(t, "gemini-2.0-flash", res.Model)
	assert.Equal(t, "gemini-2.0-flash", models.lastModel)
	assert.Contains(t, models.lastText, "Jane Doe, engineer")
	assert.Equal(t, 1, models.calls)
}

func TestRewriter_RetriesTransientErrors(t *testing.T) {
	t.Parallel()

	models := &fakeModels{
		errs: []error{
			genai.APIError{Code: 429, Message: "rate limited"},
			errors.New("connection reset"),
			nil,
		},
		responses: []*genai.GenerateContentResponse{nil, nil, textResponse(rewrittenResume)},
	}
	r := newTestRewriter(t, models)

	res, err := r.Rewrite(context.Background(), request)
	require.NoError(t, err)
	assert.NotEmpty(t, res.Text)
	assert.Equal(t, 3, models.calls)
}

func TestRewriter_GivesUpAfterMaxRetries(t *testing.T) {
	t.Parallel()

	unavailable := genai.APIError{Code: 503, Message: "overloaded"}
	models := &fakeModels{errs: []error{unavailable, unavailable, unavailable, unavailable}}
	r := newTestRewriter(t, models)

	_, err := r.Rewrite(context.Background(), request)
	assert.ErrorIs(t, err, generation.ErrTransientFailure)
	assert.Equal(t, 3, models.calls)
}

func TestRewriter_PermanentErrors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		resp    *genai.GenerateContentResponse
		err     error
		wantErr error
	}{
		{
			name: "safety block",
			resp: &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}},
			},
			wantErr: generation.ErrContentBlocked,
		},
		{
			name:    "no candidates",
			resp:    &genai.GenerateContentResponse{},
			wantErr: generation.ErrInvalidResponse,
		},
		{
			name:    "response too short",
			resp:    textResponse("Jane Doe"),
			wantErr: generation.ErrInvalidResponse,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			models := &fakeModels{
				responses: []*genai.GenerateContentResponse{tc.resp},
				errs:      []error{tc.err},
			}
			r := newTestRewriter(t, models)

			_, err := r.Rewrite(context.Background(), request)
			assert.ErrorIs(t, err, tc.wantErr)
			assert.Equal(t, 1, models.calls)
		})
	}

	t.Run("bad request is not retried", func(t *testing.T) {
		t.Parallel()
		models := &fakeModels{errs: []error{genai.APIError{Code: 400, Message: "bad request"}}}
		r := newTestRewriter(t, models)

		_, err := r.Rewrite(context.Background(), request)
		require.Error(t, err)
		assert.NotErrorIs(t, err, generation.ErrTransientFailure)
		assert.Equal(t, 1, models.calls)
	})
}

func TestRewriter_EmptyResume(t *testing.T) {
	t.Parallel()

	models := &fakeModels{}
	r := newTestRewriter(t, models)

	_, err := r.Rewrite(context.Background(), generation.Request{})
	assert.ErrorIs(t, err, generation.ErrEmptyResume)
	assert.Zero(t, models.calls)
}

func TestRewriter_CancelledDuringBackoff(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	models := &fakeModels{errs: []error{errors.New("timeout"), errors.New("timeout")}}
	r, err := newRewriter(logger, models, testConfig(), WithRetryDelay(time.Hour))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = r.Rewrite(ctx, request)
	assert.ErrorIs(t, err, generation.ErrTransientFailure)
	assert.Equal(t, 1, models.calls)
}

func TestNewRewriter_Validation(t *testing.T) {
	t.Parallel()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := NewRewriter(context.Background(), logger, config.LLMConfig{ModelName: "m"})
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)

	_, err = newRewriter(logger, nil, testConfig())
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)

	cfg := testConfig()
	cfg.ModelName = ""
	_, err = newRewriter(logger, &fakeModels{}, cfg)
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)

	_, err = newRewriter(nil, &fakeModels{}, testConfig())
	assert.Error(t, err)

	cfg = testConfig()
	cfg.MaxRetries = -1
	cfg.RetryDelaySeconds = 0
	r, err := newRewriter(logger, &fakeModels{}, cfg)
	require.NoError(t, err)
	assert.Equal(t, defaultMaxRetries, r.maxRetries)
	assert.Equal(t, defaultRetryDelay, r.retryDelay)
}

func TestIsTransient(t *testing.T) {
	t.Parallel()

	assert.True(t, isTransient(genai.APIError{Code: 500}))
	assert.True(t, isTransient(genai.APIError{Code: 429}))
	assert.False(t, isTransient(genai.APIError{Code: 403}))
	assert.True(t, isTransient(errors.New("dial tcp: i/o timeout")))
	assert.False(t, isTransient(context.Canceled))
}
