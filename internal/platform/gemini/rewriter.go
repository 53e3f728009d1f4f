package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/phrazzld/resumeq/internal/config"
	"github.com/phrazzld/resumeq/internal/generation"
	"github.com/phrazzld/resumeq/internal/platform/metrics"
	"google.golang.org/genai"
)

// Retry defaults used when the configuration carries out-of-range values.
const (
	defaultMaxRetries = 3
	defaultRetryDelay = 2 * time.Second
)

// rewriteTemperature keeps the output close to the source resume.
const rewriteTemperature float32 = 0.3

// contentGenerator is the subset of *genai.Models the Rewriter calls.
type contentGenerator interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// Rewriter rewrites resumes with one Gemini model.
type Rewriter struct {
	logger     *slog.Logger
	models     contentGenerator
	prompt     *generation.Prompt
	model      string
	maxRetries int
	retryDelay time.Duration

	rngMu sync.Mutex
	rng   *rand.Rand
}

var _ generation.Rewriter = (*Rewriter)(nil)

// Option customizes a Rewriter.
type Option func(*Rewriter)

// WithRetryDelay overrides the base delay between retries.
func WithRetryDelay(d time.Duration) Option {
	return func(r *Rewriter) {
		r.retryDelay = d
	}
}

// NewRewriter creates a Rewriter for cfg.ModelName backed by a new Gemini
// API client.
func NewRewriter(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig, opts ...Option) (*Rewriter, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", generation.ErrInvalidConfig, err)
	}

	return newRewriter(logger, client.Models, cfg, opts...)
}

func newRewriter(
	logger *slog.Logger,
	models contentGenerator,
	cfg config.LLMConfig,
	opts ...Option,
) (*Rewriter, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if models == nil {
		return nil, fmt.Errorf("%w: content generator cannot be nil", generation.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	prompt, err := generation.NewPrompt(cfg.PromptTemplatePath)
	if err != nil {
		return nil, err
	}

	r := &Rewriter{
		logger:     logger.With("component", "gemini_rewriter", "model", cfg.ModelName),
		models:     models,
		prompt:     prompt,
		model:      cfg.ModelName,
		maxRetries: cfg.MaxRetries,
		retryDelay: time.Duration(cfg.RetryDelaySeconds) * time.Second,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.maxRetries < 0 {
		r.logger.Warn("invalid max retries value, using default", "max_retries", defaultMaxRetries)
		r.maxRetries = defaultMaxRetries
	}
	if r.retryDelay <= 0 {
		r.logger.Warn("invalid retry delay value, using default", "retry_delay", defaultRetryDelay)
		r.retryDelay = defaultRetryDelay
	}
	return r, nil
}

// Model returns the Gemini model name.
func (r *Rewriter) Model() string {
	return r.model
}

// Rewrite renders the prompt for req and returns the cleaned rewrite.
func (r *Rewriter) Rewrite(ctx context.Context, req generation.Request) (*generation.Result, error) {
	prompt, err := r.prompt.Render(req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	text, err := r.generateWithRetry(ctx, prompt)
	metrics.Time("gemini.rewrite.duration", time.Since(start))
	if err != nil {
		metrics.Increment("gemini.rewrite.failed")
		return nil, err
	}

	cleaned, err := generation.CleanResponse(text)
	if err != nil {
		metrics.Increment("gemini.rewrite.failed")
		return nil, err
	}

	metrics.Increment("gemini.rewrite.succeeded")
	return &generation.Result{Text: cleaned, Model: r.model}, nil
}

// generateWithRetry calls the API up to maxRetries+1 times. The delay before
// retry n is retryDelay * 2^n scaled by a random factor in [0.5, 1.0).
func (r *Rewriter) generateWithRetry(ctx context.Context, prompt string) (string, error) {
	temperature := rewriteTemperature
	contents := []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{{Text: prompt}},
	}}
	genConfig := &genai.GenerateContentConfig{Temperature: &temperature}

	for attempt := 0; ; attempt++ {
		r.logger.DebugContext(ctx, "making Gemini API call",
			"attempt", attempt+1,
			"max_attempts", r.maxRetries+1)

		resp, err := r.models.GenerateContent(ctx, r.model, contents, genConfig)
		if err == nil {
			return extractText(resp)
		}

		if !isTransient(err) {
			r.logger.WarnContext(ctx, "permanent Gemini API error, not retrying",
				"attempt", attempt+1,
				"error", err)
			return "", fmt.Errorf("gemini request failed: %w", err)
		}

		r.logger.ErrorContext(ctx, "Gemini API call failed",
			"attempt", attempt+1,
			"error", err)

		if attempt >= r.maxRetries {
			return "", fmt.Errorf("%w: exceeded maximum retry attempts (%d): %v",
				generation.ErrTransientFailure, r.maxRetries, err)
		}

		select {
		case <-time.After(r.backoff(attempt)):
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %v", generation.ErrTransientFailure, ctx.Err())
		}
	}
}

func (r *Rewriter) backoff(attempt int) time.Duration {
	r.rngMu.Lock()
	jitter := 0.5 + r.rng.Float64()*0.5
	r.rngMu.Unlock()
	return time.Duration(float64(r.retryDelay) * math.Pow(2, float64(attempt)) * jitter)
}

// extractText joins the text parts of the first candidate.
func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: content blocked by safety filters", generation.ErrContentBlocked)
	}
	if candidate.Content == nil {
		return "", fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	return sb.String(), nil
}

// isTransient reports whether err is worth retrying: rate limits, server
// errors and anything that is not an API error, such as a dropped connection.
func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.Code)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return retryableStatus(apiErrPtr.Code)
	}
	return true
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
