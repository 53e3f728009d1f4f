package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// NamedRewriter labels a Rewriter for logging.
type NamedRewriter struct {
	Name     string
	Rewriter Rewriter
}

// FallbackRewriter tries each rewriter in order and returns the first success.
type FallbackRewriter struct {
	rewriters []NamedRewriter
	logger    *slog.Logger
}

var _ Rewriter = (*FallbackRewriter)(nil)

// NewFallbackRewriter creates a FallbackRewriter. At least one rewriter is required.
func NewFallbackRewriter(logger *slog.Logger, rewriters ...NamedRewriter) (*FallbackRewriter, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if len(rewriters) == 0 {
		return nil, fmt.Errorf("%w: no rewriters configured", ErrInvalidConfig)
	}
	for i, r := range rewriters {
		if r.Rewriter == nil {
			return nil, fmt.Errorf("%w: rewriter %d (%s) is nil", ErrInvalidConfig, i, r.Name)
		}
	}
	return &FallbackRewriter{
		rewriters: rewriters,
		logger:    logger.With("component", "fallback_rewriter"),
	}, nil
}

// Rewrite returns the first successful result. When all rewriters fail the
// error wraps ErrServiceUnavailable and every individual failure. An empty
// resume is rejected without calling any provider.
func (f *FallbackRewriter) Rewrite(ctx context.Context, req Request) (*Result, error) {
	if req.OriginalText == "" {
		return nil, ErrEmptyResume
	}

	var errs []error
	for _, r := range f.rewriters {
		result, err := r.Rewriter.Rewrite(ctx, req)
		if err == nil {
			return result, nil
		}

		f.logger.WarnContext(ctx, "rewriter failed, trying next",
			"rewriter", r.Name,
			"error", err)
		errs = append(errs, fmt.Errorf("%s: %w", r.Name, err))

		if ctx.Err() != nil {
			break
		}
	}

	return nil, fmt.Errorf("%w: %w", ErrServiceUnavailable, errors.Join(errs...))
}
