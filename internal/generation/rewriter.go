package generation

import (
	"context"

	"github.com/phrazzld/resumeq/internal/domain"
)

// Request carries everything a model needs to rewrite one resume.
type Request struct {
	OriginalText   string
	JobDescription string
	Analysis       domain.AnalysisResult
}

// Result is a rewritten resume and the model that produced it.
type Result struct {
	Text  string
	Model string
}

// Rewriter rewrites a resume using a language model. Implementations return
// ErrTransientFailure for failures worth retrying later and
// ErrServiceUnavailable when no provider could serve the request.
type Rewriter interface {
	Rewrite(ctx context.Context, req Request) (*Result, error)
}
