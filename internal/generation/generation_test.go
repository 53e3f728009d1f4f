package generation_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/phrazzld/resumeq/internal/domain"
	"github.com/phrazzld/resumeq/internal/generation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var longResume = strings.Repeat("Senior engineer shipping reliable systems. ", 5)

type rewriterFunc func(ctx context.Context, req generation.Request) (*generation.Result, error)

func (f rewriterFunc) Rewrite(ctx context.Context, req generation.Request) (*generation.Result, error) {
	return f(ctx, req)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCleanResponse(t *testing.T) {
	t.Parallel()

	t.Run("strips code fences", func(t *testing.T) {
		t.Parallel()
		got, err := generation.CleanResponse("```text\n" + longResume + "\n```\n")
		require.NoError(t, err)
		assert.Equal(t, strings.TrimSpace(longResume), got)
	})

	t.Run("bare fences", func(t *testing.T) {
		t.Parallel()
		got, err := generation.CleanResponse("```" + longResume + "```")
		require.NoError(t, err)
		assert.NotContains(t, got, "```")
	})

	t.Run("too short", func(t *testing.T) {
		t.Parallel()
		_, err := generation.CleanResponse("```\nJane Doe\n```")
		assert.ErrorIs(t, err, generation.ErrInvalidResponse)
	})
}

func TestPrompt_Render(t *testing.T) {
	t.Parallel()

	req := generation.Request{
		OriginalText:   "Jane Doe\nEngineer",
		JobDescription: "Platform engineer, Kubernetes",
		Analysis: domain.AnalysisResult{
			ATSScore:        58,
			KeywordAnalysis: domain.KeywordAnalysis{Missing: []string{"kubernetes", "terraform"}},
			Formatting:      domain.FormattingAnalysis{Issues: []string{"uses tables"}},
		},
	}

	t.Run("default template", func(t *testing.T) {
		t.Parallel()
		p, err := generation.NewPrompt("")
		require.NoError(t, err)

		out, err := p.Render(req)
		require.NoError(t, err)
		assert.Contains(t, out, "Jane Doe\nEngineer")
		assert.Contains(t, out, "ATS Score: 58")
		assert.Contains(t, out, "Missing Keywords: kubernetes, terraform")
		assert.Contains(t, out, "Formatting Issues: uses tables")
		assert.Contains(t, out, "TARGET JOB DESCRIPTION:\nPlatform engineer, Kubernetes")
	})

	t.Run("job description optional", func(t *testing.T) {
		t.Parallel()
		p, err := generation.NewPrompt("")
		require.NoError(t, err)

		noJD := req
		noJD.JobDescription = ""
		out, err := p.Render(noJD)
		require.NoError(t, err)
		assert.NotContains(t, out, "TARGET JOB DESCRIPTION")
	})

	t.Run("template from file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "prompt.tmpl")
		require.NoError(t, os.WriteFile(path, []byte("score={{.ATSScore}}"), 0o600))

		p, err := generation.NewPrompt(path)
		require.NoError(t, err)
		out, err := p.Render(req)
		require.NoError(t, err)
		assert.Equal(t, "score=58", out)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := generation.NewPrompt(filepath.Join(t.TempDir(), "nope.tmpl"))
		assert.ErrorIs(t, err, generation.ErrInvalidConfig)
	})

	t.Run("empty resume", func(t *testing.T) {
		t.Parallel()
		p, err := generation.NewPrompt("")
		require.NoError(t, err)
		_, err = p.Render(generation.Request{})
		assert.ErrorIs(t, err, generation.ErrEmptyResume)
	})
}

func TestFallbackRewriter(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	req := generation.Request{OriginalText: "resume"}

	failing := rewriterFunc(func(ctx context.Context, req generation.Request) (*generation.Result, error) {
		return nil, generation.ErrTransientFailure
	})

	t.Run("falls back to the next rewriter", func(t *testing.T) {
		t.Parallel()
		var secondCalled bool
		second := rewriterFunc(func(ctx context.Context, req generation.Request) (*generation.Result, error) {
			secondCalled = true
			return &generation.Result{Text: longResume, Model: "fallback"}, nil
		})

		f, err := generation.NewFallbackRewriter(discardLogger(),
			generation.NamedRewriter{Name: "primary", Rewriter: failing},
			generation.NamedRewriter{Name: "secondary", Rewriter: second})
		require.NoError(t, err)

		res, err := f.Rewrite(ctx, req)
		require.NoError(t, err)
		assert.True(t, secondCalled)
		assert.Equal(t, "fallback", res.Model)
	})

	t.Run("all fail", func(t *testing.T) {
		t.Parallel()
		blocked := rewriterFunc(func(ctx context.Context, req generation.Request) (*generation.Result, error) {
			return nil, generation.ErrContentBlocked
		})

		f, err := generation.NewFallbackRewriter(discardLogger(),
			generation.NamedRewriter{Name: "primary", Rewriter: failing},
			generation.NamedRewriter{Name: "secondary", Rewriter: blocked})
		require.NoError(t, err)

		_, err = f.Rewrite(ctx, req)
		assert.ErrorIs(t, err, generation.ErrServiceUnavailable)
		assert.ErrorIs(t, err, generation.ErrContentBlocked)
		assert.Contains(t, err.Error(), "primary")
	})

	t.Run("empty resume", func(t *testing.T) {
		t.Parallel()
		f, err := generation.NewFallbackRewriter(discardLogger(),
			generation.NamedRewriter{Name: "primary", Rewriter: failing})
		require.NoError(t, err)

		_, err = f.Rewrite(ctx, generation.Request{})
		assert.ErrorIs(t, err, generation.ErrEmptyResume)
	})

	t.Run("configuration errors", func(t *testing.T) {
		t.Parallel()
		_, err := generation.NewFallbackRewriter(discardLogger())
		assert.ErrorIs(t, err, generation.ErrInvalidConfig)

		_, err = generation.NewFallbackRewriter(discardLogger(), generation.NamedRewriter{Name: "nil"})
		assert.ErrorIs(t, err, generation.ErrInvalidConfig)

		_, err = generation.NewFallbackRewriter(nil, generation.NamedRewriter{Name: "x", Rewriter: failing})
		assert.Error(t, err)
	})
}
