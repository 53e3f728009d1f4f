package generation

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/template"
)

// DefaultPromptTemplate asks for a one-page, ATS-friendly plain-text rewrite.
const DefaultPromptTemplate = `You are an expert resume writer. Rewrite the resume below so that it scores 85 or higher with applicant tracking systems while staying truthful.

ORIGINAL RESUME:
{{.OriginalText}}

ANALYSIS RESULTS:
ATS Score: {{.ATSScore}}
Missing Keywords: {{join .MissingKeywords ", "}}
Formatting Issues: {{join .FormattingIssues ", "}}
{{if .JobDescription}}
TARGET JOB DESCRIPTION:
{{.JobDescription}}
{{end}}
REQUIREMENTS:
1. One page at most: header, headline, a short performance summary, 8-12 core skills, experience, education and tools.
2. Three bullets per role, each following challenge, action, result and metric, starting with a strong verb.
3. Work every missing keyword in at least once without hurting readability.
4. Single column, no tables or images, at most 650 words.
5. Never invent facts. Where a metric is missing, propose a reasonable estimate and mark it [VERIFY].

OUTPUT FORMAT:
Return only the complete rewritten resume as plain text with clear section headers and bullet points.`

// PromptData is the template input.
type PromptData struct {
	OriginalText     string
	JobDescription   string
	ATSScore         int
	MissingKeywords  []string
	FormattingIssues []string
}

// Prompt renders rewrite prompts from a template.
type Prompt struct {
	tmpl *template.Template
}

// NewPrompt parses the template at path, or DefaultPromptTemplate when path
// is empty.
func NewPrompt(path string) (*Prompt, error) {
	text := DefaultPromptTemplate
	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read prompt template from %s: %v",
				ErrInvalidConfig, path, err)
		}
		text = string(content)
	}

	tmpl, err := template.New("rewrite").
		Funcs(template.FuncMap{"join": strings.Join}).
		Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v", ErrInvalidConfig, err)
	}
	return &Prompt{tmpl: tmpl}, nil
}

// Render builds the prompt for req.
func (p *Prompt) Render(req Request) (string, error) {
	if strings.TrimSpace(req.OriginalText) == "" {
		return "", ErrEmptyResume
	}

	data := PromptData{
		OriginalText:     req.OriginalText,
		JobDescription:   req.JobDescription,
		ATSScore:         req.Analysis.ATSScore,
		MissingKeywords:  req.Analysis.KeywordAnalysis.Missing,
		FormattingIssues: req.Analysis.Formatting.Issues,
	}

	var buf bytes.Buffer
	if err := p.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}
	return buf.String(), nil
}
