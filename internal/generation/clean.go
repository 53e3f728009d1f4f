package generation

import (
	"fmt"
	"regexp"
	"strings"
)

// MinResumeLength is the shortest model output accepted as a resume.
const MinResumeLength = 100

var codeFenceOpen = regexp.MustCompile("```[A-Za-z0-9_-]*\n")

// CleanResponse strips markdown code fences from a model response and
// rejects output too short to be a resume.
func CleanResponse(text string) (string, error) {
	cleaned := codeFenceOpen.ReplaceAllString(text, "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	if len(cleaned) < MinResumeLength {
		return "", fmt.Errorf("%w: rewritten resume is %d characters, want at least %d",
			ErrInvalidResponse, len(cleaned), MinResumeLength)
	}
	return cleaned, nil
}
