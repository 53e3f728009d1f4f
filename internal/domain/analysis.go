package domain

import (
	"time"

	"github.com/google/uuid"
)

// Analysis is a scored resume, optionally measured against a job description.
type Analysis struct {
	ID               uuid.UUID      `json:"id"`
	UserID           uuid.UUID      `json:"user_id"`
	OriginalFilename string         `json:"original_filename"`
	OriginalText     string         `json:"original_text"`
	JobDescription   string         `json:"job_description,omitempty"`
	Result           AnalysisResult `json:"analysis_result"`
	ATSScore         int            `json:"ats_score"`
	CreatedAt        time.Time      `json:"created_at"`
}

// AnalysisResult is the structured output of the resume analyser, stored as
// JSON alongside the analysis.
type AnalysisResult struct {
	ATSScore        int                `json:"atsScore"`
	Recommendations []Recommendation   `json:"recommendations"`
	KeywordAnalysis KeywordAnalysis    `json:"keywordAnalysis"`
	Formatting      FormattingAnalysis `json:"formatting"`
}

// Recommendation is one suggested change to the resume.
type Recommendation struct {
	Category    string `json:"category"`
	Priority    string `json:"priority"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Impact      string `json:"impact"`
}

// KeywordAnalysis lists keywords found in and missing from the resume.
type KeywordAnalysis struct {
	Found   []string           `json:"found"`
	Missing []string           `json:"missing"`
	Density map[string]float64 `json:"density,omitempty"`
}

// FormattingAnalysis scores the resume layout.
type FormattingAnalysis struct {
	Issues      []string `json:"issues"`
	Score       int      `json:"score"`
	Suggestions []string `json:"suggestions"`
}

// Profile is the account record of a user.
type Profile struct {
	ID                 uuid.UUID `json:"id"`
	Email              string    `json:"email"`
	FullName           string    `json:"full_name,omitempty"`
	SubscriptionStatus string    `json:"subscription_status"`
	CreatedAt          time.Time `json:"created_at"`
}
