package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerationStatus represents the processing state of a resume generation
type GenerationStatus string

// Possible generation status values
const (
	GenerationStatusPending    GenerationStatus = "pending"
	GenerationStatusProcessing GenerationStatus = "processing"
	GenerationStatusCompleted  GenerationStatus = "completed"
	GenerationStatusFailed     GenerationStatus = "failed"
)

// Valid reports whether s is a known generation status.
func (s GenerationStatus) Valid() bool {
	switch s {
	case GenerationStatusPending, GenerationStatusProcessing,
		GenerationStatusCompleted, GenerationStatusFailed:
		return true
	default:
		return false
	}
}

// Generation is a user's request to rewrite an analysed resume. The queue
// job that performs the work mirrors its progress here so the dashboard can
// read it back.
type Generation struct {
	ID              uuid.UUID        `json:"id"`
	UserID          uuid.UUID        `json:"user_id"`
	AnalysisID      uuid.UUID        `json:"analysis_id"`
	Status          GenerationStatus `json:"status"`
	RewrittenText   string           `json:"rewritten_text,omitempty"`
	DocxURL         string           `json:"docx_url,omitempty"`
	PDFURL          string           `json:"pdf_url,omitempty"`
	GenerationModel string           `json:"generation_model,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	CompletedAt     *time.Time       `json:"completed_at,omitempty"`
}

// Validate checks the identifiers and status of the generation.
func (g *Generation) Validate() error {
	if g.ID == uuid.Nil || g.UserID == uuid.Nil || g.AnalysisID == uuid.Nil {
		return ErrInvalidID
	}
	if !g.Status.Valid() {
		return ErrInvalidGenerationStatus
	}
	return nil
}

// StoragePaths returns the object paths of the generated files, derived from
// the last two segments of each stored URL (<user id>/<file name>).
func (g *Generation) StoragePaths() []string {
	var paths []string
	for _, u := range []string{g.DocxURL, g.PDFURL} {
		if p := StoragePathFromURL(u); p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

// StoragePathFromURL extracts "<dir>/<file>" from a public object URL. It
// returns "" for an empty URL.
func StoragePathFromURL(u string) string {
	if u == "" {
		return ""
	}
	segments := strings.Split(u, "/")
	if len(segments) < 2 {
		return u
	}
	return strings.Join(segments[len(segments)-2:], "/")
}

// GenerationResult carries the outputs written when a generation completes.
type GenerationResult struct {
	RewrittenText   string
	DocxURL         string
	PDFURL          string
	GenerationModel string
	CompletedAt     time.Time
}
