package domain

import "github.com/google/uuid"

// RetentionReason is recorded on deletion jobs created by the retention sweep.
const RetentionReason = "6-month retention policy"

// ResumeGenerationJob is the payload of a resume-generation queue job.
type ResumeGenerationJob struct {
	GenerationID uuid.UUID `json:"generationId"`
	UserID       uuid.UUID `json:"userId"`
	AnalysisID   uuid.UUID `json:"analysisId"`
}

// Validate rejects payloads with missing identifiers.
func (j ResumeGenerationJob) Validate() error {
	if j.GenerationID == uuid.Nil || j.UserID == uuid.Nil || j.AnalysisID == uuid.Nil {
		return ErrInvalidID
	}
	return nil
}

// FileDeletionJob is the payload of a file-deletion queue job: a batch of
// storage paths owned by one user.
type FileDeletionJob struct {
	UserID    string   `json:"userId"`
	FilePaths []string `json:"filePaths"`
	Reason    string   `json:"reason"`
}

// Validate requires an owning user. An empty path list is valid.
func (j FileDeletionJob) Validate() error {
	if j.UserID == "" {
		return ErrInvalidID
	}
	return nil
}
