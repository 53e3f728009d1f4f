package queue

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Name identifies one logical queue. Jobs of different queues never share
// backing keys.
type Name string

// The closed set of queues.
const (
	ResumeGeneration Name = "resume-generation"
	FileDeletion     Name = "file-deletion"
	// EmailNotification is reserved; no worker consumes it yet.
	EmailNotification Name = "email-notification"
)

// Names lists every known queue in a stable order.
var Names = []Name{ResumeGeneration, FileDeletion, EmailNotification}

// Valid reports whether n is one of the known queues.
func (n Name) Valid() bool {
	for _, known := range Names {
		if n == known {
			return true
		}
	}
	return false
}

// ParseName validates s as a queue name.
func ParseName(s string) (Name, error) {
	n := Name(s)
	if !n.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownQueue, s)
	}
	return n, nil
}

// Status is the lifecycle state stored on a job record. Pending and delayed
// jobs share StatusPending; they differ only by queue position.
type Status string

// Possible job status values
const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no further transition can happen from s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// DefaultMaxAttempts is used when neither the caller nor the manager
// configuration supplies a ceiling.
const DefaultMaxAttempts = 3

// Hash field names of a job record.
const (
	FieldID          = "id"
	FieldQueue       = "queue"
	FieldPayload     = "payload"
	FieldStatus      = "status"
	FieldAttempts    = "attempts"
	FieldMaxAttempts = "maxAttempts"
	FieldCreatedAt   = "createdAt"
	FieldUpdatedAt   = "updatedAt"
	FieldCompletedAt = "completedAt"
	FieldLastError   = "error"
	FieldLeasedAt    = "leasedAt"
)

var reservedFields = map[string]bool{
	FieldID: true, FieldQueue: true, FieldPayload: true, FieldStatus: true,
	FieldAttempts: true, FieldMaxAttempts: true, FieldCreatedAt: true,
	FieldUpdatedAt: true, FieldCompletedAt: true, FieldLastError: true,
	FieldLeasedAt: true,
}

// Job is one unit of queued work together with its retry state.
type Job struct {
	ID          string          `json:"id"`
	Queue       Name            `json:"queue"`
	Payload     json.RawMessage `json:"payload"`
	Status      Status          `json:"status"`
	Attempts    int             `json:"attempts"`
	MaxAttempts int             `json:"maxAttempts"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
	LastError   string          `json:"lastError,omitempty"`
	LeasedAt    *time.Time      `json:"leasedAt,omitempty"`

	// Fields holds custom progress fields written through UpdateJob.
	Fields map[string]string `json:"fields,omitempty"`
}

// Options tune a single AddJob call. The zero value enqueues immediately with
// the manager's default attempt ceiling.
type Options struct {
	MaxAttempts int
	Delay       time.Duration
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// toHash encodes the record as flat string fields.
func (j *Job) toHash() map[string]string {
	h := map[string]string{
		FieldID:          j.ID,
		FieldQueue:       string(j.Queue),
		FieldPayload:     string(j.Payload),
		FieldStatus:      string(j.Status),
		FieldAttempts:    strconv.Itoa(j.Attempts),
		FieldMaxAttempts: strconv.Itoa(j.MaxAttempts),
		FieldCreatedAt:   formatTime(j.CreatedAt),
		FieldUpdatedAt:   formatTime(j.UpdatedAt),
	}
	if j.CompletedAt != nil {
		h[FieldCompletedAt] = formatTime(*j.CompletedAt)
	}
	if j.LastError != "" {
		h[FieldLastError] = j.LastError
	}
	if j.LeasedAt != nil {
		h[FieldLeasedAt] = formatTime(*j.LeasedAt)
	}
	for k, v := range j.Fields {
		if !reservedFields[k] {
			h[k] = v
		}
	}
	return h
}

// jobFromHash decodes a record previously written by toHash.
func jobFromHash(h map[string]string) (*Job, error) {
	j := &Job{
		ID:        h[FieldID],
		Queue:     Name(h[FieldQueue]),
		Status:    Status(h[FieldStatus]),
		LastError: h[FieldLastError],
	}
	if p := h[FieldPayload]; p != "" {
		j.Payload = json.RawMessage(p)
	}

	var err error
	if j.Attempts, err = strconv.Atoi(h[FieldAttempts]); err != nil {
		return nil, fmt.Errorf("%w: attempts: %v", ErrCorruptRecord, err)
	}
	if j.MaxAttempts, err = strconv.Atoi(h[FieldMaxAttempts]); err != nil {
		return nil, fmt.Errorf("%w: maxAttempts: %v", ErrCorruptRecord, err)
	}
	if j.CreatedAt, err = parseTime(h[FieldCreatedAt]); err != nil {
		return nil, fmt.Errorf("%w: createdAt: %v", ErrCorruptRecord, err)
	}
	if j.UpdatedAt, err = parseTime(h[FieldUpdatedAt]); err != nil {
		return nil, fmt.Errorf("%w: updatedAt: %v", ErrCorruptRecord, err)
	}
	if s := h[FieldCompletedAt]; s != "" {
		t, err := parseTime(s)
		if err != nil {
			return nil, fmt.Errorf("%w: completedAt: %v", ErrCorruptRecord, err)
		}
		j.CompletedAt = &t
	}
	if s := h[FieldLeasedAt]; s != "" {
		t, err := parseTime(s)
		if err != nil {
			return nil, fmt.Errorf("%w: leasedAt: %v", ErrCorruptRecord, err)
		}
		j.LeasedAt = &t
	}

	for k, v := range h {
		if reservedFields[k] {
			continue
		}
		if j.Fields == nil {
			j.Fields = make(map[string]string)
		}
		j.Fields[k] = v
	}
	return j, nil
}
