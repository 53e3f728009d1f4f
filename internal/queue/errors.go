package queue

import "errors"

// Common errors returned by the Manager
var (
	ErrJobNotFound    = errors.New("job not found")
	ErrUnknownQueue   = errors.New("unknown queue")
	ErrInvalidPayload = errors.New("invalid job payload")
	ErrCorruptRecord  = errors.New("corrupt job record")
	ErrNotDeadLetter  = errors.New("job is not in the dead-letter list")
	ErrReservedField  = errors.New("field is managed by the queue")
	ErrInvalidStatus  = errors.New("invalid job status")
	ErrNilStore       = errors.New("store cannot be nil")
	ErrNilLogger      = errors.New("logger cannot be nil")
)
