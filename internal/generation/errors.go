package generation

import "errors"

// Common errors returned by the generation package
var (
	// ErrServiceUnavailable is returned when every configured rewriter failed.
	ErrServiceUnavailable = errors.New("all rewrite services are currently unavailable")

	// ErrInvalidResponse is returned when the model output is missing or unusable
	ErrInvalidResponse = errors.New("invalid response from language model")

	// ErrContentBlocked is returned when the LLM blocks the content due to safety filters
	ErrContentBlocked = errors.New("content blocked by language model safety filters")

	// ErrTransientFailure is returned for temporary errors that might resolve on retry
	ErrTransientFailure = errors.New("transient error during resume rewrite")

	// ErrInvalidConfig is returned when the rewriter configuration is invalid
	ErrInvalidConfig = errors.New("invalid rewriter configuration")

	// ErrEmptyResume is returned when there is no original text to rewrite
	ErrEmptyResume = errors.New("original resume text cannot be empty")
)
