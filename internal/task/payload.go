package task

import (
	"encoding/json"
	"fmt"

	"github.com/phrazzld/resumeq/internal/domain"
	"github.com/phrazzld/resumeq/internal/queue"
)

// ValidatePayload checks raw against the payload shape of q before it is
// enqueued by hand. Queues without a worker accept any JSON object.
func ValidatePayload(q queue.Name, raw json.RawMessage) error {
	if !q.Valid() {
		return fmt.Errorf("%w: %q", queue.ErrUnknownQueue, q)
	}

	var v interface{ Validate() error }
	switch q {
	case queue.ResumeGeneration:
		v = &domain.ResumeGenerationJob{}
	case queue.FileDeletion:
		v = &domain.FileDeletionJob{}
	default:
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return fmt.Errorf("%w: %v", queue.ErrInvalidPayload, err)
		}
		return nil
	}

	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", queue.ErrInvalidPayload, err)
	}
	if err := v.Validate(); err != nil {
		return fmt.Errorf("%w: %v", queue.ErrInvalidPayload, err)
	}
	return nil
}
