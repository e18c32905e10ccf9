package contract

import (
	"errors"
	"fmt"
)

var (
	ErrOracleTransport   = errors.New("oracle transport failed")
	ErrMalformedResponse = errors.New("oracle response is malformed")
	ErrMemoryUnavailable = errors.New("memory store unavailable")
	ErrPromptMissing     = errors.New("required prompt is missing")
	ErrValidation        = errors.New("validation failed")
	ErrPlanExhausted     = errors.New("no plan produced within attempt budget")
)

// GenerationFailure reports a drafting attempt that produced no plan.
type GenerationFailure struct {
	Attempt int
	Cause   error
}

func (e *GenerationFailure) Error() string {
	return fmt.Sprintf("generation failed at attempt=%d: %v", e.Attempt, e.Cause)
}

func (e *GenerationFailure) Unwrap() error {
	return e.Cause
}
