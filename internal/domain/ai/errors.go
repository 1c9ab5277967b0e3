package ai

import (
	"errors"
	"fmt"
)

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// ErrInlineUnsupported means the provider cannot accept the inline media type.
var ErrInlineUnsupported = errors.New("inline document type not supported by provider")

// ErrEmptyResponse means the provider answered without any text candidate.
var ErrEmptyResponse = errors.New("ai returned no content")

// InvocationError wraps a failed call to the inference endpoint.
type InvocationError struct {
	Provider string
	Model    string
	Err      error
}

func (e *InvocationError) Error() string {
	if e.Model == "" {
		return fmt.Sprintf("%s request failed: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("%s (%s) request failed: %v", e.Provider, e.Model, e.Err)
}

func (e *InvocationError) Unwrap() error { return e.Err }

func (e *InvocationError) Name() string { return "InferenceInvocationError" }
