package analysis

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError is a client-caused failure (400).
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Name() string { return "ValidationError" }

var (
	ErrNoFile        = &ValidationError{Message: "No file provided"}
	ErrEmptyDocument = &ValidationError{Message: "Document is empty or text could not be extracted"}
)

var (
	errEmptyOutput = errors.New("model output is empty")
	errNotObject   = errors.New("model output is not a JSON object")
)

// MalformedAnalysisError means the model answered but its output is not the expected
// JSON. Raw keeps the offending text for diagnostics.
type MalformedAnalysisError struct {
	Raw        string
	Err        error
	Violations []Violation
}

func (e *MalformedAnalysisError) Error() string {
	if len(e.Violations) > 0 {
		parts := make([]string, 0, len(e.Violations))
		for _, v := range e.Violations {
			parts = append(parts, v.String())
		}
		return "malformed analysis: " + strings.Join(parts, "; ")
	}
	return fmt.Sprintf("malformed analysis: %v", e.Err)
}

func (e *MalformedAnalysisError) Unwrap() error { return e.Err }

func (e *MalformedAnalysisError) Name() string { return "MalformedAnalysisError" }
