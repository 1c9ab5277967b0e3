package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/bryanwahyu/rfp-analyzer/internal/domain/analysis"
	"github.com/bryanwahyu/rfp-analyzer/internal/domain/documents"
)

type errorBody struct {
	Error     string       `json:"error"`
	Details   string       `json:"details,omitempty"`
	FullError *diagnostics `json:"fullError,omitempty"`
}

// diagnostics is the fullError part of a 500 body.
type diagnostics struct {
	Name       string               `json:"name"`
	Trace      []string             `json:"trace"`
	Cause      string               `json:"cause,omitempty"`
	Bucket     string               `json:"bucket,omitempty"`
	Path       string               `json:"path,omitempty"`
	Kind       string               `json:"kind,omitempty"`
	RawText    string               `json:"rawText,omitempty"`
	Violations []analysis.Violation `json:"violations,omitempty"`
}

type named interface {
	Name() string
}

func diagnose(err error) *diagnostics {
	d := &diagnostics{Name: "Error"}

	var n named
	if errors.As(err, &n) {
		d.Name = n.Name()
	}

	// rantai wrap dari luar ke dalam
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Trace = append(d.Trace, e.Error())
	}
	if len(d.Trace) > 1 {
		d.Cause = d.Trace[len(d.Trace)-1]
	}

	var se *documents.StorageError
	if errors.As(err, &se) {
		d.Bucket, d.Path, d.Kind = se.Bucket, se.Path, string(se.Kind)
	}
	var mal *analysis.MalformedAnalysisError
	if errors.As(err, &mal) {
		d.RawText = mal.Raw
		d.Violations = mal.Violations
	}
	return d
}

// writeJSON encodes before touching w, so an encoding failure can still become a 500.
// Write errors mean the client went away and are not reported.
func writeJSON(w http.ResponseWriter, status int, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n'))
	return nil
}
