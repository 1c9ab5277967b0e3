package ai

import "context"

// Blob is a document passed to the model as-is.
type Blob struct {
	MIMEType string
	Data     []byte
}

// Prompt is a single-turn request: an instruction plus either extracted text or an inline blob.
type Prompt struct {
	Instruction string
	Text        string
	Inline      *Blob
}

// Client sends one prompt and returns the model's raw text output.
type Client interface {
	Analyze(ctx context.Context, p Prompt) (string, error)
	Name() string
}
