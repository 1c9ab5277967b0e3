// Package gemini sends analysis prompts to Google Gemini. Gemini accepts PDFs and other
// documents inline, so the bytes go as-is.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/bryanwahyu/rfp-analyzer/internal/domain/ai"
	"github.com/bryanwahyu/rfp-analyzer/internal/domain/documents"
	"github.com/bryanwahyu/rfp-analyzer/internal/infra/ai/prompt"
)

const DefaultModel = "gemini-2.5-flash"

type Options struct {
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int32
}

type Client struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	modelName string
}

var _ ai.Client = (*Client)(nil)

func NewClient(ctx context.Context, opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("gemini api key not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(opts.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	name := opts.Model
	if name == "" {
		name = DefaultModel
	}
	model := client.GenerativeModel(name)
	model.SetTemperature(opts.Temperature)
	if opts.MaxTokens > 0 {
		model.SetMaxOutputTokens(opts.MaxTokens)
	}
	model.ResponseMIMEType = "application/json"

	return &Client{client: client, model: model, modelName: name}, nil
}

func (c *Client) Name() string { return "gemini" }

func (c *Client) Close() error { return c.client.Close() }

func (c *Client) Analyze(ctx context.Context, p ai.Prompt) (string, error) {
	resp, err := c.model.GenerateContent(ctx, parts(p)...)
	if err != nil {
		if isQuota(err) {
			return "", fmt.Errorf("%w: %v", ai.ErrQuotaExceeded, err)
		}
		return "", fmt.Errorf("gemini request failed: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ai.ErrEmptyResponse
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", ai.ErrEmptyResponse
	}
	return sb.String(), nil
}

// parts: instruction first, then either the inline document or its text.
func parts(p ai.Prompt) []genai.Part {
	instruction := p.Instruction
	if instruction == "" {
		instruction = prompt.Instruction
	}
	out := []genai.Part{genai.Text(instruction)}
	if p.Inline != nil {
		mt := documents.BaseMediaType(p.Inline.MIMEType)
		if mt == "" {
			mt = documents.MediaTypeOctet
		}
		return append(out, genai.Blob{MIMEType: mt, Data: p.Inline.Data})
	}
	return append(out, genai.Text(p.Text))
}

func isQuota(err error) bool {
	if status.Code(err) == codes.ResourceExhausted {
		return true
	}
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusTooManyRequests
}
