package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/bryanwahyu/rfp-analyzer/internal/domain/ai"
	"github.com/bryanwahyu/rfp-analyzer/internal/domain/documents"
	"github.com/bryanwahyu/rfp-analyzer/internal/infra/ai/prompt"
	"github.com/bryanwahyu/rfp-analyzer/internal/infra/extract"
)

const (
	defaultModel     = "gpt-4o-mini"
	defaultMaxTokens = 2048
)

type Client struct {
	*openai.Client
	Model       string
	MaxTokens   int
	Temperature float32
}

var _ ai.Client = (*Client)(nil)

func NewClient(apiKey, model string) *Client {
	return &Client{Client: openai.NewClient(apiKey), Model: model}
}

func (c *Client) Name() string { return "openai" }

func (c *Client) model() string {
	if c.Model == "" {
		return defaultModel
	}
	return c.Model
}

// reasoning models (o1/o3/o4/gpt-5*) take MaxCompletionTokens and no temperature
func isReasoning(model string) bool {
	for _, p := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}

func (c *Client) Analyze(ctx context.Context, p ai.Prompt) (string, error) {
	user, err := userMessage(ctx, p)
	if err != nil {
		return "", err
	}

	model := c.model()
	req := openai.ChatCompletionRequest{
		Model: model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.GetSystemPrompt()},
			user,
		},
	}
	maxTokens := c.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	if isReasoning(model) {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
		req.Temperature = c.Temperature
	}

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		if isQuota(err) {
			return "", fmt.Errorf("%w: %v", ai.ErrQuotaExceeded, err)
		}
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ai.ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

// userMessage builds the user turn. Chat completions cannot take a PDF inline, so PDFs are
// flattened to text here; images go as data URLs; anything else is refused.
func userMessage(ctx context.Context, p ai.Prompt) (openai.ChatCompletionMessage, error) {
	if p.Inline == nil {
		return openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: prompt.GetUserPrompt(p.Instruction, p.Text),
		}, nil
	}

	mt := documents.BaseMediaType(p.Inline.MIMEType)
	switch {
	case mt == documents.MediaTypePDF:
		text, err := extract.PDFText(ctx, p.Inline.Data)
		if err != nil {
			return openai.ChatCompletionMessage{}, fmt.Errorf("%w: %s: %v", ai.ErrInlineUnsupported, mt, err)
		}
		return openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: prompt.GetUserPrompt(p.Instruction, text),
		}, nil

	case strings.HasPrefix(mt, "image/"):
		instruction := p.Instruction
		if instruction == "" {
			instruction = prompt.Instruction
		}
		return openai.ChatCompletionMessage{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: instruction},
				{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{
					URL: "data:" + mt + ";base64," + base64.StdEncoding.EncodeToString(p.Inline.Data),
				}},
			},
		}, nil
	}
	return openai.ChatCompletionMessage{}, fmt.Errorf("%w: %s", ai.ErrInlineUnsupported, mt)
}

func isQuota(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.Type == "insufficient_quota"
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	return false
}
