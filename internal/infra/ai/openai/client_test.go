package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/rfp-analyzer/internal/domain/ai"
	"github.com/bryanwahyu/rfp-analyzer/internal/infra/ai/prompt"
)

func TestUserMessageText(t *testing.T) {
	msg, err := userMessage(context.Background(), ai.Prompt{Instruction: prompt.Instruction, Text: "Scope: roads"})
	require.NoError(t, err)
	assert.Equal(t, openai.ChatMessageRoleUser, msg.Role)
	assert.Contains(t, msg.Content, prompt.Instruction)
	assert.Contains(t, msg.Content, "Scope: roads")
}

func TestUserMessageImage(t *testing.T) {
	msg, err := userMessage(context.Background(), ai.Prompt{
		Instruction: prompt.Instruction,
		Inline:      &ai.Blob{MIMEType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}},
	})
	require.NoError(t, err)
	require.Len(t, msg.MultiContent, 2)
	assert.Equal(t, prompt.Instruction, msg.MultiContent[0].Text)
	assert.Equal(t, "data:image/png;base64,iVBORw==", msg.MultiContent[1].ImageURL.URL)
}

func TestUserMessageRefusesOtherInline(t *testing.T) {
	_, err := userMessage(context.Background(), ai.Prompt{Inline: &ai.Blob{MIMEType: "application/msword", Data: []byte{1}}})
	assert.ErrorIs(t, err, ai.ErrInlineUnsupported)

	_, err = userMessage(context.Background(), ai.Prompt{Inline: &ai.Blob{MIMEType: "application/pdf", Data: []byte("not a pdf")}})
	assert.ErrorIs(t, err, ai.ErrInlineUnsupported)
}

func TestIsReasoning(t *testing.T) {
	assert.True(t, isReasoning("o3-2025-04-16"))
	assert.True(t, isReasoning("gpt-5-mini"))
	assert.False(t, isReasoning("gpt-4o-mini"))
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/v1"
	return &Client{Client: openai.NewClientWithConfig(cfg), Model: "gpt-4o-mini"}
}

func TestAnalyzeSendsJSONRequest(t *testing.T) {
	var got openai.ChatCompletionRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"{\"goNoGoSuggestion\":\"GO\"}"},"finish_reason":"stop"}]}`)
	})

	out, err := c.Analyze(context.Background(), ai.Prompt{Instruction: prompt.Instruction, Text: "Scope"})
	require.NoError(t, err)
	assert.Equal(t, `{"goNoGoSuggestion":"GO"}`, out)

	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, openai.ChatCompletionResponseFormatTypeJSONObject, got.ResponseFormat.Type)
	assert.Equal(t, defaultMaxTokens, got.MaxTokens)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, got.Messages[0].Role)
}

func TestAnalyzeQuota(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"You exceeded your current quota","type":"insufficient_quota","code":"insufficient_quota"}}`)
	})

	_, err := c.Analyze(context.Background(), ai.Prompt{Text: "Scope"})
	assert.ErrorIs(t, err, ai.ErrQuotaExceeded)
}

func TestAnalyzeEmptyChoices(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"x","object":"chat.completion","choices":[]}`)
	})

	_, err := c.Analyze(context.Background(), ai.Prompt{Text: "Scope"})
	assert.ErrorIs(t, err, ai.ErrEmptyResponse)
}
