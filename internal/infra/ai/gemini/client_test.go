package gemini

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/bryanwahyu/rfp-analyzer/internal/domain/ai"
	"github.com/bryanwahyu/rfp-analyzer/internal/infra/ai/prompt"
)

func TestPartsText(t *testing.T) {
	got := parts(ai.Prompt{Instruction: prompt.Instruction, Text: "Scope: roads"})
	require.Len(t, got, 2)
	assert.Equal(t, genai.Text(prompt.Instruction), got[0])
	assert.Equal(t, genai.Text("Scope: roads"), got[1])
}

func TestPartsInline(t *testing.T) {
	pdf := []byte("%PDF-1.7")
	got := parts(ai.Prompt{Inline: &ai.Blob{MIMEType: "application/pdf", Data: pdf}})
	require.Len(t, got, 2)
	assert.Equal(t, genai.Text(prompt.Instruction), got[0])
	assert.Equal(t, genai.Blob{MIMEType: "application/pdf", Data: pdf}, got[1])

	got = parts(ai.Prompt{Inline: &ai.Blob{Data: pdf}})
	assert.Equal(t, genai.Blob{MIMEType: "application/octet-stream", Data: pdf}, got[1])
}

func TestIsQuota(t *testing.T) {
	assert.True(t, isQuota(status.Error(codes.ResourceExhausted, "quota")))
	assert.True(t, isQuota(fmt.Errorf("call: %w", &googleapi.Error{Code: 429})))
	assert.False(t, isQuota(status.Error(codes.InvalidArgument, "bad")))
	assert.False(t, isQuota(fmt.Errorf("boom")))
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), Options{})
	assert.Error(t, err)
}
