package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInstructionNamesEveryField(t *testing.T) {
	for _, field := range []string{"disciplines", "submission", "completion", "siteVisit", "risks", "goNoGoSuggestion", "GO|NO-GO", "confidence (0-100)", "rationale"} {
		assert.Contains(t, Instruction, field)
		assert.Contains(t, GetSystemPrompt()+Instruction, field)
	}
}

func TestGetUserPrompt(t *testing.T) {
	got := GetUserPrompt("", "Scope: bridge")
	assert.Contains(t, got, Instruction)
	assert.Contains(t, got, "Scope: bridge")

	assert.Equal(t, "custom\n\n--- DOCUMENT ---\nbody", GetUserPrompt("custom", "body"))
}
