package prompt

import (
	"fmt"
	"strings"
)

// Instruction is the fixed analysis request sent ahead of every document.
const Instruction = `Analyze this RFP and return JSON with: disciplines[], dates{submission,completion,siteVisit}, risks[], goNoGoSuggestion (GO|NO-GO), confidence (0-100), rationale.`

// GetSystemPrompt provides strict directions and schema for JSON output. Chat-style
// providers send it as the system message; document-native providers only need Instruction.
func GetSystemPrompt() string {
	return `You are a senior bid/no-bid analyst for an engineering and construction firm. You must produce one valid JSON object only (no markdown, no commentary) that follows the schema below. Do not include code fences.

Requirements:
- Output must be a single JSON object.
- disciplines lists the professional disciplines the work requires (e.g. "Structural Engineering").
- dates values are ISO-8601 dates (YYYY-MM-DD); omit a date the document does not state.
- risks entries are either short strings or objects with category and description.
- goNoGoSuggestion is exactly "GO" or "NO-GO".
- confidence is an integer from 0 to 100.
- rationale explains the recommendation in two to four sentences.

Schema (example with empty values):
{
  "disciplines": ["<string>"],
  "dates": {"submission": "<YYYY-MM-DD>", "completion": "<YYYY-MM-DD>", "siteVisit": "<YYYY-MM-DD>"},
  "risks": [{"category": "<string>", "description": "<string>"}],
  "goNoGoSuggestion": "<GO|NO-GO>",
  "confidence": 0,
  "rationale": "<string>"
}`
}

// GetUserPrompt wraps extracted document text with the instruction.
func GetUserPrompt(instruction, documentText string) string {
	if strings.TrimSpace(instruction) == "" {
		instruction = Instruction
	}
	return fmt.Sprintf("%s\n\n--- DOCUMENT ---\n%s", instruction, documentText)
}
