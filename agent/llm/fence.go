package llm

import "strings"

// StripCodeFence removes markdown code fences a model may wrap around a
// JSON answer.
func StripCodeFence(content string) string {
	cleaned := strings.ReplaceAll(content, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```JSON", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	return strings.TrimSpace(cleaned)
}
