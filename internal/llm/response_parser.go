package llm

import (
	"encoding/json"
	"strings"
)

// dialogueEnvelope is the JSON shape the dialogue prompt asks the model for.
type dialogueEnvelope struct {
	Text            string             `json:"text"`
	RevealedFactIDs []string           `json:"revealed_fact_ids"`
	EmotionalImpact map[string]float64 `json:"emotional_impact"`
}

// parseDialogueResponse extracts a DialogueResult from raw model output.
// Models wrap JSON in prose or markdown fences more often than not, so the
// parser scans for the first balanced JSON object and falls back to treating
// the whole output as plain reply text when no usable envelope is found.
func parseDialogueResponse(raw string) *DialogueResult {
	trimmed := strings.TrimSpace(raw)

	if obj := extractJSONObject(trimmed); obj != "" {
		var env dialogueEnvelope
		if err := json.Unmarshal([]byte(obj), &env); err == nil && env.Text != "" {
			return &DialogueResult{
				Text:            strings.TrimSpace(env.Text),
				RevealedFactIDs: env.RevealedFactIDs,
				EmotionalImpact: env.EmotionalImpact,
			}
		}
	}

	// Plain-prose fallback: strip a markdown fence if the whole reply is one.
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	return &DialogueResult{Text: strings.TrimSpace(trimmed)}
}

// extractJSONObject returns the first balanced top-level {...} block in s,
// or "" when none exists. Braces inside JSON strings are skipped.
func extractJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return s[start : i+1]
				}
			}
		}
	}
	return ""
}
