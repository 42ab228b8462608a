package intent

import (
	"encoding/json"
	"regexp"
	"strings"
)

const parseFailureExplanation = "Could not parse JSON from response. Please try rephrasing your command."

// extractPatterns are tried in order. A pattern with a capture group
// contributes the group, otherwise the whole match.
var extractPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\{[^{}]*(?:\{[^{}]*\}[^{}]*)*\}`),
	regexp.MustCompile(`(?s)\{.*\}`),
	regexp.MustCompile("(?s)```json\\s*(\\{.*?\\})\\s*```"),
	regexp.MustCompile("(?s)```\\s*(\\{.*?\\})\\s*```"),
}

var fencePattern = regexp.MustCompile("```(?:json)?\\s*")

// Extract pulls the action object out of a model response. It never fails:
// when nothing decodes it returns an unknown action.
func Extract(text string) map[string]any {
	raw, _ := extract(text)
	return raw
}

func extract(text string) (map[string]any, bool) {
	for _, re := range extractPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			candidate := m[0]
			if len(m) > 1 {
				candidate = m[1]
			}
			if obj, ok := decodeObject(candidate); ok {
				if _, has := obj["action_type"]; has {
					return obj, true
				}
			}
		}
	}

	cleaned := strings.TrimSpace(fencePattern.ReplaceAllString(strings.TrimSpace(text), ""))
	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start != -1 && end > start {
		if obj, ok := decodeObject(cleaned[start : end+1]); ok {
			return obj, true
		}
	}

	return unknownAction(parseFailureExplanation), false
}

func decodeObject(s string) (map[string]any, bool) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	obj, ok := v.(map[string]any)
	return obj, ok
}

func unknownAction(explanation string) map[string]any {
	return map[string]any{
		"action_type":      string(Unknown),
		"target_component": nil,
		"parameters":       map[string]any{},
		"explanation":      explanation,
	}
}
