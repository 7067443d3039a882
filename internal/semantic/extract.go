package semantic

import (
	"encoding/json"
	"regexp"
	"strings"

	"finbot/internal/parsererror"
)

var fencedJSONPattern = regexp.MustCompile("```(?:json)?\\s*(\\{[\\s\\S]*?\\})\\s*```")

// extractJSON locates the first well-formed JSON object in free-form model
// output. Models occasionally wrap JSON in prose or markdown fences, so the
// extraction is layered:
//
//  1. parse the whole trimmed body;
//  2. parse the contents of the first fenced code block;
//  3. parse the greedy brace-matched substring.
//
// Returns parsererror.ErrInvalidResponse when nothing parses.
func extractJSON(content string) (json.RawMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, parsererror.ErrInvalidResponse
	}

	if strings.HasPrefix(content, "{") && strings.HasSuffix(content, "}") {
		if raw := tryObject(content); raw != nil {
			return raw, nil
		}
	}

	if match := fencedJSONPattern.FindStringSubmatch(content); match != nil {
		if raw := tryObject(match[1]); raw != nil {
			return raw, nil
		}
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		if raw := tryObject(content[start : end+1]); raw != nil {
			return raw, nil
		}
	}

	return nil, parsererror.ErrInvalidResponse
}

// tryObject returns candidate as raw JSON if it is a well-formed object.
func tryObject(candidate string) json.RawMessage {
	var probe map[string]any
	if err := json.Unmarshal([]byte(candidate), &probe); err != nil {
		return nil
	}
	return json.RawMessage(candidate)
}
