package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Models wrap JSON in fenced code blocks more often than not, even when
// told not to. Extraction tries the fence first, then falls back to the
// outermost brace pair.
var (
	fencedJSONRe = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")
	bareJSONRe   = regexp.MustCompile(`(?s)\{.*\}`)
)

// ExtractJSON pulls the first JSON object out of a model response,
// tolerating fenced code blocks and surrounding prose. The second return
// is false when no object-shaped text was found.
func ExtractJSON(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if m := fencedJSONRe.FindStringSubmatch(raw); m != nil {
		return m[1], true
	}
	if m := bareJSONRe.FindString(raw); m != "" {
		return m, true
	}
	return "", false
}

// DecodeObject extracts and unmarshals a JSON object from a model response
// into v. Failures are returned as parse-tagged errors, never panics.
func DecodeObject(raw string, v any) error {
	text, ok := ExtractJSON(raw)
	if !ok {
		return NewError(ErrParse, "no JSON object found in response")
	}
	if err := json.Unmarshal([]byte(text), v); err != nil {
		return WrapError(ErrParse, "malformed JSON in response", err)
	}
	return nil
}
