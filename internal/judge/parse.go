package judge

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// UnparseableError reports that no JSON object could be recovered from a
// judge response. The raw text is retained so callers can log or inspect it.
type UnparseableError struct {
	Raw string
}

func (e *UnparseableError) Error() string {
	raw := e.Raw
	if len(raw) > 200 {
		raw = raw[:200]
	}
	return fmt.Sprintf("could not parse JSON from judge response: %s", raw)
}

var (
	fenceOpenRe  = regexp.MustCompile("^```(?:json)?\\s*\n?")
	fenceCloseRe = regexp.MustCompile("\n?```\\s*$")
)

// parseResponse extracts a JSON object from loosely structured model output.
// Markdown code fences are stripped; if a direct parse fails, the first
// brace-delimited span is tried before giving up with *UnparseableError.
func parseResponse(text string) (map[string]any, error) {
	stripped := fenceOpenRe.ReplaceAllString(strings.TrimSpace(text), "")
	stripped = fenceCloseRe.ReplaceAllString(stripped, "")

	var obj map[string]any
	if err := json.Unmarshal([]byte(stripped), &obj); err == nil {
		return obj, nil
	}

	first := strings.Index(stripped, "{")
	last := strings.LastIndex(stripped, "}")
	if first >= 0 && last > first {
		if err := json.Unmarshal([]byte(stripped[first:last+1]), &obj); err == nil {
			return obj, nil
		}
	}

	return nil, &UnparseableError{Raw: text}
}

// intField reads an integer from a decoded JSON object, falling back to a
// documented default when the key is absent or mistyped.
func intField(obj map[string]any, key string, def int) int {
	switch v := obj[key].(type) {
	case float64:
		return int(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
	}
	return def
}

// strField reads a string with a default for absent or mistyped values.
func strField(obj map[string]any, key, def string) string {
	if s, ok := obj[key].(string); ok {
		return s
	}
	return def
}

// optIntField reads a nullable integer, returning nil when absent or null.
func optIntField(obj map[string]any, key string) *int {
	if v, ok := obj[key].(float64); ok {
		n := int(v)
		return &n
	}
	return nil
}
