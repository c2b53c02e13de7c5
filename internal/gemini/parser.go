package gemini

import (
	"encoding/json"
	"strings"
)

// ListResult is the typed outcome of parsing model output. Parse failure is a
// branch, not an error: callers substitute their deterministic fallback when
// OK is false.
type ListResult struct {
	Values []string
	OK     bool
}

// ExtractStringList parses model output that is expected to be a JSON array
// of strings. Markdown code fences and surrounding prose are tolerated by
// scanning for the outermost bracket pair. Empty arrays and non-string
// elements report failure.
func ExtractStringList(text string) ListResult {
	trimmed := strings.TrimSpace(text)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	start := strings.Index(trimmed, "[")
	end := strings.LastIndex(trimmed, "]")
	if start == -1 || end == -1 || end <= start {
		return ListResult{}
	}

	var values []string
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &values); err != nil {
		return ListResult{}
	}

	out := values[:0]
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return ListResult{}
	}

	return ListResult{Values: out, OK: true}
}
