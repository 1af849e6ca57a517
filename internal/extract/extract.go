// Package extract recovers structured JSON from raw model replies. Model
// output is untrusted text that may wrap the payload in prose, code fences,
// or trailing junk, so extraction walks a chain of progressively more
// aggressive strategies and reports failure through a tagged result instead
// of an error.
package extract

import (
	"encoding/json"
	"strings"
)

// Result is the outcome of an extraction attempt. When OK is false, Value is
// nil, Raw carries the original reply for logging, and Reason names the
// failure.
type Result struct {
	OK     bool
	Value  map[string]any
	Raw    string
	Reason string
}

// JSON extracts a single JSON object from raw. Strategies, in order:
// direct parse, code-fence stripping, a quote-aware brace-depth scan over
// every candidate object, and finally whitespace collapse between the first
// '{' and last '}'. All failures produce a Result with OK false; JSON never
// panics on any input.
func JSON(raw string) Result {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return failure(raw, "empty response")
	}

	if v, ok := tryParse(trimmed); ok {
		return success(v, raw)
	}

	stripped := stripFences(trimmed)
	if stripped != trimmed {
		if v, ok := tryParse(stripped); ok {
			return success(v, raw)
		}
	}

	if v, ok := scanObjects(stripped); ok {
		return success(v, raw)
	}

	if v, ok := collapseAndParse(stripped); ok {
		return success(v, raw)
	}

	return failure(raw, "no parseable JSON object found")
}

func success(v map[string]any, raw string) Result {
	return Result{OK: true, Value: v, Raw: raw}
}

func failure(raw, reason string) Result {
	return Result{Raw: raw, Reason: reason}
}

func tryParse(s string) (map[string]any, bool) {
	var v map[string]any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	// A literal null decodes without error into a nil map.
	if v == nil {
		return nil, false
	}
	return v, true
}

// stripFences removes markdown code-fence markers, with or without a language
// tag, leaving the fenced body intact.
func stripFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// scanObjects walks the text looking for balanced top-level objects. A
// double quote toggles in-string state unless escaped, and braces inside
// strings do not affect depth. Candidates that fail to parse are skipped so
// a later valid object in the same reply still gets found.
func scanObjects(s string) (map[string]any, bool) {
	for start := 0; start < len(s); start++ {
		if s[start] != '{' {
			continue
		}
		end := matchBrace(s, start)
		if end < 0 {
			continue
		}
		if v, ok := tryParse(s[start : end+1]); ok {
			return v, true
		}
	}
	return nil, false
}

// matchBrace returns the index of the '}' closing the '{' at start, or -1 if
// the object never closes.
func matchBrace(s string, start int) int {
	depth := 0
	inStr := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inStr {
				escaped = true
			}
		case '"':
			inStr = !inStr
		case '{':
			if !inStr {
				depth++
			}
		case '}':
			if !inStr {
				depth--
				if depth == 0 {
					return i
				}
			}
		}
	}
	return -1
}

// collapseAndParse is the last resort: drop all whitespace outside string
// literals, then parse whatever sits between the first '{' and the last '}'.
func collapseAndParse(s string) (map[string]any, bool) {
	var b strings.Builder
	b.Grow(len(s))
	inStr := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if escaped {
			b.WriteByte(c)
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inStr {
				escaped = true
			}
			b.WriteByte(c)
		case '"':
			inStr = !inStr
			b.WriteByte(c)
		case ' ', '\t', '\n', '\r':
			if inStr {
				b.WriteByte(c)
			}
		default:
			b.WriteByte(c)
		}
	}
	collapsed := b.String()
	first := strings.IndexByte(collapsed, '{')
	last := strings.LastIndexByte(collapsed, '}')
	if first < 0 || last <= first {
		return nil, false
	}
	return tryParse(collapsed[first : last+1])
}
