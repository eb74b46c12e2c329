package translate

import "strings"

// ExtractJSON pulls the JSON payload out of model text that may wrap it
// in markdown fences or surrounding prose. Returns the input unchanged
// when no candidate payload is found; callers treat an unchanged result
// as a failed extraction.
func ExtractJSON(text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return text
	}

	if fenced, ok := stripFence(trimmed); ok {
		trimmed = strings.TrimSpace(fenced)
	}

	if candidate, ok := outermostJSON(trimmed); ok {
		return candidate
	}

	return text
}

// stripFence removes a surrounding markdown code fence, tolerating a
// language tag and a missing closing fence (truncated output).
func stripFence(text string) (string, bool) {
	if !strings.HasPrefix(text, "```") {
		return "", false
	}

	body := text[3:]

	// Drop the language tag line ("json", "JSON", ...).
	if idx := strings.IndexByte(body, '\n'); idx >= 0 {
		firstLine := strings.TrimSpace(body[:idx])
		if firstLine == "" || isFenceTag(firstLine) {
			body = body[idx+1:]
		}
	}

	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}

	return body, true
}

func isFenceTag(s string) bool {
	for _, ch := range s {
		if ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' {
			continue
		}

		return false
	}

	return true
}

// outermostJSON scans for the first object or array opener and returns
// the substring through its balanced closer, skipping brackets inside
// string literals.
func outermostJSON(text string) (string, bool) {
	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return "", false
	}

	open := text[start]

	var close byte = '}'
	if open == '[' {
		close = ']'
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		ch := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}

			continue
		}

		switch ch {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}

	return "", false
}
