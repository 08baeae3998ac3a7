package utils

import (
	"errors"
	"regexp"
	"strings"
)

// ErrNoJSONFound - the raw model output contains no extractable JSON object.
var ErrNoJSONFound = errors.New("no JSON object found in text")

// jsonBlockRegex matches a complete ```...``` fence, with an optional
// language identifier, capturing the inner content. (?s) makes '.' match
// newlines.
var jsonBlockRegex = regexp.MustCompile(`(?s)` + "```" + `(?:\w+)?\s*(.*?)\s*` + "```")

// ExtractJSONObject pulls the first {...} JSON object out of free text.
// Language models wrap their JSON payloads in prose, markdown fences or
// partial fences; this strips all of that and balances trailing braces.
// Returns ErrNoJSONFound when no opening brace is present at all. The result
// is not guaranteed to parse - callers must still json.Unmarshal and treat a
// parse failure as a malformed response.
func ExtractJSONObject(rawText string) (string, error) {
	cleaned := strings.TrimSpace(rawText)

	// Prefer the content of a complete ```...``` fence.
	matches := jsonBlockRegex.FindStringSubmatch(cleaned)
	if len(matches) > 1 {
		cleaned = strings.TrimSpace(matches[1])
	} else {
		// No complete fence. Strip a dangling suffix/prefix fence if present.
		if strings.HasSuffix(cleaned, "```") {
			cleaned = strings.TrimSpace(strings.TrimSuffix(cleaned, "```"))
		}
		if strings.HasPrefix(cleaned, "```") {
			if firstNewline := strings.Index(cleaned, "\n"); firstNewline != -1 {
				cleaned = strings.TrimSpace(cleaned[firstNewline+1:])
			} else {
				cleaned = strings.TrimSpace(strings.TrimPrefix(cleaned, "```"))
			}
		}
	}

	// Scan to the first top-level {...} block, tolerating leading prose.
	start := strings.Index(cleaned, "{")
	if start == -1 {
		return "", ErrNoJSONFound
	}
	cleaned = cleaned[start:]

	// Walk the braces to find the matching closer; text after it is wrapper
	// prose and is dropped.
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(cleaned); i++ {
		c := cleaned[i]
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
					return cleaned[:i+1], nil
				}
			}
		}
	}

	// Truncated output: balance the missing closing braces so a best-effort
	// parse is still possible.
	if depth > 0 {
		cleaned += strings.Repeat("}", depth)
	}
	return cleaned, nil
}
