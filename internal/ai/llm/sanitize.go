package llm

import (
	"regexp"
	"strings"
)

// codeFenceRe matches a response wrapped in ```json ... ``` or ``` ... ```.
var codeFenceRe = regexp.MustCompile("(?s)^```(?:json)?\\s*\\n?(.*?)\\n?```$")

// StripCodeFence removes a markdown code-fence wrapper from a model
// response if present. Idempotent.
func StripCodeFence(response string) string {
	response = strings.TrimSpace(response)

	if matches := codeFenceRe.FindStringSubmatch(response); len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}

	return response
}

// SanitizeJSON strips code fences and, when the remaining text does not
// already start with '{' or '[', slices it to the span between the first
// opening and last matching closing brace or bracket. This is a
// best-effort text operation, not a parser; callers still validate the
// result. Idempotent: sanitizing sanitized text is a no-op.
func SanitizeJSON(response string) string {
	text := StripCodeFence(response)
	if text == "" {
		return text
	}

	if text[0] == '{' || text[0] == '[' {
		return text
	}

	if span, ok := sliceJSONSpan(text, '{', '}'); ok {
		return span
	}
	if span, ok := sliceJSONSpan(text, '[', ']'); ok {
		return span
	}

	return text
}

// SanitizeJSONArray is the extractor variant: it locates the first '['
// and last ']' regardless of what the text starts with, since extraction
// responses are expected to be bare string arrays.
func SanitizeJSONArray(response string) string {
	text := StripCodeFence(response)

	if span, ok := sliceJSONSpan(text, '[', ']'); ok {
		return span
	}

	return text
}

func sliceJSONSpan(text string, open, closing byte) (string, bool) {
	start := strings.IndexByte(text, open)
	if start < 0 {
		return "", false
	}
	end := strings.LastIndexByte(text, closing)
	if end <= start {
		return "", false
	}
	return text[start : end+1], true
}
