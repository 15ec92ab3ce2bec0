package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "json fence",
			input:    "```json\n{\"a\": 1}\n```",
			expected: `{"a": 1}`,
		},
		{
			name:     "bare fence",
			input:    "```\n{\"a\": 1}\n```",
			expected: `{"a": 1}`,
		},
		{
			name:     "no fence",
			input:    `{"a": 1}`,
			expected: `{"a": 1}`,
		},
		{
			name:     "surrounding whitespace",
			input:    "  ```json\n{\"a\": 1}\n```  ",
			expected: `{"a": 1}`,
		},
		{
			name:     "multiline body",
			input:    "```json\n{\n  \"a\": 1\n}\n```",
			expected: "{\n  \"a\": 1\n}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StripCodeFence(tt.input))
		})
	}
}

func TestSanitizeJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "fenced object",
			input:    "```json\n{\"indicators\": []}\n```",
			expected: `{"indicators": []}`,
		},
		{
			name:     "prose before and after",
			input:    "Here is the template:\n{\"indicators\": []}\nLet me know if you need changes.",
			expected: `{"indicators": []}`,
		},
		{
			name:     "already clean object",
			input:    `{"indicators": []}`,
			expected: `{"indicators": []}`,
		},
		{
			name:     "already clean array",
			input:    `["rsi", "ema"]`,
			expected: `["rsi", "ema"]`,
		},
		{
			name:     "clean object containing prose-like strings untouched",
			input:    `{"note": "Here is some text: with a colon"}`,
			expected: `{"note": "Here is some text: with a colon"}`,
		},
		{
			name:     "no json at all",
			input:    "I could not produce a template.",
			expected: "I could not produce a template.",
		},
		{
			name:     "empty",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeJSON(tt.input))
		})
	}
}

func TestSanitizeJSONIdempotent(t *testing.T) {
	inputs := []string{
		"```json\n{\"a\": 1}\n```",
		"prose {\"a\": 1} trailing",
		`{"a": 1}`,
		`["x"]`,
		"no json here",
	}

	for _, input := range inputs {
		once := SanitizeJSON(input)
		assert.Equal(t, once, SanitizeJSON(once), "input %q", input)
	}
}

func TestSanitizeJSONArray(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "fenced array",
			input:    "```json\n[\"rsi\", \"ema\"]\n```",
			expected: `["rsi", "ema"]`,
		},
		{
			name:     "prose around array",
			input:    "The indicators are: [\"rsi\"] as requested.",
			expected: `["rsi"]`,
		},
		{
			name:     "no array",
			input:    "none",
			expected: "none",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeJSONArray(tt.input))
		})
	}
}
