package indicator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/kapilwn1990/AlgoXera.Lambda.TemplateEngine/internal/ai/llm"
)

// extractionSystemPrompt instructs the fast model tier to return only the
// indicator types the user explicitly and finally selected.
const extractionSystemPrompt = `You extract technical indicator selections from a trading strategy conversation.

Return ONLY a JSON array of strings, nothing else. Each string must be one of the allowed indicator type keys provided in the request.

Rules:
- Include an indicator only if the user explicitly and finally selected it. Indicators that were suggested, discussed, or later replaced do not count.
- Use the exact lowercase type keys from the allowed list.
- If the user selected nothing recognizable, return [].`

// DefaultTypes is the minimal safe fallback used when extraction fails.
// Deliberately small: unused indicators merely bloat the prompt, but wrong
// ones produce invalid templates.
func DefaultTypes() []string {
	return []string{TypePrice, "rsi", "ema"}
}

// Extractor issues one near-zero-temperature completion to pull the
// selected indicator type keys out of a conversation.
type Extractor struct {
	completer llm.Completer
	logger    zerolog.Logger
}

// NewExtractor creates an extractor on the extraction-tier completer.
func NewExtractor(completer llm.Completer, logger zerolog.Logger) *Extractor {
	return &Extractor{
		completer: completer,
		logger:    logger.With().Str("component", "IndicatorExtractor").Logger(),
	}
}

// Extract returns a deduplicated, lowercase list of selected indicator
// type keys, filtered to the allowed set, with the price type always
// force-included. Extraction failure is non-fatal: it degrades to
// DefaultTypes rather than aborting the pipeline.
func (e *Extractor) Extract(ctx context.Context, conversation string, allowedTypes []string) []string {
	prompt := fmt.Sprintf("Allowed indicator type keys: %s\n\nConversation:\n%s",
		strings.Join(allowedTypes, ", "), conversation)

	raw, err := e.completer.Complete(ctx, llm.CompletionRequest{
		System:      extractionSystemPrompt,
		Prompt:      prompt,
		Temperature: 0.0,
	})
	if err != nil {
		e.logger.Warn().Err(err).Msg("indicator extraction failed, using default set")
		return DefaultTypes()
	}

	keys, ok := parseExtraction(raw)
	if !ok {
		e.logger.Warn().Str("response", truncate(raw, 200)).Msg("unparseable extraction response, using default set")
		return DefaultTypes()
	}

	allowed := make(map[string]bool, len(allowedTypes))
	for _, t := range allowedTypes {
		allowed[t] = true
	}

	out := []string{TypePrice}
	seen := map[string]bool{TypePrice: true}
	for _, key := range keys {
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" || seen[key] || !allowed[key] {
			continue
		}
		out = append(out, key)
		seen[key] = true
	}

	return out
}

// parseExtraction locates the JSON array in a possibly fence-wrapped or
// prose-wrapped response and decodes it.
func parseExtraction(raw string) ([]string, bool) {
	text := llm.SanitizeJSONArray(raw)
	if !strings.HasPrefix(strings.TrimSpace(text), "[") {
		return nil, false
	}

	var keys []string
	if err := json.Unmarshal([]byte(text), &keys); err != nil {
		return nil, false
	}
	return keys, true
}

// Unsupported identifies an indicator request outside the supported set.
type Unsupported struct {
	Requested   string
	Alternative string
}

// DetectUnsupported scans a conversation for recognizable indicator names
// that the engine does not support. When found, the caller rejects the
// request with a structured error naming the indicator and a supported
// alternative instead of silently omitting it. Names match whole words
// only, and the patterns are walked in a fixed order, so the same
// conversation always produces the same rejection.
func DetectUnsupported(conversation string) (*Unsupported, bool) {
	lower := strings.ToLower(conversation)
	for _, pattern := range unsupportedPatterns {
		if pattern.re.MatchString(lower) {
			return &Unsupported{Requested: pattern.name, Alternative: pattern.alternative}, true
		}
	}
	return nil, false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
