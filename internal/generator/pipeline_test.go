package generator

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kapilwn1990/AlgoXera.Lambda.TemplateEngine/config"
	"github.com/kapilwn1990/AlgoXera.Lambda.TemplateEngine/internal/ai/llm"
	"github.com/kapilwn1990/AlgoXera.Lambda.TemplateEngine/internal/indicator"
	"github.com/kapilwn1990/AlgoXera.Lambda.TemplateEngine/internal/rules"
	"github.com/kapilwn1990/AlgoXera.Lambda.TemplateEngine/internal/template"
)

// mockCompleter returns a canned response or error and records the request.
type mockCompleter struct {
	response string
	err      error

	calls       int
	lastRequest llm.CompletionRequest
}

func (m *mockCompleter) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	m.calls++
	m.lastRequest = req
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

// emptyStore is a CatalogStore with no definitions; resolution falls back
// to the built-in table.
type emptyStore struct{}

func (emptyStore) GetAllActive(ctx context.Context) ([]indicator.Definition, error) {
	return nil, nil
}
func (emptyStore) GetByTypes(ctx context.Context, typeKeys []string) ([]indicator.Definition, error) {
	return nil, nil
}
func (emptyStore) GetByType(ctx context.Context, typeKey string) (*indicator.Definition, error) {
	return nil, errors.New("not found")
}
func (emptyStore) Upsert(ctx context.Context, def indicator.Definition) error { return nil }
func (emptyStore) Delete(ctx context.Context, typeKey string) error           { return nil }

// validStepwiseJSON carries one misplaced threshold reference (indicator1
// instead of indicator) so a run exercises the correction pass.
const validStepwiseJSON = `{
	"indicators": [
		{"id": "price", "type": "price", "label": "Price", "parameters": {}},
		{"id": "rsi_14", "type": "rsi", "label": "RSI 14", "parameters": {}}
	],
	"longEntry": [
		{"order": 1, "name": "Oversold", "conditions": [
			{"id": "c1", "kind": "below", "indicator1": "rsi_14", "value": 30}
		], "mandatory": true}
	],
	"longExit": [],
	"shortEntry": [],
	"shortExit": []
}`

func newTestPipeline(extraction, generation llm.Completer) *Pipeline {
	catalog := indicator.NewCatalog(emptyStore{}, 16, time.Minute, zerolog.Nop())
	return NewPipeline(
		indicator.NewExtractor(extraction, zerolog.Nop()),
		indicator.NewResolver(catalog, zerolog.Nop()),
		catalog,
		generation,
		config.ModelConfig{Temperature: 0.2, MaxTokens: 4096},
		zerolog.Nop(),
	)
}

func stepwiseRequest(conversation string) Request {
	return Request{
		Owner:        "user-1",
		Name:         "RSI Reversal",
		Type:         template.TypeStepwise,
		Conversation: conversation,
	}
}

func TestPipelineRunEndToEnd(t *testing.T) {
	extraction := &mockCompleter{response: `["rsi"]`}
	generation := &mockCompleter{response: "```json\n" + validStepwiseJSON + "\n```"}
	pipeline := newTestPipeline(extraction, generation)

	payload, err := pipeline.Run(context.Background(), stepwiseRequest("user: buy when rsi drops below 30"))
	require.NoError(t, err)

	var parsed rules.TemplateRules
	require.NoError(t, json.Unmarshal(payload, &parsed))

	// The misplaced reference was moved into the threshold field group.
	cond := parsed.LongEntry[0].Conditions[0]
	assert.Equal(t, "rsi_14", cond.Indicator)
	assert.Empty(t, cond.Indicator1)
	require.NoError(t, parsed.Validate())

	// Prompt composition embedded the resolved RSI snippet for generation.
	rsiDef, _ := indicator.BuiltinDefinition("rsi")
	assert.Contains(t, generation.lastRequest.Prompt, rsiDef.PromptSnippet)
	assert.Equal(t, 0.2, generation.lastRequest.Temperature)
}

func TestPipelineRejectsUnsupportedIndicatorBeforeModelCalls(t *testing.T) {
	extraction := &mockCompleter{response: `["rsi"]`}
	generation := &mockCompleter{response: validStepwiseJSON}
	pipeline := newTestPipeline(extraction, generation)

	_, err := pipeline.Run(context.Background(), stepwiseRequest("please use the ichimoku cloud"))

	var unsupported *UnsupportedIndicatorError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "ichimoku", unsupported.Requested)
	assert.Equal(t, "ema", unsupported.Alternative)
	assert.False(t, IsRetryable(err))

	// Rejected up front: no model was called.
	assert.Zero(t, extraction.calls)
	assert.Zero(t, generation.calls)
}

func TestPipelineBackendErrorIsRetryable(t *testing.T) {
	extraction := &mockCompleter{response: `["rsi"]`}
	generation := &mockCompleter{err: &llm.BackendError{Status: 529, Message: "overloaded"}}
	pipeline := newTestPipeline(extraction, generation)

	_, err := pipeline.Run(context.Background(), stepwiseRequest("rsi strategy"))

	var backendErr *llm.BackendError
	require.ErrorAs(t, err, &backendErr)
	assert.True(t, IsRetryable(err))
}

func TestPipelineMalformedOutputIsPermanent(t *testing.T) {
	extraction := &mockCompleter{response: `["rsi"]`}
	generation := &mockCompleter{response: "I cannot generate that template, sorry."}
	pipeline := newTestPipeline(extraction, generation)

	_, err := pipeline.Run(context.Background(), stepwiseRequest("rsi strategy"))

	var verr *rules.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, rules.ReasonMalformed, verr.Reason)
	assert.False(t, IsRetryable(err))
}

func TestPipelineIncompleteOutputIsPermanent(t *testing.T) {
	extraction := &mockCompleter{response: `["rsi"]`}
	generation := &mockCompleter{response: `{"indicators": [], "longEntry": []}`}
	pipeline := newTestPipeline(extraction, generation)

	_, err := pipeline.Run(context.Background(), stepwiseRequest("rsi strategy"))

	var verr *rules.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, rules.ReasonIncomplete, verr.Reason)
}

func TestPipelineDanglingReferenceFails(t *testing.T) {
	output := `{
		"indicators": [{"id": "price", "type": "price", "label": "Price", "parameters": {}}],
		"longEntry": [
			{"order": 1, "name": "Step", "conditions": [
				{"id": "c1", "kind": "above", "indicator": "rsi_14", "value": 70}
			], "mandatory": true}
		],
		"longExit": [], "shortEntry": [], "shortExit": []
	}`
	extraction := &mockCompleter{response: `["rsi"]`}
	generation := &mockCompleter{response: output}
	pipeline := newTestPipeline(extraction, generation)

	_, err := pipeline.Run(context.Background(), stepwiseRequest("rsi strategy"))

	var verr *rules.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, rules.ReasonDanglingReference, verr.Reason)
}

func TestPipelineExtractionFailureDegradesToDefaults(t *testing.T) {
	extraction := &mockCompleter{err: &llm.BackendError{Status: 500, Message: "down"}}
	generation := &mockCompleter{response: validStepwiseJSON}
	pipeline := newTestPipeline(extraction, generation)

	payload, err := pipeline.Run(context.Background(), stepwiseRequest("rsi strategy"))
	require.NoError(t, err)
	assert.NotEmpty(t, payload)

	// The default fallback set still reached the generation prompt.
	rsiDef, _ := indicator.BuiltinDefinition("rsi")
	assert.Contains(t, generation.lastRequest.Prompt, rsiDef.PromptSnippet)
}

func TestPipelineSignalVariant(t *testing.T) {
	output := `{
		"indicators": [
			{"id": "price", "type": "price", "label": "Price", "parameters": {}},
			{"id": "ema_200", "type": "ema", "label": "EMA 200", "parameters": {}}
		],
		"conditions": [
			{"id": "c1", "kind": "crossover", "indicator": "price", "indicator2": "ema_200"}
		],
		"direction": "bullish"
	}`
	extraction := &mockCompleter{response: `["ema"]`}
	generation := &mockCompleter{response: output}
	pipeline := newTestPipeline(extraction, generation)

	req := stepwiseRequest("price above the 200 ema means bullish")
	req.Type = template.TypeSignal
	req.Direction = rules.DirectionBullish

	payload, err := pipeline.Run(context.Background(), req)
	require.NoError(t, err)

	var parsed rules.SignalTemplateRules
	require.NoError(t, json.Unmarshal(payload, &parsed))
	assert.Equal(t, rules.DirectionBullish, parsed.Direction)

	// The misplaced cross reference was corrected.
	assert.Equal(t, "price", parsed.Conditions[0].Indicator1)
	assert.Empty(t, parsed.Conditions[0].Indicator)
}

func TestPipelineCancelledRunReturnsError(t *testing.T) {
	extraction := &mockCompleter{response: `["rsi"]`}
	generation := &mockCompleter{response: validStepwiseJSON}
	pipeline := newTestPipeline(extraction, generation)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pipeline.Run(ctx, stepwiseRequest("rsi strategy"))
	require.Error(t, err)
}
