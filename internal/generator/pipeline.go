// Package generator orchestrates the template generation pipeline:
// extract indicators, resolve definitions, compose the prompt, generate,
// then sanitize, correct, and validate the output.
package generator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/kapilwn1990/AlgoXera.Lambda.TemplateEngine/config"
	"github.com/kapilwn1990/AlgoXera.Lambda.TemplateEngine/internal/ai/llm"
	"github.com/kapilwn1990/AlgoXera.Lambda.TemplateEngine/internal/indicator"
	"github.com/kapilwn1990/AlgoXera.Lambda.TemplateEngine/internal/rules"
	"github.com/kapilwn1990/AlgoXera.Lambda.TemplateEngine/internal/template"
)

// state names the pipeline stages for logging. Transitions are one-shot;
// there is no retry loop across states. A caller wanting retry restarts
// the whole pipeline from extraction with the same input.
type state string

const (
	stateExtracting state = "extracting"
	stateResolving  state = "resolving"
	stateComposing  state = "composing"
	stateGenerating state = "generating"
	stateSanitizing state = "sanitizing"
	stateValidating state = "validating"
	stateCorrecting state = "correcting"
)

// Request is one generation request. Conversation is the flattened
// conversation text.
type Request struct {
	Owner        string
	Name         string
	Description  string
	Category     string
	Type         template.Type
	Direction    rules.Direction
	Timeframe    string
	Conversation string
}

// Pipeline runs one generation request sequentially; steps of a single
// request never run concurrently with each other. Distinct requests may
// run concurrently: the only shared state is the catalog cache, which is
// read-only from the pipeline's perspective.
type Pipeline struct {
	extractor *indicator.Extractor
	resolver  *indicator.Resolver
	catalog   *indicator.Catalog
	generator llm.Completer
	genCfg    config.ModelConfig
	logger    zerolog.Logger
}

// NewPipeline wires the pipeline stages. generator is the generation-tier
// completer; the extraction tier lives inside the extractor.
func NewPipeline(
	extractor *indicator.Extractor,
	resolver *indicator.Resolver,
	catalog *indicator.Catalog,
	generator llm.Completer,
	genCfg config.ModelConfig,
	logger zerolog.Logger,
) *Pipeline {
	return &Pipeline{
		extractor: extractor,
		resolver:  resolver,
		catalog:   catalog,
		generator: generator,
		genCfg:    genCfg,
		logger:    logger.With().Str("component", "GenerationPipeline").Logger(),
	}
}

// Run executes the pipeline and returns the validated, corrected rules
// payload, serialized exactly as it should be persisted. It never writes
// to storage; persistence is the caller's job so that a cancelled or
// failed run can never leave a partial template active.
func (p *Pipeline) Run(ctx context.Context, req Request) (json.RawMessage, error) {
	logger := p.logger.With().Str("template", req.Name).Str("owner", req.Owner).Logger()

	// Unsupported indicators are rejected before any model call.
	if unsupported, ok := indicator.DetectUnsupported(req.Conversation); ok {
		return nil, &UnsupportedIndicatorError{
			Requested:   unsupported.Requested,
			Alternative: unsupported.Alternative,
		}
	}

	// Extracting. Failure degrades to the default set inside the
	// extractor; it never aborts the run.
	logger.Debug().Str("state", string(stateExtracting)).Msg("pipeline state")
	allowed := p.catalog.ActiveTypes(ctx)
	typeKeys := p.extractor.Extract(ctx, req.Conversation, allowed)

	// Resolving.
	logger.Debug().Str("state", string(stateResolving)).Msg("pipeline state")
	defs, err := p.resolver.Resolve(ctx, typeKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve indicators: %w", err)
	}
	if len(defs) == 0 {
		return nil, &rules.ValidationError{Reason: rules.ReasonIncomplete, Detail: "no resolvable indicators"}
	}

	// Composing.
	logger.Debug().Str("state", string(stateComposing)).Int("indicators", len(defs)).Msg("pipeline state")
	system, prompt := ComposePrompt(ComposeInput{
		Name:         req.Name,
		Description:  req.Description,
		Category:     req.Category,
		Type:         req.Type,
		Direction:    req.Direction,
		Timeframe:    req.Timeframe,
		Definitions:  defs,
		Conversation: req.Conversation,
	})

	// Generating. The timeout lives on the completer's HTTP client; the
	// caller's context can cancel sooner.
	logger.Debug().Str("state", string(stateGenerating)).Msg("pipeline state")
	raw, err := p.generator.Complete(ctx, llm.CompletionRequest{
		System:      system,
		Prompt:      prompt,
		Temperature: p.genCfg.Temperature,
		MaxTokens:   p.genCfg.MaxTokens,
	})
	if err != nil {
		return nil, err
	}

	// Sanitizing.
	logger.Debug().Str("state", string(stateSanitizing)).Msg("pipeline state")
	text := llm.SanitizeJSON(raw)

	// Validating and correcting, per variant.
	payload, err := p.validateAndCorrect(req.Type, text, logger)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, &llm.BackendError{Message: fmt.Sprintf("request cancelled: %v", err)}
	}

	return payload, nil
}

func (p *Pipeline) validateAndCorrect(templateType template.Type, text string, logger zerolog.Logger) (json.RawMessage, error) {
	logger.Debug().Str("state", string(stateValidating)).Msg("pipeline state")

	switch templateType {
	case template.TypeSignal:
		parsed, err := rules.ParseSignalRules(text)
		if err != nil {
			return nil, err
		}

		logger.Debug().Str("state", string(stateCorrecting)).Msg("pipeline state")
		if fixed := parsed.Correct(); fixed > 0 {
			logger.Info().Int("conditions", fixed).Msg("auto-corrected misplaced condition fields")
		}
		if err := parsed.Validate(); err != nil {
			return nil, err
		}
		return json.Marshal(parsed)

	default:
		parsed, err := rules.ParseTemplateRules(text)
		if err != nil {
			return nil, err
		}

		logger.Debug().Str("state", string(stateCorrecting)).Msg("pipeline state")
		if fixed := parsed.Correct(); fixed > 0 {
			logger.Info().Int("conditions", fixed).Msg("auto-corrected misplaced condition fields")
		}
		if err := parsed.Validate(); err != nil {
			return nil, err
		}
		return json.Marshal(parsed)
	}
}
