package rules

import (
	"encoding/json"
	"fmt"
)

// Validation failure reasons. The reason names are part of the error
// surface: queue consumers persist them as the template's failure message.
const (
	ReasonMalformed         = "malformed output"
	ReasonIncomplete        = "incomplete template"
	ReasonDanglingReference = "dangling reference"
)

// ValidationError is a permanent (non-retryable) schema failure.
type ValidationError struct {
	Reason string
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Detail)
}

func malformed(detail string) *ValidationError {
	return &ValidationError{Reason: ReasonMalformed, Detail: detail}
}

func incomplete(detail string) *ValidationError {
	return &ValidationError{Reason: ReasonIncomplete, Detail: detail}
}

func dangling(detail string) *ValidationError {
	return &ValidationError{Reason: ReasonDanglingReference, Detail: detail}
}

// templateRulesWire mirrors TemplateRules with pointer-typed lists so a
// missing top-level key can be told apart from a present-but-empty one.
type templateRulesWire struct {
	Indicators *[]Indicator    `json:"indicators"`
	LongEntry  *[]StrategyStep `json:"longEntry"`
	LongExit   *[]StrategyStep `json:"longExit"`
	ShortEntry *[]StrategyStep `json:"shortEntry"`
	ShortExit  *[]StrategyStep `json:"shortExit"`
}

type signalRulesWire struct {
	Indicators *[]Indicator     `json:"indicators"`
	Conditions *[]StepCondition `json:"conditions"`
	Direction  Direction        `json:"direction"`
}

// ParseTemplateRules parses sanitized model output into a stepwise rule
// structure. Parsing is strict: invalid JSON and missing top-level fields
// fail; no repair is attempted here.
func ParseTemplateRules(text string) (*TemplateRules, error) {
	var wire templateRulesWire
	if err := json.Unmarshal([]byte(text), &wire); err != nil {
		return nil, malformed(err.Error())
	}

	if wire.Indicators == nil {
		return nil, incomplete("missing indicators list")
	}
	for name, list := range map[string]*[]StrategyStep{
		"longEntry":  wire.LongEntry,
		"longExit":   wire.LongExit,
		"shortEntry": wire.ShortEntry,
		"shortExit":  wire.ShortExit,
	} {
		if list == nil {
			return nil, incomplete(fmt.Sprintf("missing step list %q", name))
		}
	}

	return &TemplateRules{
		Indicators: *wire.Indicators,
		LongEntry:  *wire.LongEntry,
		LongExit:   *wire.LongExit,
		ShortEntry: *wire.ShortEntry,
		ShortExit:  *wire.ShortExit,
	}, nil
}

// ParseSignalRules parses sanitized model output into a signal rule
// structure.
func ParseSignalRules(text string) (*SignalTemplateRules, error) {
	var wire signalRulesWire
	if err := json.Unmarshal([]byte(text), &wire); err != nil {
		return nil, malformed(err.Error())
	}

	if wire.Indicators == nil {
		return nil, incomplete("missing indicators list")
	}
	if wire.Conditions == nil {
		return nil, incomplete("missing conditions list")
	}
	if wire.Direction != DirectionBullish && wire.Direction != DirectionBearish {
		return nil, incomplete(fmt.Sprintf("direction must be bullish or bearish, got %q", wire.Direction))
	}

	return &SignalTemplateRules{
		Indicators: *wire.Indicators,
		Conditions: *wire.Conditions,
		Direction:  wire.Direction,
	}, nil
}

// Validate checks the structural invariants of a stepwise template:
// unique indicator ids, dense 1-based step ordering, and per-condition
// grammar including referential integrity against the indicator list.
func (r *TemplateRules) Validate() error {
	ids, err := validateIndicators(r.Indicators)
	if err != nil {
		return err
	}

	for _, list := range r.StepLists() {
		for i, step := range list.Steps {
			if step.Order != i+1 {
				return incomplete(fmt.Sprintf("%s step %d has order %d, want %d", list.Name, i, step.Order, i+1))
			}
			if len(step.Conditions) == 0 {
				return incomplete(fmt.Sprintf("%s step %q has no conditions", list.Name, step.Name))
			}
			for _, cond := range step.Conditions {
				if err := validateCondition(cond, ids); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

// Validate checks the structural invariants of a signal template.
func (r *SignalTemplateRules) Validate() error {
	ids, err := validateIndicators(r.Indicators)
	if err != nil {
		return err
	}

	if r.Direction != DirectionBullish && r.Direction != DirectionBearish {
		return incomplete(fmt.Sprintf("direction must be bullish or bearish, got %q", r.Direction))
	}
	if len(r.Conditions) == 0 {
		return incomplete("signal template has no conditions")
	}
	for _, cond := range r.Conditions {
		if err := validateCondition(cond, ids); err != nil {
			return err
		}
	}

	return nil
}

func validateIndicators(indicators []Indicator) (map[string]bool, error) {
	if len(indicators) == 0 {
		return nil, incomplete("indicator list is empty")
	}

	ids := make(map[string]bool, len(indicators))
	for _, ind := range indicators {
		if ind.ID == "" {
			return nil, incomplete(fmt.Sprintf("indicator of type %q has no id", ind.Type))
		}
		if ind.Type == "" {
			return nil, incomplete(fmt.Sprintf("indicator %q has no type", ind.ID))
		}
		if ids[ind.ID] {
			return nil, incomplete(fmt.Sprintf("duplicate indicator id %q", ind.ID))
		}
		ids[ind.ID] = true
	}
	return ids, nil
}

func validateCondition(cond StepCondition, ids map[string]bool) error {
	switch cond.Kind {
	case KindAbove, KindBelow:
		if cond.Indicator == "" {
			return incomplete(fmt.Sprintf("condition %q (%s) has no indicator reference", cond.ID, cond.Kind))
		}
		if cond.Value == nil {
			return incomplete(fmt.Sprintf("condition %q (%s) has no threshold value", cond.ID, cond.Kind))
		}
		if cond.Indicator1 != "" || cond.Indicator2 != "" {
			return incomplete(fmt.Sprintf("condition %q (%s) must not set indicator1/indicator2", cond.ID, cond.Kind))
		}
		if !ids[cond.Indicator] {
			return dangling(fmt.Sprintf("condition %q references unknown indicator %q", cond.ID, cond.Indicator))
		}

	case KindCrossover, KindCrossunder:
		if cond.Indicator1 == "" || cond.Indicator2 == "" {
			return incomplete(fmt.Sprintf("condition %q (%s) requires both indicator1 and indicator2", cond.ID, cond.Kind))
		}
		if cond.Indicator != "" || cond.Value != nil {
			return incomplete(fmt.Sprintf("condition %q (%s) must not set indicator/value", cond.ID, cond.Kind))
		}
		if cond.Indicator1 == cond.Indicator2 {
			return dangling(fmt.Sprintf("condition %q crosses indicator %q with itself", cond.ID, cond.Indicator1))
		}
		if !ids[cond.Indicator1] {
			return dangling(fmt.Sprintf("condition %q references unknown indicator %q", cond.ID, cond.Indicator1))
		}
		if !ids[cond.Indicator2] {
			return dangling(fmt.Sprintf("condition %q references unknown indicator %q", cond.ID, cond.Indicator2))
		}

	default:
		return incomplete(fmt.Sprintf("condition %q has unknown kind %q", cond.ID, cond.Kind))
	}

	return nil
}
