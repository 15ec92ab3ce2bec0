// Package rules defines the machine-executable rule structures generated
// by the template engine, their schema validation, and the auto-correction
// pass applied to model-generated conditions.
package rules

// ConditionKind is the comparison a StepCondition performs.
type ConditionKind string

const (
	// Threshold comparisons: one indicator against a static value.
	KindAbove ConditionKind = "above"
	KindBelow ConditionKind = "below"

	// Cross comparisons: two indicators' relative order across time.
	KindCrossover  ConditionKind = "crossover"
	KindCrossunder ConditionKind = "crossunder"
)

// Direction is the bias of a signal template.
type Direction string

const (
	DirectionBullish Direction = "bullish"
	DirectionBearish Direction = "bearish"
)

// ParameterSpec describes one configurable indicator parameter. Generated
// templates carry parameter definitions rather than raw values so the user
// can reconfigure defaults after generation.
type ParameterSpec struct {
	Type     string   `json:"type"`
	Label    string   `json:"label,omitempty"`
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
	Default  any      `json:"default,omitempty"`
	Required bool     `json:"required,omitempty"`
}

// Indicator is one configured occurrence of an indicator type within a
// template. Two instances of the same type (e.g. two EMA periods) carry
// distinct ids.
type Indicator struct {
	ID         string                   `json:"id"`
	Type       string                   `json:"type"`
	Label      string                   `json:"label"`
	Parameters map[string]ParameterSpec `json:"parameters"`
}

// StepCondition is a single comparison inside a step. Exactly one of the
// two field groups is populated, determined by Kind:
//
//	above/below:          Indicator + Value; Indicator1/Indicator2 empty
//	crossover/crossunder: Indicator1 + Indicator2 (distinct); Indicator/Value empty
type StepCondition struct {
	ID         string        `json:"id"`
	Kind       ConditionKind `json:"kind"`
	Indicator  string        `json:"indicator,omitempty"`
	Value      *float64      `json:"value,omitempty"`
	Indicator1 string        `json:"indicator1,omitempty"`
	Indicator2 string        `json:"indicator2,omitempty"`
}

// StrategyStep is one sequentially-gated step of a stepwise template.
// Conditions are implicitly AND-combined. A non-mandatory step may be
// skipped without blocking progression to the next step.
type StrategyStep struct {
	Order      int             `json:"order"`
	Name       string          `json:"name"`
	Conditions []StepCondition `json:"conditions"`
	Mandatory  bool            `json:"mandatory"`
}

// TemplateRules is the stepwise rules variant: a shared indicator list and
// four ordered step lists.
type TemplateRules struct {
	Indicators []Indicator    `json:"indicators"`
	LongEntry  []StrategyStep `json:"longEntry"`
	LongExit   []StrategyStep `json:"longExit"`
	ShortEntry []StrategyStep `json:"shortEntry"`
	ShortExit  []StrategyStep `json:"shortExit"`
}

// SignalTemplateRules is the higher-timeframe variant: a flat list of
// simultaneous conditions plus a single directional bias.
type SignalTemplateRules struct {
	Indicators []Indicator     `json:"indicators"`
	Conditions []StepCondition `json:"conditions"`
	Direction  Direction       `json:"direction"`
}

// StepLists returns the four step lists with their names, in a stable
// order, for walking every condition of a stepwise template.
func (r *TemplateRules) StepLists() []struct {
	Name  string
	Steps []StrategyStep
} {
	return []struct {
		Name  string
		Steps []StrategyStep
	}{
		{"longEntry", r.LongEntry},
		{"longExit", r.LongExit},
		{"shortEntry", r.ShortEntry},
		{"shortExit", r.ShortExit},
	}
}
