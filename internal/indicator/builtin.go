package indicator

import (
	"regexp"
	"sort"

	"github.com/kapilwn1990/AlgoXera.Lambda.TemplateEngine/internal/rules"
)

func fp(v float64) *float64 { return &v }

// builtinDefinitions is the hard-coded fallback table covering the common
// indicator set. The resolver substitutes from it for any type key the
// catalog cannot serve, so the pipeline never blocks on an empty catalog
// (e.g. a cold deployment).
var builtinDefinitions = map[string]Definition{
	TypePrice: {
		Type:        TypePrice,
		DisplayName: "Price",
		Category:    "price",
		ParameterSchema: map[string]rules.ParameterSpec{
			"source": {Type: "string", Label: "Price Source", Default: "close", Required: true},
		},
		PromptSnippet: "price: the current market price of the instrument. Use the \"source\" parameter " +
			"(open/high/low/close) to select which price is compared. Reference this indicator in " +
			"crossover conditions against moving averages or bands.",
		Aliases:   []string{"close", "market price", "current price"},
		Keywords:  []string{"price", "close", "candle"},
		Active:    true,
		SortOrder: 0,
	},
	"rsi": {
		Type:        "rsi",
		DisplayName: "Relative Strength Index",
		Category:    "momentum",
		ParameterSchema: map[string]rules.ParameterSpec{
			"period": {Type: "int", Label: "Period", Min: fp(2), Max: fp(100), Default: float64(14), Required: true},
		},
		PromptSnippet: "rsi: momentum oscillator bounded 0-100. Typical usage: above/below conditions against " +
			"thresholds such as 30 (oversold) and 70 (overbought). The \"period\" parameter controls the lookback.",
		Aliases:   []string{"relative strength index", "relative strength"},
		Keywords:  []string{"rsi", "oversold", "overbought"},
		Active:    true,
		SortOrder: 10,
	},
	"ema": {
		Type:        "ema",
		DisplayName: "Exponential Moving Average",
		Category:    "trend",
		ParameterSchema: map[string]rules.ParameterSpec{
			"period": {Type: "int", Label: "Period", Min: fp(2), Max: fp(500), Default: float64(20), Required: true},
			"source": {Type: "string", Label: "Source", Default: "close"},
		},
		PromptSnippet: "ema: exponential moving average. Typical usage: crossover/crossunder conditions between " +
			"two ema instances with different periods (e.g. 20 and 50), or between price and one ema instance. " +
			"Declare one instance per period.",
		Aliases:   []string{"exponential moving average"},
		Keywords:  []string{"ema", "moving average", "golden cross"},
		Active:    true,
		SortOrder: 20,
	},
	"sma": {
		Type:        "sma",
		DisplayName: "Simple Moving Average",
		Category:    "trend",
		ParameterSchema: map[string]rules.ParameterSpec{
			"period": {Type: "int", Label: "Period", Min: fp(2), Max: fp(500), Default: float64(50), Required: true},
			"source": {Type: "string", Label: "Source", Default: "close"},
		},
		PromptSnippet: "sma: simple moving average. Same usage pattern as ema: cross conditions between two " +
			"instances with different periods, or between price and one instance.",
		Aliases:   []string{"simple moving average"},
		Keywords:  []string{"sma", "moving average"},
		Active:    true,
		SortOrder: 30,
	},
	"macd": {
		Type:        "macd",
		DisplayName: "MACD",
		Category:    "momentum",
		ParameterSchema: map[string]rules.ParameterSpec{
			"fastPeriod":   {Type: "int", Label: "Fast Period", Min: fp(2), Max: fp(100), Default: float64(12), Required: true},
			"slowPeriod":   {Type: "int", Label: "Slow Period", Min: fp(2), Max: fp(200), Default: float64(26), Required: true},
			"signalPeriod": {Type: "int", Label: "Signal Period", Min: fp(2), Max: fp(100), Default: float64(9), Required: true},
			"component":    {Type: "string", Label: "Component", Default: "macd"},
		},
		PromptSnippet: "macd: moving average convergence/divergence. IMPORTANT: a MACD signal-line cross needs " +
			"TWO separate macd instances with matching fast/slow/signal periods, one with component \"macd\" and " +
			"one with component \"signal\", referenced as indicator1 and indicator2 of a crossover condition. " +
			"A single macd instance can only be used in above/below conditions against a numeric threshold " +
			"(commonly 0).",
		Aliases:   []string{"moving average convergence divergence", "macd line"},
		Keywords:  []string{"macd", "signal line", "histogram"},
		Active:    true,
		SortOrder: 40,
	},
	"bollinger": {
		Type:        "bollinger",
		DisplayName: "Bollinger Bands",
		Category:    "volatility",
		ParameterSchema: map[string]rules.ParameterSpec{
			"period": {Type: "int", Label: "Period", Min: fp(2), Max: fp(200), Default: float64(20), Required: true},
			"stdDev": {Type: "float", Label: "Std Dev", Min: fp(0.5), Max: fp(5), Default: float64(2), Required: true},
			"band":   {Type: "string", Label: "Band", Default: "upper"},
		},
		PromptSnippet: "bollinger: Bollinger band line selected by the \"band\" parameter (upper/middle/lower). " +
			"Declare one instance per band used. Typical usage: crossover between price and a band instance.",
		Aliases:   []string{"bollinger bands", "bbands"},
		Keywords:  []string{"bollinger", "band", "squeeze"},
		Active:    true,
		SortOrder: 50,
	},
	"volume": {
		Type:        "volume",
		DisplayName: "Volume",
		Category:    "volume",
		ParameterSchema: map[string]rules.ParameterSpec{
			"smoothing": {Type: "int", Label: "Smoothing Period", Min: fp(1), Max: fp(100), Default: float64(1)},
		},
		PromptSnippet: "volume: traded volume per candle, optionally smoothed. Typical usage: above conditions " +
			"against an absolute threshold, or crossover against a volume sma instance.",
		Aliases:   []string{"trading volume"},
		Keywords:  []string{"volume", "vol"},
		Active:    true,
		SortOrder: 60,
	},
	"stochastic": {
		Type:        "stochastic",
		DisplayName: "Stochastic Oscillator",
		Category:    "momentum",
		ParameterSchema: map[string]rules.ParameterSpec{
			"kPeriod": {Type: "int", Label: "%K Period", Min: fp(1), Max: fp(100), Default: float64(14), Required: true},
			"dPeriod": {Type: "int", Label: "%D Period", Min: fp(1), Max: fp(100), Default: float64(3), Required: true},
			"line":    {Type: "string", Label: "Line", Default: "k"},
		},
		PromptSnippet: "stochastic: stochastic oscillator bounded 0-100, line selected by the \"line\" parameter " +
			"(k/d). Like macd, a %K/%D cross needs two instances with matching periods and different lines. " +
			"Threshold usage: above 80 / below 20.",
		Aliases:   []string{"stochastic oscillator", "stoch"},
		Keywords:  []string{"stochastic", "%k", "%d"},
		Active:    true,
		SortOrder: 70,
	},
	"atr": {
		Type:        "atr",
		DisplayName: "Average True Range",
		Category:    "volatility",
		ParameterSchema: map[string]rules.ParameterSpec{
			"period": {Type: "int", Label: "Period", Min: fp(1), Max: fp(100), Default: float64(14), Required: true},
		},
		PromptSnippet: "atr: average true range, an absolute volatility measure. Typical usage: above/below " +
			"conditions against an absolute threshold.",
		Aliases:   []string{"average true range"},
		Keywords:  []string{"atr", "volatility"},
		Active:    true,
		SortOrder: 80,
	},
	"adx": {
		Type:        "adx",
		DisplayName: "Average Directional Index",
		Category:    "trend",
		ParameterSchema: map[string]rules.ParameterSpec{
			"period": {Type: "int", Label: "Period", Min: fp(1), Max: fp(100), Default: float64(14), Required: true},
		},
		PromptSnippet: "adx: trend strength bounded 0-100 (direction-agnostic). Typical usage: above conditions " +
			"against a threshold such as 25 to gate trend-following steps.",
		Aliases:   []string{"average directional index", "directional movement"},
		Keywords:  []string{"adx", "trend strength"},
		Active:    true,
		SortOrder: 90,
	},
}

// BuiltinDefinition returns the fallback definition for a type key.
func BuiltinDefinition(typeKey string) (Definition, bool) {
	def, ok := builtinDefinitions[typeKey]
	return def, ok
}

// BuiltinTypes returns the fallback table's type keys in sort order.
func BuiltinTypes() []string {
	keys := make([]string, 0, len(builtinDefinitions))
	for k := range builtinDefinitions {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return builtinDefinitions[keys[i]].SortOrder < builtinDefinitions[keys[j]].SortOrder
	})
	return keys
}

// unsupportedAlternatives maps recognizable but unsupported indicator
// names to the closest supported type. Used for the structured rejection
// when a conversation asks for something outside the supported set.
var unsupportedAlternatives = map[string]string{
	"ichimoku":          "ema",
	"supertrend":        "atr",
	"vwap":              "sma",
	"obv":               "volume",
	"on-balance volume": "volume",
	"cci":               "rsi",
	"williams %r":       "stochastic",
	"parabolic sar":     "ema",
	"keltner":           "bollinger",
	"pivot points":      TypePrice,
	"fibonacci":         TypePrice,
}

type unsupportedPattern struct {
	name        string
	alternative string
	re          *regexp.Regexp
}

// unsupportedPatterns matches each unsupported name only as a whole word,
// so short keys like "cci" never fire inside ordinary words ("succinct",
// "accident", "fibonacci"). Sorted by name so the first match is the same
// on every run.
var unsupportedPatterns = buildUnsupportedPatterns()

func buildUnsupportedPatterns() []unsupportedPattern {
	names := make([]string, 0, len(unsupportedAlternatives))
	for name := range unsupportedAlternatives {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]unsupportedPattern, 0, len(names))
	for _, name := range names {
		out = append(out, unsupportedPattern{
			name:        name,
			alternative: unsupportedAlternatives[name],
			re:          regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`),
		})
	}
	return out
}
