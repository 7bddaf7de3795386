package ai

import (
	"math"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// Validators are the clamp-and-default layer: pure functions that take
// whatever the parser produced and return a value guaranteed to be inside
// its documented bound. Field-level garbage is never an error here.

const (
	defaultConfidence      = 50.0
	defaultRiskScore       = 3
	defaultTimeframe       = "M15"
	defaultRationale       = "No clear signal"
	defaultReasoningText   = "No reasoning provided"
	defaultPortfolioImpact = "Unknown impact"
)

var (
	validActions   = []string{"BUY", "SELL", "HOLD", "CLOSE"}
	validUrgencies = []string{"LOW", "MEDIUM", "HIGH"}
	validSignals   = []string{"BULLISH", "BEARISH", "NEUTRAL"}
)

// ClampConfidence bounds a confidence value to [0,100]; anything non-numeric
// becomes the default of 50.
func ClampConfidence(v any) float64 {
	f, ok := coerceNumber(v)
	if !ok {
		return defaultConfidence
	}
	return lo.Clamp(f, 0, 100)
}

// ClampRiskScore bounds a risk score to the integer range [1,5], default 3.
func ClampRiskScore(v any) int {
	f, ok := coerceNumber(v)
	if !ok {
		return defaultRiskScore
	}
	return lo.Clamp(int(f), 1, 5)
}

// ClampPrice bounds a price-like value to be non-negative, default 0.
func ClampPrice(f float64) float64 {
	if f < 0 {
		return 0
	}
	return f
}

// ClampPositionSize coerces and bounds a position size to be non-negative.
func ClampPositionSize(v any) float64 {
	f, ok := coerceNumber(v)
	if !ok {
		return 0
	}
	return ClampPrice(f)
}

// NormalizeAction maps any action-like value onto {BUY, SELL, HOLD, CLOSE},
// accepting the LONG/SHORT vocabulary, defaulting to HOLD.
func NormalizeAction(v any) string {
	action := normalizeDirection(coerceString(v))
	if lo.Contains(validActions, action) {
		return action
	}
	return "HOLD"
}

// NormalizeUrgency maps onto {LOW, MEDIUM, HIGH}, defaulting to LOW.
func NormalizeUrgency(v any) string {
	urgency := strings.ToUpper(strings.TrimSpace(coerceString(v)))
	if lo.Contains(validUrgencies, urgency) {
		return urgency
	}
	return "LOW"
}

func normalizeSignal(v any) string {
	signal := strings.ToUpper(strings.TrimSpace(coerceString(v)))
	if lo.Contains(validSignals, signal) {
		return signal
	}
	return "NEUTRAL"
}

// ValidateTradingDecision assembles the canonical record from a loose parsed
// object. Every output field is present and within bounds regardless of what
// the input map contains.
func ValidateTradingDecision(m map[string]any) TradingDecision {
	if m == nil {
		m = map[string]any{}
	}
	return TradingDecision{
		Action:                NormalizeAction(m["action"]),
		Confidence:            ClampConfidence(m["confidence"]),
		PositionSize:          ClampPositionSize(m["positionSize"]),
		PositionSizeReasoning: stringOr(m["positionSizeReasoning"], defaultReasoningText),
		StopLoss:              ClampPositionSize(m["stopLoss"]),
		StopLossReasoning:     stringOr(m["stopLossReasoning"], defaultReasoningText),
		TakeProfit:            ClampPositionSize(m["takeProfit"]),
		TakeProfitReasoning:   stringOr(m["takeProfitReasoning"], defaultReasoningText),
		Rationale:             stringOr(m["rationale"], defaultRationale),
		RiskScore:             ClampRiskScore(m["riskScore"]),
		Timeframe:             stringOr(m["timeframe"], defaultTimeframe),
		Urgency:               NormalizeUrgency(m["urgency"]),
		PortfolioImpact:       stringOr(m["portfolioImpact"], defaultPortfolioImpact),
	}
}

// ValidateChartAnalysis bounds the chart-level record: volatility in [0,100],
// momentum in [-100,100], every indicator and pattern sub-record coerced.
func ValidateChartAnalysis(m map[string]any) ChartAnalysis {
	if m == nil {
		m = map[string]any{}
	}
	out := ChartAnalysis{
		Trend:      stringOr(m["trend"], "NEUTRAL"),
		Volatility: clampNumber(m["volatility"], 0, 100, 0),
		Momentum:   clampNumber(m["momentum"], -100, 100, 0),
		Indicators: []IndicatorReading{},
		Patterns:   []ChartPattern{},
	}

	for _, item := range coerceMapSlice(m["indicators"]) {
		out.Indicators = append(out.Indicators, IndicatorReading{
			Name:   stringOr(item["name"], "unknown"),
			Value:  clampNumber(item["value"], -1e9, 1e9, 0),
			Signal: normalizeSignal(item["signal"]),
		})
	}
	for _, item := range coerceMapSlice(m["patterns"]) {
		out.Patterns = append(out.Patterns, ChartPattern{
			Name:       stringOr(item["name"], "unknown"),
			Confidence: ClampConfidence(item["confidence"]),
		})
	}
	return out
}

// ValidateStrategyAnalysis bounds a strategy record; entry and exit
// conditions are always non-nil slices.
func ValidateStrategyAnalysis(m map[string]any) StrategyAnalysis {
	if m == nil {
		m = map[string]any{}
	}
	entry := coerceStringSlice(m["entryConditions"])
	if entry == nil {
		entry = []string{}
	}
	exit := coerceStringSlice(m["exitConditions"])
	if exit == nil {
		exit = []string{}
	}
	return StrategyAnalysis{
		Name:            stringOr(m["name"], "unknown"),
		Confidence:      ClampConfidence(m["confidence"]),
		EntryConditions: entry,
		ExitConditions:  exit,
	}
}

func clampNumber(v any, min, max, def float64) float64 {
	f, ok := coerceNumber(v)
	if !ok {
		return def
	}
	return lo.Clamp(f, min, max)
}

func stringOr(v any, def string) string {
	s := strings.TrimSpace(coerceString(v))
	if s == "" {
		return def
	}
	return s
}

// coerceString extracts a string from a loosely typed JSON value.
func coerceString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	default:
		return ""
	}
}

// coerceNumber extracts a float from a loosely typed JSON value. NaN and
// infinities are rejected so they can never reach a validated record.
func coerceNumber(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return sanitizeFloat(x)
	case float32:
		return sanitizeFloat(float64(x))
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		return sanitizeFloat(f)
	default:
		return 0, false
	}
}

func sanitizeFloat(f float64) (float64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func coerceStringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := strings.TrimSpace(coerceString(item)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func coerceMapSlice(v any) []map[string]any {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}
