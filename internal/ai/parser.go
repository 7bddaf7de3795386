package ai

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	json "github.com/bytedance/sonic"
	"github.com/kaptinlin/jsonrepair"
	"github.com/shopspring/decimal"

	"github.com/devstudio-infra/trade-tracker/internal/config"
	"github.com/devstudio-infra/trade-tracker/internal/logger"
)

// Internal failure taxonomy. None of these ever escape ParseWithFallback;
// they only select the manual-extraction path.
var (
	ErrEmptyInput  = errors.New("empty model response")
	ErrNoJSONFound = errors.New("no JSON object found in model response")
	ErrUnparseable = errors.New("all parse strategies failed")
	ErrIncomplete  = errors.New("parsed object is missing required fields")
)

// Parser turns raw model output into validated decision records. It holds no
// mutable state, so one instance is safe for concurrent use.
type Parser struct {
	cfg *config.Config
	log *logger.Logger
}

func NewParser(cfg *config.Config, log *logger.Logger) *Parser {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Parser{cfg: cfg, log: log}
}

// ParseWithFallback is the public entry point. For any input string and
// context it returns a structurally complete, range-valid decision; it never
// returns nil and never panics. Failures anywhere in the structured pipeline
// route to the manual regex extractor, which always succeeds.
func (p *Parser) ParseWithFallback(raw string, ctx Context) *Decision {
	dec, err := p.parse(raw, ctx)
	if err != nil {
		p.log.Warn("structured parse failed, using manual extraction", "error", err)
		return p.manualExtract(raw, ctx)
	}
	return dec
}

// ParseTradingDecision runs the pipeline and maps the result into the
// canonical bounded record the order-placement layer consumes.
func (p *Parser) ParseTradingDecision(raw string, ctx Context) TradingDecision {
	dec := p.ParseWithFallback(raw, ctx)

	m := map[string]any{
		"confidence": dec.Confidence,
		"rationale":  dec.Reasoning,
		"timeframe":  p.cfg.Parser.DefaultTimeframe,
	}
	if tp := dec.TradeParams; tp != nil {
		m["action"] = tp.Direction
		m["stopLoss"] = tp.StopLoss
		m["takeProfit"] = tp.TakeProfit
		m["positionSize"] = tp.PositionSize
	}
	if strings.EqualFold(dec.Decision, "CLOSE") {
		m["action"] = "CLOSE"
	}
	return ValidateTradingDecision(m)
}

func (p *Parser) parse(raw string, ctx Context) (*Decision, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrEmptyInput
	}

	// Fast path: a clean, well-formed response needs no repair at all. This
	// also keeps the brace collapse in cleanResponse away from valid nested
	// JSON, whose closing "}}" it would otherwise mangle.
	direct := strings.TrimSpace(fenceRegex.ReplaceAllString(raw, ""))
	if obj, err := strictParse(direct); err == nil {
		return p.normalizeDecision(obj, ctx)
	}

	cleaned := p.cleanResponse(raw)
	candidate, err := extractJSONObject(cleaned)
	if err != nil {
		return nil, err
	}

	obj, err := p.parseCascade(candidate, ctx)
	if err != nil {
		return nil, err
	}
	return p.normalizeDecision(obj, ctx)
}

type parseStrategy struct {
	name string
	fn   func() (map[string]any, error)
}

// parseCascade tries the parse strategies in a fixed order and short-circuits
// on the first success: strict parse of the conservatively repaired
// candidate, jsonrepair on the same candidate, then both again after the
// aggressive repair pass.
func (p *Parser) parseCascade(candidate string, ctx Context) (map[string]any, error) {
	repaired := p.repairAIResponse(candidate, ctx)

	var aggressive string
	aggr := func() string {
		if aggressive == "" {
			aggressive = p.aggressiveRepair(repaired, ctx)
		}
		return aggressive
	}

	strategies := []parseStrategy{
		{"strict", func() (map[string]any, error) { return strictParse(repaired) }},
		{"jsonrepair", func() (map[string]any, error) { return lenientParse(repaired) }},
		{"aggressive+strict", func() (map[string]any, error) { return strictParse(aggr()) }},
		{"aggressive+jsonrepair", func() (map[string]any, error) { return lenientParse(aggr()) }},
	}

	var lastErr error
	for _, st := range strategies {
		obj, err := st.fn()
		if err == nil {
			p.log.Debug("parse strategy succeeded", "strategy", st.name)
			return obj, nil
		}
		p.log.Debug("parse strategy failed", "strategy", st.name, "error", err)
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %v", ErrUnparseable, lastErr)
}

func strictParse(s string) (map[string]any, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, errors.New("candidate parsed to null")
	}
	return obj, nil
}

func lenientParse(s string) (map[string]any, error) {
	repaired, err := jsonrepair.JSONRepair(s)
	if err != nil {
		return nil, fmt.Errorf("repair JSON: %w", err)
	}
	return strictParse(repaired)
}

// normalizeDecision maps a successfully parsed object into a Decision. A
// missing decision field or non-numeric confidence counts as a parse failure
// so the caller falls through to manual extraction instead of returning a
// partial record.
func (p *Parser) normalizeDecision(obj map[string]any, ctx Context) (*Decision, error) {
	decisionStr := coerceString(obj["decision"])
	if decisionStr == "" {
		return nil, fmt.Errorf("%w: decision", ErrIncomplete)
	}
	conf, ok := coerceNumber(obj["confidence"])
	if !ok {
		return nil, fmt.Errorf("%w: confidence", ErrIncomplete)
	}

	dec := &Decision{
		Decision:        strings.ToUpper(strings.TrimSpace(decisionStr)),
		Confidence:      ClampConfidence(conf),
		Reasoning:       coerceString(obj["reasoning"]),
		RiskFactors:     coerceStringSlice(obj["riskFactors"]),
		ChartAssessment: coerceString(obj["chartAnalysis"]),
	}

	if tp, ok := obj["tradeParams"].(map[string]any); ok {
		dec.TradeParams = p.normalizeTradeParams(tp, ctx)
	}
	return dec, nil
}

func (p *Parser) normalizeTradeParams(tp map[string]any, ctx Context) *TradeParams {
	return &TradeParams{
		Direction:    normalizeDirection(coerceString(tp["direction"])),
		StopLoss:     p.normalizePriceField(tp["stopLoss"], ctx, -p.cfg.Parser.FallbackStopLossPct),
		TakeProfit:   p.normalizePriceField(tp["takeProfit"], ctx, p.cfg.Parser.FallbackTakeProfitPct),
		PositionSize: ClampPositionSize(tp["positionSize"]),
	}
}

// normalizeDirection maps the model's LONG/SHORT vocabulary onto BUY/SELL.
func normalizeDirection(dir string) string {
	switch strings.ToUpper(strings.TrimSpace(dir)) {
	case "LONG", "BUY":
		return "BUY"
	case "SHORT", "SELL":
		return "SELL"
	default:
		return strings.ToUpper(strings.TrimSpace(dir))
	}
}

// normalizePriceField resolves a stop-loss or take-profit value that may be a
// number, a numeric string, or an unevaluated "{currentPrice * x}" template.
// pct is the signed fallback offset from the current price used when a
// template cannot be evaluated.
func (p *Parser) normalizePriceField(v any, ctx Context, pct float64) float64 {
	if s, isStr := v.(string); isStr {
		s = strings.TrimSpace(s)
		if strings.Contains(s, "currentPrice") {
			if sub := priceExprRegex.FindStringSubmatch(s); sub != nil && ctx.CurrentPrice != 0 {
				if out, ok := evalPriceExpr(sub[1], sub[2], ctx.CurrentPrice); ok {
					return ClampPrice(out)
				}
			}
			return ClampPrice(fallbackPrice(ctx.CurrentPrice, pct))
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return ClampPrice(f)
		}
		return 0
	}

	f, ok := coerceNumber(v)
	if !ok {
		return 0
	}
	return ClampPrice(f)
}

// fallbackPrice computes price adjusted by pct percent, in decimal so the
// result stays exact (100 at -0.5% is 99.5, not 99.49999...).
func fallbackPrice(price, pct float64) float64 {
	if price == 0 {
		return 0
	}
	adj := decimal.NewFromFloat(pct).Div(decimal.NewFromInt(100))
	return decimal.NewFromFloat(price).
		Mul(decimal.NewFromInt(1).Add(adj)).
		InexactFloat64()
}
