package ai

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Per-field pattern ladders for manual extraction, ordered from most to least
// specific. The first matching pattern wins; the ordering is part of the
// contract and must not be reshuffled.
var (
	decisionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`"decision"\s*:\s*"([A-Za-z_]+)"`),
		regexp.MustCompile(`(?i)\bdecision\s*[:=]\s*"?([A-Za-z_]+)"?`),
		regexp.MustCompile(`\b(EXECUTE_TRADE|REJECT|HOLD|CLOSE)\b`),
	}
	confidencePatterns = []*regexp.Regexp{
		regexp.MustCompile(`"confidence"\s*:\s*"?(\d{1,3}(?:\.\d+)?)"?`),
		regexp.MustCompile(`(?i)\bconfidence(?:\s+(?:level|score))?\s*[:=]?\s*(\d{1,3}(?:\.\d+)?)\s*%?`),
		regexp.MustCompile(`(\d{1,3}(?:\.\d+)?)\s*%`),
	}
	reasoningPatterns = []*regexp.Regexp{
		regexp.MustCompile(`"reasoning"\s*:\s*"((?:[^"\\]|\\.)+)"`),
		regexp.MustCompile(`(?im)^\s*reasoning\s*[:=]\s*(.+)$`),
	}
	chartAssessmentPatterns = []*regexp.Regexp{
		regexp.MustCompile(`"chartAnalysis"\s*:\s*"((?:[^"\\]|\\.)+)"`),
		regexp.MustCompile(`(?im)^\s*chart\s*analysis\s*[:=]\s*(.+)$`),
	}
	directionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)"direction"\s*:\s*"(BUY|SELL|LONG|SHORT)"`),
		regexp.MustCompile(`(?i)\bdirection\s*[:=]\s*"?(BUY|SELL|LONG|SHORT)"?`),
	}
	stopLossPatterns = []*regexp.Regexp{
		regexp.MustCompile(`"stopLoss"\s*:\s*"?(-?\d+(?:\.\d+)?)"?`),
		regexp.MustCompile(`(?i)\bstop[\s-]?loss\s*[:=]\s*\$?(-?\d+(?:\.\d+)?)`),
	}
	takeProfitPatterns = []*regexp.Regexp{
		regexp.MustCompile(`"takeProfit"\s*:\s*"?(-?\d+(?:\.\d+)?)"?`),
		regexp.MustCompile(`(?i)\btake[\s-]?profit\s*[:=]\s*\$?(-?\d+(?:\.\d+)?)`),
	}
)

// manualExtract is the last resort: it starts from a fully populated
// safe-default record and scrapes individual fields out of the unparseable
// text, so it can never fail and never returns nil. Template placeholders are
// substituted first so scraped numbers reflect the caller's context.
func (p *Parser) manualExtract(raw string, ctx Context) *Decision {
	s := substitutePlaceholders(raw, ctx)

	dec := &Decision{
		Decision:    "REJECT",
		Confidence:  p.cfg.Parser.DefaultConfidence,
		Reasoning:   "Manual extraction fallback: structured response could not be parsed",
		TradeParams: nil,
		RiskFactors: []string{"AI response parsing failed"},
	}

	// Truncated JSON often still yields on a gjson path probe; that beats any
	// regex in specificity, so it runs first. Prose never gets probed.
	probe := ""
	if strings.HasPrefix(strings.TrimSpace(s), "{") {
		probe = s
	}

	if r := gjson.Get(probe, "decision"); r.Type == gjson.String && r.Str != "" {
		dec.Decision = strings.ToUpper(r.Str)
	} else if v, ok := firstMatch(s, decisionPatterns); ok {
		dec.Decision = strings.ToUpper(v)
	}

	if r := gjson.Get(probe, "confidence"); r.Type == gjson.Number {
		dec.Confidence = ClampConfidence(r.Num)
	} else if v, ok := firstMatch(s, confidencePatterns); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			dec.Confidence = ClampConfidence(f)
		}
	}

	if r := gjson.Get(probe, "reasoning"); r.Type == gjson.String && r.Str != "" {
		dec.Reasoning = r.Str
	} else if v, ok := firstMatch(s, reasoningPatterns); ok {
		dec.Reasoning = strings.TrimSpace(v)
	}

	if v, ok := firstMatch(s, chartAssessmentPatterns); ok {
		dec.ChartAssessment = strings.TrimSpace(v)
	}

	if dir, ok := extractDirection(probe, s); ok {
		tp := &TradeParams{Direction: dir}
		tp.StopLoss = p.scrapePrice(s, stopLossPatterns, ctx, -p.cfg.Parser.FallbackStopLossPct)
		tp.TakeProfit = p.scrapePrice(s, takeProfitPatterns, ctx, p.cfg.Parser.FallbackTakeProfitPct)
		dec.TradeParams = tp
	}

	return dec
}

func extractDirection(probe, s string) (string, bool) {
	if r := gjson.Get(probe, "tradeParams.direction"); r.Type == gjson.String && r.Str != "" {
		return normalizeDirection(r.Str), true
	}
	if v, ok := firstMatch(s, directionPatterns); ok {
		return normalizeDirection(v), true
	}
	return "", false
}

// scrapePrice pulls a stop-loss or take-profit number out of the text; when
// none is found the documented percentage offset from the current price is
// used instead.
func (p *Parser) scrapePrice(s string, patterns []*regexp.Regexp, ctx Context, pct float64) float64 {
	if v, ok := firstMatch(s, patterns); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return ClampPrice(f)
		}
	}
	return ClampPrice(fallbackPrice(ctx.CurrentPrice, pct))
}

func firstMatch(s string, patterns []*regexp.Regexp) (string, bool) {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(s); len(m) > 1 {
			return m[1], true
		}
	}
	return "", false
}
