package ai

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	priceExprRegex   = regexp.MustCompile(`\{\s*currentPrice\s*([*+-])\s*(-?\d+(?:\.\d+)?)\s*\}`)
	priceTokenRegex  = regexp.MustCompile(`\{\s*currentPrice\s*\}`)
	symbolTokenRegex = regexp.MustCompile(`\{\s*symbol\s*\}`)

	trailingCommaRegex = regexp.MustCompile(`,\s*([}\]])`)
	unquotedKeyRegex   = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)\s*:`)
	repeatedCommaRegex = regexp.MustCompile(`,(\s*,)+`)
	pyLiteralRegex     = regexp.MustCompile(`\b(undefined|None|True|False)\b`)

	lineCommentRegex   = regexp.MustCompile(`(?m)//[^\n]*`)
	blockCommentRegex  = regexp.MustCompile(`(?s)/\*.*?\*/`)
	missingCommaRegex  = regexp.MustCompile(`"(\s*\n\s*)"`)
	braceSpacingRegex  = regexp.MustCompile(`\{\s+|\s+\}`)
	adjacentValueRegex = regexp.MustCompile(`(\d|true|false|null)(\s*\n\s*)"`)
)

var pyLiteralReplacements = map[string]string{
	"undefined": "null",
	"None":      "null",
	"True":      "true",
	"False":     "false",
}

// repairAIResponse is the first, conservative repair pass: the ordered set of
// deterministic fixes for malformations generative models produce most often.
// It is applied before every parse attempt.
func (p *Parser) repairAIResponse(s string, ctx Context) string {
	s = p.collapseDoubledBraces(s)
	s = substitutePlaceholders(s, ctx)
	s = trailingCommaRegex.ReplaceAllString(s, "$1")
	s = unquotedKeyRegex.ReplaceAllString(s, `$1"$2":`)
	s = repeatedCommaRegex.ReplaceAllString(s, ",")
	s = pyLiteralRegex.ReplaceAllStringFunc(s, func(m string) string {
		return pyLiteralReplacements[m]
	})
	return s
}

// aggressiveRepair is the second pass, used only after the conservative pass
// still failed to produce parseable JSON. Its rewrites are lossy for
// legitimate content (single quotes inside strings, slashes in URLs), which
// is why it runs last.
func (p *Parser) aggressiveRepair(s string, ctx Context) string {
	s = strings.ReplaceAll(s, "'", `"`)
	s = blockCommentRegex.ReplaceAllString(s, "")
	s = lineCommentRegex.ReplaceAllString(s, "")
	s = missingCommaRegex.ReplaceAllString(s, `",$1"`)
	s = adjacentValueRegex.ReplaceAllString(s, `$1,$2"`)
	s = braceSpacingRegex.ReplaceAllStringFunc(s, func(m string) string {
		return strings.TrimSpace(m)
	})
	return p.repairAIResponse(s, ctx)
}

// substitutePlaceholders replaces the template tokens the model was prompted
// with but failed to render: {symbol}, {currentPrice}, and single binary
// arithmetic on the price like {currentPrice * 0.995}. Anything more complex
// is left alone for the normalizer's fallback handling.
func substitutePlaceholders(s string, ctx Context) string {
	if ctx.Symbol != "" {
		s = symbolTokenRegex.ReplaceAllString(s, ctx.Symbol)
	}
	if ctx.CurrentPrice == 0 {
		return s
	}

	s = priceExprRegex.ReplaceAllStringFunc(s, func(m string) string {
		sub := priceExprRegex.FindStringSubmatch(m)
		if v, ok := evalPriceExpr(sub[1], sub[2], ctx.CurrentPrice); ok {
			return formatNumber(v)
		}
		return m
	})
	return priceTokenRegex.ReplaceAllString(s, formatNumber(ctx.CurrentPrice))
}

// evalPriceExpr computes currentPrice <op> operand for op in {*, +, -}.
// Decimal arithmetic keeps results like 100 * 0.995 exact instead of
// 99.50000000000001.
func evalPriceExpr(op, operand string, price float64) (float64, bool) {
	rhs, err := decimal.NewFromString(operand)
	if err != nil {
		return 0, false
	}
	lhs := decimal.NewFromFloat(price)

	var out decimal.Decimal
	switch op {
	case "*":
		out = lhs.Mul(rhs)
	case "+":
		out = lhs.Add(rhs)
	case "-":
		out = lhs.Sub(rhs)
	default:
		return 0, false
	}
	return out.InexactFloat64(), true
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
