package ai

import (
	"regexp"
	"strings"
)

var (
	fenceRegex = regexp.MustCompile("```(?:json|JSON)?")

	// Fallback ladder for extractJSONObject, in decreasing strictness.
	flatObjectRegex    = regexp.MustCompile(`\{[^{}]*\}`)
	decisionKeyRegex   = regexp.MustCompile(`(?s)\{[^{}]*"decision".*\}`)
	genericObjectRegex = regexp.MustCompile(`(?s)\{\s*"?[A-Za-z_][A-Za-z0-9_]*"?\s*:.*\}`)
)

// cleanResponse strips the wrapper noise generative models put around JSON:
// markdown code fences, doubled braces from template rendering, and prose
// before the first brace or after the last one. It never fails; input with no
// braces at all passes through trimmed and is rejected downstream.
func (p *Parser) cleanResponse(raw string) string {
	s := fenceRegex.ReplaceAllString(raw, "")
	s = strings.TrimSpace(s)

	s = p.collapseDoubledBraces(s)

	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start >= 0 && end > start {
		s = s[start : end+1]
	}
	return strings.TrimSpace(s)
}

// collapseDoubledBraces rewrites {{ to { and }} to } until a fixed point.
// The iteration cap guards against pathological inputs like a megabyte of
// braces; cap exhaustion just returns the partially collapsed string.
func (p *Parser) collapseDoubledBraces(s string) string {
	for i := 0; i < p.cfg.Parser.MaxRepairIterations; i++ {
		next := strings.ReplaceAll(s, "{{", "{")
		next = strings.ReplaceAll(next, "}}", "}")
		if next == s {
			return s
		}
		s = next
	}
	return s
}

// extractJSONObject locates the single JSON object worth parsing in the
// cleaned text. The primary pass is a left-to-right scan that tracks string
// state (honoring backslash escapes) and brace depth, so nested objects and
// braces inside string literals are both handled. When the scan finds
// nothing, a ladder of regexes recovers progressively sloppier candidates.
func extractJSONObject(s string) (string, error) {
	if candidate := scanBalancedObject(s); candidate != "" {
		return candidate, nil
	}

	// Largest flat {...} match; covers outputs where the balanced scan was
	// defeated by an unterminated string.
	if matches := flatObjectRegex.FindAllString(s, -1); len(matches) > 0 {
		best := matches[0]
		for _, m := range matches[1:] {
			if len(m) > len(best) {
				best = m
			}
		}
		return best, nil
	}

	// Truncated output that at least contains the discriminating key.
	if m := decisionKeyRegex.FindString(s); m != "" {
		return m, nil
	}

	if m := genericObjectRegex.FindString(s); m != "" {
		return m, nil
	}

	return "", ErrNoJSONFound
}

// scanBalancedObject returns the first complete top-level {...} region, or ""
// when the braces never balance.
func scanBalancedObject(s string) string {
	depth := 0
	start := -1
	inString := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if inString {
			switch c {
			case '\\':
				i++ // skip the escaped byte
			case '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && start >= 0 {
					return s[start : i+1]
				}
			}
		}
	}
	return ""
}
