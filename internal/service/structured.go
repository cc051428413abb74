package service

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Generative model output is not a trustworthy structured channel. The
// recovery parser applies extraction strategies in order of specificity and
// always falls back to a caller-supplied default.

// ParseStrategy attempts to locate a parsable JSON region in model output.
type ParseStrategy func(text string) (json.RawMessage, bool)

var fencedJSONPattern = regexp.MustCompile("(?s)```(?:json)?\\s*(.+?)```")

// FencedBlockStrategy extracts the contents of a ```json fenced block.
func FencedBlockStrategy(text string) (json.RawMessage, bool) {
	m := fencedJSONPattern.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}
	candidate := strings.TrimSpace(m[1])
	if !json.Valid([]byte(candidate)) {
		return nil, false
	}
	return json.RawMessage(candidate), true
}

// BraceRegionStrategy extracts the first balanced {...} region.
func BraceRegionStrategy(text string) (json.RawMessage, bool) {
	return balancedRegion(text, '{', '}')
}

// BracketRegionStrategy extracts the first balanced [...] region, for
// array-shaped expectations.
func BracketRegionStrategy(text string) (json.RawMessage, bool) {
	return balancedRegion(text, '[', ']')
}

func balancedRegion(text string, open, close byte) (json.RawMessage, bool) {
	start := strings.IndexByte(text, open)
	if start < 0 {
		return nil, false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				candidate := text[start : i+1]
				if !json.Valid([]byte(candidate)) {
					return nil, false
				}
				return json.RawMessage(candidate), true
			}
		}
	}
	return nil, false
}

// DefaultStrategies is the standard ordering, most specific first.
var DefaultStrategies = []ParseStrategy{
	FencedBlockStrategy,
	BraceRegionStrategy,
	BracketRegionStrategy,
}

// RecoverJSON applies the strategies in order and returns the first region
// that parses, or nil.
func RecoverJSON(text string, strategies ...ParseStrategy) json.RawMessage {
	if len(strategies) == 0 {
		strategies = DefaultStrategies
	}
	for _, strategy := range strategies {
		if raw, ok := strategy(text); ok {
			return raw
		}
	}
	return nil
}

// DecodeInto unmarshals recovered JSON from text into out, trying each
// strategy's region until one fits out's shape. When none does, fallback is
// invoked to populate the default and DecodeInto returns false.
func DecodeInto(text string, out any, fallback func()) bool {
	for _, strategy := range DefaultStrategies {
		raw, ok := strategy(text)
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, out); err == nil {
			return true
		}
	}
	fallback()
	return false
}
