package match

import (
	"strings"
	"unicode"
)

// Normalize collapses punctuation to spaces, lower-cases, collapses
// whitespace runs and trims. Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '_':
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// FirstToken returns the given-name token of a person name. Names in
// "Last, First" order yield the first token after the comma; otherwise
// the first token of the normalized string.
func FirstToken(raw string) string {
	if raw == "" {
		return ""
	}
	if i := strings.Index(raw, ","); i >= 0 {
		after := strings.Fields(Normalize(raw[i+1:]))
		if len(after) == 0 {
			return ""
		}
		return after[0]
	}
	tokens := strings.Fields(Normalize(raw))
	if len(tokens) == 0 {
		return ""
	}
	return tokens[0]
}

// SurnameTokens returns the tokens treated as surnames. With a comma the
// surname is everything before it; without one, everything but the first
// token.
func SurnameTokens(raw string) []string {
	if raw == "" {
		return nil
	}
	if i := strings.Index(raw, ","); i >= 0 {
		return strings.Fields(Normalize(raw[:i]))
	}
	tokens := strings.Fields(Normalize(raw))
	if len(tokens) <= 1 {
		return nil
	}
	return tokens[1:]
}
