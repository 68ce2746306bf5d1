// Package lexer extracts candidate command identifiers from AEC source text.
//
// It is not a parser: it only finds uppercase identifiers that sit outside
// line comments and quoted string literals.
package lexer

// TokenSet is the set of distinct tokens found in a source, kept in order of
// first appearance so that diagnostics are deterministic.
type TokenSet struct {
	order []string
	seen  map[string]struct{}
}

// NewTokenSet builds a TokenSet from the given tokens, dropping duplicates.
func NewTokenSet(tokens ...string) *TokenSet {
	ts := &TokenSet{seen: make(map[string]struct{}, len(tokens))}
	for _, tok := range tokens {
		ts.add(tok)
	}
	return ts
}

func (ts *TokenSet) add(tok string) {
	if _, ok := ts.seen[tok]; ok {
		return
	}
	ts.seen[tok] = struct{}{}
	ts.order = append(ts.order, tok)
}

// Has reports whether tok was found.
func (ts *TokenSet) Has(tok string) bool {
	if ts == nil {
		return false
	}
	_, ok := ts.seen[tok]
	return ok
}

// Tokens returns the tokens in first-appearance order. The slice is a copy.
func (ts *TokenSet) Tokens() []string {
	if ts == nil {
		return nil
	}
	out := make([]string, len(ts.order))
	copy(out, ts.order)
	return out
}

// Len returns the number of distinct tokens.
func (ts *TokenSet) Len() int {
	if ts == nil {
		return 0
	}
	return len(ts.order)
}

// Scan walks source once, left to right, and returns every qualifying token.
//
// A token is a maximal run of A-Z, 0-9 and '_' that does not start with a
// digit and is longer than one character. Text from "//" to end of line and
// text inside '...' or "..." literals is skipped; a backslash inside a
// literal escapes the next byte. An unterminated literal runs to end of input.
//
// All delimiters are ASCII, so iterating bytes is safe for UTF-8 input.
func Scan(source string) *TokenSet {
	ts := NewTokenSet()
	n := len(source)
	i := 0

	for i < n {
		b := source[i]

		if b == '/' && i+1 < n && source[i+1] == '/' {
			i += 2
			for i < n && source[i] != '\n' {
				i++
			}
			continue
		}

		if b == '"' || b == '\'' {
			quote := b
			i++
			for i < n {
				if source[i] == '\\' {
					i += 2
					continue
				}
				if source[i] == quote {
					i++
					break
				}
				i++
			}
			continue
		}

		if isTokenStart(b) {
			start := i
			for i < n && isTokenChar(source[i]) {
				i++
			}
			if i-start > 1 {
				ts.add(source[start:i])
			}
			continue
		}

		i++
	}

	return ts
}

func isTokenStart(b byte) bool {
	return (b >= 'A' && b <= 'Z') || b == '_'
}

func isTokenChar(b byte) bool {
	return isTokenStart(b) || (b >= '0' && b <= '9')
}
