// Package sqltext holds the textual SQL utilities the reflection engine
// relies on: cosmetic-difference normalization, the deterministic aggregate
// rewrite, predicate-column extraction, and a shallow validity check. It is
// not a SQL parser; it only has to distinguish a cosmetic rewrite from a
// substantive one and confirm a rewritten query is still well-formed text.
package sqltext

import (
	"regexp"
	"strings"
)

var tokenPattern = regexp.MustCompile(`[a-zA-Z_][a-zA-Z0-9_.]*|\d+(?:\.\d+)?|'(?:[^']|'')*'|[(),*<>=!+\-/;%]`)

// Normalize strips trailing semicolons, tokenizes, lowercases every token
// except string literals, and drops AS-alias clauses so that alias-only
// rewrites compare equal. Literals keep their exact case: a changed filter
// value is a substantive difference, never a cosmetic one. The result is a
// canonical token string, not executable SQL.
func Normalize(sql string) string {
	s := strings.TrimSpace(sql)
	s = strings.TrimSuffix(s, ";")

	tokens := tokenPattern.FindAllString(s, -1)
	out := make([]string, 0, len(tokens))
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if tok[0] != '\'' {
			tok = strings.ToLower(tok)
		}
		// Drop "AS alias" pairs; the alias never changes what the query
		// computes.
		if tok == "as" && i+1 < len(tokens) && isIdentifier(tokens[i+1]) {
			i++
			continue
		}
		out = append(out, tok)
	}
	return strings.Join(out, " ")
}

// EquivalentIgnoringCosmetics reports whether two queries differ only in
// whitespace, keyword or identifier case, or column aliasing. String literal
// case is substantive. A refined query equivalent to the original under this
// rule never justifies a re-execution.
func EquivalentIgnoringCosmetics(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// Validate performs a shallow well-formedness check on rewritten SQL:
// non-empty, a SELECT or WITH head, balanced parentheses, and balanced
// single quotes. Rewrites that fail here are rejected, not executed.
func Validate(sql string) bool {
	s := strings.TrimSpace(sql)
	if s == "" {
		return false
	}
	head := strings.ToUpper(s)
	if !strings.HasPrefix(head, "SELECT") && !strings.HasPrefix(head, "WITH") {
		return false
	}
	depth := 0
	inString := false
	for _, r := range s {
		switch {
		case r == '\'':
			inString = !inString
		case inString:
		case r == '(':
			depth++
		case r == ')':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0 && !inString
}

func isIdentifier(tok string) bool {
	if tok == "" {
		return false
	}
	c := tok[0]
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
