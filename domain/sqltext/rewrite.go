package sqltext

import (
	"regexp"
	"strings"
)

// sumPattern matches SUM over an innermost-parenthesis expression. The
// character class excludes parentheses, so SUM(ABS(x)) never re-matches and
// the rewrite stays idempotent.
var sumPattern = regexp.MustCompile(`(?i)\bSUM\s*\(\s*([^()]+?)\s*\)`)

// WrapSumWithAbs rewrites every aggregate of the form SUM(expr) into
// SUM(ABS(expr)). This is the deterministic correction for negative totals
// caused by refund rows: magnitudes are summed instead of signed values.
// Returns the rewritten SQL and whether anything changed.
func WrapSumWithAbs(sql string) (string, bool) {
	changed := false
	rewritten := sumPattern.ReplaceAllStringFunc(sql, func(m string) string {
		inner := sumPattern.FindStringSubmatch(m)[1]
		if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(inner)), "ABS") {
			return m
		}
		changed = true
		return "SUM(ABS(" + inner + "))"
	})
	return rewritten, changed
}

// predicatePattern captures identifiers on the left of a comparison inside a
// WHERE clause: region = 'North', ts BETWEEN ..., name LIKE '%x%'.
var (
	wherePattern     = regexp.MustCompile(`(?is)\bWHERE\b(.*?)(\bGROUP\s+BY\b|\bORDER\s+BY\b|\bHAVING\b|\bLIMIT\b|$)`)
	predicatePattern = regexp.MustCompile(`(?i)([a-zA-Z_][a-zA-Z0-9_]*)\s*(?:=|!=|<>|>=|<=|>|<|\bLIKE\b|\bIN\b|\bBETWEEN\b)`)
)

// sqlKeywords are tokens the predicate scan must never mistake for columns.
var sqlKeywords = map[string]struct{}{
	"and": {}, "or": {}, "not": {}, "like": {}, "in": {}, "between": {},
	"is": {}, "null": {}, "select": {}, "where": {}, "from": {}, "case": {},
	"when": {}, "then": {}, "else": {}, "end": {},
}

// PredicateColumns extracts the column names referenced in filter predicates
// of the WHERE clause, lowercased, deduplicated, in order of appearance.
// Used to decide which columns to ground an empty result against.
func PredicateColumns(sql string) []string {
	m := wherePattern.FindStringSubmatch(sql)
	if m == nil {
		return nil
	}
	clause := m[1]

	seen := make(map[string]struct{})
	var cols []string
	for _, match := range predicatePattern.FindAllStringSubmatch(clause, -1) {
		name := strings.ToLower(match[1])
		if _, kw := sqlKeywords[name]; kw {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		cols = append(cols, name)
	}
	return cols
}

var fencePattern = regexp.MustCompile("(?s)```(?:sql)?\\s*(.*?)\\s*```")

// CleanGenerated strips markdown code fences and surrounding whitespace from
// SQL returned by the completion service.
func CleanGenerated(sql string) string {
	if m := fencePattern.FindStringSubmatch(sql); m != nil {
		return strings.TrimSpace(m[1])
	}
	s := strings.ReplaceAll(sql, "```sql", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
