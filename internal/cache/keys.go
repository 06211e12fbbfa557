package cache

import (
	"regexp"
	"strings"

	"querymind/domain/core"
	"querymind/domain/sqltext"
)

var questionWhitespace = regexp.MustCompile(`\s+`)

// normalizeQuestion canonicalizes a question so that trivially re-phrased
// submissions ("  Which product...?" vs "which product") share a key.
func normalizeQuestion(question string) string {
	q := strings.ToLower(strings.TrimSpace(question))
	q = questionWhitespace.ReplaceAllString(q, " ")
	return strings.TrimRight(q, "?!. ")
}

// GenerationKey derives the generation-layer key from the normalized
// question and the schema fingerprint. Never random: the same question over
// the same schema always lands on the same entry.
func GenerationKey(question string, schema core.SchemaFingerprint) core.CacheKey {
	return core.CacheKey(core.HashParts("generation", normalizeQuestion(question), schema.String()))
}

// ExecutionKey derives the execution-layer key from the normalized SQL and
// the schema fingerprint. Keyed on the executed SQL rather than the question
// so the first and second pass of one question cannot collide.
func ExecutionKey(sql string, schema core.SchemaFingerprint) core.CacheKey {
	return core.CacheKey(core.HashParts("execution", sqltext.Normalize(sql), schema.String()))
}

// ReflectionKey derives the reflection-layer key from the normalized
// question, the SQL, and the fingerprint of the result it produced. The
// question participates because the verdict judges the SQL against one
// specific question; two questions that happen to generate the same query
// must never share a verdict.
func ReflectionKey(question, sql string, res core.ResultFingerprint) core.CacheKey {
	return core.CacheKey(core.HashParts("reflection", normalizeQuestion(question), sqltext.Normalize(sql), res.String()))
}

// ExplanationKey derives the explanation-layer key from the full decision
// (action and reason) and the before/after SQL pair. The reason carries the
// unknown fields and grounding facts, so two decisions that share an action
// but differ in substance key separately.
func ExplanationKey(action, reason string, oldSQL, newSQL string) core.CacheKey {
	return core.CacheKey(core.HashParts("explanation", action, reason, sqltext.Normalize(oldSQL), sqltext.Normalize(newSQL)))
}
