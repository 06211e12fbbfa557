package ports

import (
	"context"

	"querymind/domain/anomaly"
	"querymind/domain/core"
	"querymind/domain/result"
	"querymind/domain/verdict"
)

// ValidationRequest is the full context the semantic validator works from:
// the question, the first-pass SQL and a sample of its output, and the
// anomaly report.
type ValidationRequest struct {
	Question string
	SQL      string
	Schema   *result.Schema
	Sample   []map[string]any
	Report   anomaly.Report
	Dataset  core.DatasetID
}

// SemanticValidator checks whether the executed SQL answers the question.
// Implementations must always return a usable verdict; collaborator
// failures degrade to the deterministic fallback internally.
type SemanticValidator interface {
	Validate(ctx context.Context, req ValidationRequest) (verdict.Verdict, error)
}
