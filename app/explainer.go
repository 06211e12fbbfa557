package app

import (
	"fmt"
	"strings"

	"querymind/domain/result"
	"querymind/domain/verdict"
)

// Explainer turns a correction decision into a short, data-grounded
// rationale. Every sentence cites only facts present in the anomaly report,
// the verdict, or the grounding statistics; column names come from the real
// schema, never invented.
type Explainer struct{}

// NewExplainer creates an explainer.
func NewExplainer() *Explainer {
	return &Explainer{}
}

// ExplainInput carries everything the explainer may cite.
type ExplainInput struct {
	Decision verdict.Decision
	Verdict  verdict.Verdict
	Report   ReportView
	Schema   *result.Schema
}

// ReportView is the slice of the anomaly report the explainer cites.
type ReportView struct {
	Empty                bool
	NegativeValueColumns []string
	HasDuplicates        bool
	NullOnlyColumns      []string
}

// Explain produces 2-3 sentences describing what the reflection found and
// what was done about it.
func (e *Explainer) Explain(in ExplainInput) string {
	switch in.Decision.Action {
	case verdict.ActionRewrite:
		return e.explainRewrite(in)
	case verdict.ActionNullResponse:
		return e.explainNullResponse(in)
	default:
		return e.explainNone(in)
	}
}

func (e *Explainer) explainRewrite(in ExplainInput) string {
	if len(in.Report.NegativeValueColumns) > 0 {
		cols := strings.Join(in.Report.NegativeValueColumns, ", ")
		return fmt.Sprintf(
			"The first query returned negative values in %s, which indicates refund rows being summed with their sign. "+
				"The aggregate was wrapped in ABS() so totals reflect transaction magnitudes instead of cancelling out. "+
				"The corrected query was re-executed against the same data.", cols)
	}
	feedback := strings.TrimSpace(in.Verdict.Feedback)
	if feedback == "" {
		feedback = "Semantic validation found the first query did not fully answer the question."
	}
	return fmt.Sprintf("%s The suggested query was substantively different from the first pass, so it replaced it. "+
		"The refined query was re-executed and its output is shown.", sentence(feedback))
}

func (e *Explainer) explainNullResponse(in ExplainInput) string {
	// Grounded facts first: enumerate what the dataset actually holds.
	var facts []string
	for _, col := range sortedKeys(in.Verdict.Grounding.DistinctValues) {
		values := in.Verdict.Grounding.DistinctValues[col]
		facts = append(facts, fmt.Sprintf("the %s column contains exactly: %s", col, strings.Join(values, ", ")))
	}
	for _, col := range sortedRangeKeys(in.Verdict.Grounding.DateRanges) {
		r := in.Verdict.Grounding.DateRanges[col]
		facts = append(facts, fmt.Sprintf("the %s column spans %s to %s", col, r.Min, r.Max))
	}

	if len(facts) > 0 {
		return fmt.Sprintf("The query matched no rows because the filter falls outside the data that exists. "+
			"In this dataset %s. Rephrase the question within those values.", strings.Join(facts, "; "))
	}

	if len(in.Verdict.UnknownFields) > 0 {
		available := "the available columns"
		if in.Schema != nil {
			available = strings.Join(in.Schema.ColumnNames(), ", ")
		}
		return fmt.Sprintf("The question references %s, which does not exist in the schema. "+
			"No query can answer it as asked. Available columns are: %s.",
			quotedList(in.Verdict.UnknownFields), available)
	}

	return fmt.Sprintf("No answer could be produced for this question against the current schema. %s",
		sentence(strings.TrimSpace(in.Decision.Reason)))
}

func (e *Explainer) explainNone(in ExplainInput) string {
	if in.Decision.Reason == "rewrite rejected" {
		return "A corrective rewrite was attempted but failed re-validation, so the original result is shown unchanged. " +
			"Treat aggregate totals with care: negative values were observed in the output."
	}
	if in.Report.Empty {
		return "The query matched no rows, though it was judged to answer the question as asked. " +
			"The empty result stands; broaden or adjust the filters to see data."
	}
	var observed []string
	if in.Report.HasDuplicates {
		observed = append(observed, "duplicate rows")
	}
	if len(in.Report.NullOnlyColumns) > 0 {
		observed = append(observed, fmt.Sprintf("null-only column(s) %s", strings.Join(in.Report.NullOnlyColumns, ", ")))
	}
	if len(observed) > 0 {
		return fmt.Sprintf("The query answered the question, though the output shows %s. "+
			"No correction changed the outcome, so the first result stands.", strings.Join(observed, " and "))
	}
	return "The query was validated against the question and the executed output showed no anomalies. " +
		"The first result stands unchanged."
}

func sentence(s string) string {
	if s == "" {
		return s
	}
	if !strings.HasSuffix(s, ".") && !strings.HasSuffix(s, "!") && !strings.HasSuffix(s, "?") {
		return s + "."
	}
	return s
}

func quotedList(items []string) string {
	quoted := make([]string, len(items))
	for i, it := range items {
		quoted[i] = "'" + it + "'"
	}
	return strings.Join(quoted, ", ")
}
