package app

import (
	"strings"
	"testing"

	"querymind/domain/result"
	"querymind/domain/verdict"
)

func explainerSchema() *result.Schema {
	return &result.Schema{
		Table: "transactions",
		Columns: []result.Column{
			{Name: "product_name", Type: result.TypeText},
			{Name: "region", Type: result.TypeText},
			{Name: "revenue", Type: result.TypeReal},
			{Name: "ts", Type: result.TypeDate},
		},
	}
}

func TestExplain_RewriteMentionsRefunds(t *testing.T) {
	explainer := NewExplainer()

	got := explainer.Explain(ExplainInput{
		Decision: verdict.Decision{
			Action: verdict.ActionRewrite,
			NewSQL: "SELECT product_name, SUM(ABS(revenue)) FROM transactions GROUP BY product_name",
		},
		Report: ReportView{NegativeValueColumns: []string{"sum"}},
		Schema: explainerSchema(),
	})

	for _, want := range []string{"negative", "refund", "ABS"} {
		if !strings.Contains(got, want) {
			t.Errorf("rewrite explanation missing %q:\n%s", want, got)
		}
	}
}

func TestExplain_RewriteFromRefinementCitesFeedback(t *testing.T) {
	explainer := NewExplainer()

	got := explainer.Explain(ExplainInput{
		Decision: verdict.Decision{Action: verdict.ActionRewrite, NewSQL: "SELECT 1"},
		Verdict:  verdict.Verdict{Feedback: "The query listed all products instead of the single highest"},
		Schema:   explainerSchema(),
	})

	if !strings.Contains(got, "listed all products") {
		t.Errorf("explanation should carry the validator feedback:\n%s", got)
	}
}

func TestExplain_NullResponseEnumeratesDistinctValues(t *testing.T) {
	explainer := NewExplainer()

	got := explainer.Explain(ExplainInput{
		Decision: verdict.Decision{Action: verdict.ActionNullResponse},
		Verdict: verdict.Verdict{
			Grounding: verdict.Grounding{
				DistinctValues: map[string][]string{"region": {"East", "North", "South", "West"}},
			},
		},
		Report: ReportView{Empty: true},
		Schema: explainerSchema(),
	})

	if !strings.Contains(got, "contains exactly: East, North, South, West") {
		t.Errorf("explanation must enumerate the retrieved values verbatim:\n%s", got)
	}
	if strings.Contains(got, "Central") {
		t.Errorf("explanation invented a value not in the grounding:\n%s", got)
	}
}

func TestExplain_NullResponseCitesDateBounds(t *testing.T) {
	explainer := NewExplainer()

	got := explainer.Explain(ExplainInput{
		Decision: verdict.Decision{Action: verdict.ActionNullResponse},
		Verdict: verdict.Verdict{
			Grounding: verdict.Grounding{
				DateRanges: map[string]verdict.DateRange{
					"ts": {Min: "2025-06-24", Max: "2025-08-23"},
				},
			},
		},
		Report: ReportView{Empty: true},
		Schema: explainerSchema(),
	})

	if !strings.Contains(got, "2025-06-24") || !strings.Contains(got, "2025-08-23") {
		t.Errorf("explanation must cite the retrieved date bounds:\n%s", got)
	}
}

func TestExplain_NullResponseListsSchemaColumnsForUnknownField(t *testing.T) {
	explainer := NewExplainer()
	schema := explainerSchema()

	got := explainer.Explain(ExplainInput{
		Decision: verdict.Decision{Action: verdict.ActionNullResponse},
		Verdict:  verdict.Verdict{UnknownFields: []string{"color"}},
		Schema:   schema,
	})

	if !strings.Contains(got, "'color'") {
		t.Errorf("explanation must name the unknown field:\n%s", got)
	}
	for _, col := range schema.ColumnNames() {
		if !strings.Contains(got, col) {
			t.Errorf("explanation should list real column %q:\n%s", col, got)
		}
	}
}

func TestExplain_NoneWithRejectedRewrite(t *testing.T) {
	explainer := NewExplainer()

	got := explainer.Explain(ExplainInput{
		Decision: verdict.Decision{Action: verdict.ActionNone, Reason: "rewrite rejected"},
		Report:   ReportView{NegativeValueColumns: []string{"sum"}},
		Schema:   explainerSchema(),
	})

	if !strings.Contains(got, "original result") {
		t.Errorf("rejected rewrite should fall back to the original result:\n%s", got)
	}
}

func TestExplain_NoneCleanRun(t *testing.T) {
	explainer := NewExplainer()

	got := explainer.Explain(ExplainInput{
		Decision: verdict.Decision{Action: verdict.ActionNone, Reason: "first-pass query stands"},
		Schema:   explainerSchema(),
	})

	if !strings.Contains(got, "no anomalies") {
		t.Errorf("clean run explanation unexpected:\n%s", got)
	}
}

func TestExplain_NoneWithEmptyResultSaysSo(t *testing.T) {
	explainer := NewExplainer()

	got := explainer.Explain(ExplainInput{
		Decision: verdict.Decision{Action: verdict.ActionNone, Reason: "first-pass query stands"},
		Report:   ReportView{Empty: true},
		Schema:   explainerSchema(),
	})

	if !strings.Contains(got, "no rows") {
		t.Errorf("an empty result that stands must be acknowledged, not called anomaly-free:\n%s", got)
	}
	if strings.Contains(got, "no anomalies") {
		t.Errorf("empty flag was raised, explanation must not claim a clean output:\n%s", got)
	}
}

func TestExplain_NoneReportsObservedIssues(t *testing.T) {
	explainer := NewExplainer()

	got := explainer.Explain(ExplainInput{
		Decision: verdict.Decision{Action: verdict.ActionNone, Reason: "first-pass query stands"},
		Report:   ReportView{HasDuplicates: true, NullOnlyColumns: []string{"notes"}},
		Schema:   explainerSchema(),
	})

	if !strings.Contains(got, "duplicate rows") || !strings.Contains(got, "notes") {
		t.Errorf("explanation should report observed issues:\n%s", got)
	}
}
