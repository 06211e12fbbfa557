package app

import (
	"strings"
	"testing"

	"querymind/domain/anomaly"
	"querymind/domain/verdict"
)

func cleanVerdict() verdict.Verdict {
	return verdict.Verdict{IntentMatch: true, Source: verdict.SourceLLM}
}

func TestDecide_NegativeValuesRewriteSumAbs(t *testing.T) {
	corrector := NewCorrector()
	report := anomaly.Report{NegativeValueColumns: []string{"sum"}}
	sqlV1 := "SELECT product_name, SUM(revenue) FROM transactions GROUP BY product_name"

	d := corrector.Decide(report, cleanVerdict(), sqlV1)

	if d.Action != verdict.ActionRewrite {
		t.Fatalf("Action = %v, want REWRITE", d.Action)
	}
	if !strings.Contains(d.NewSQL, "SUM(ABS(revenue))") {
		t.Errorf("NewSQL = %q, want SUM wrapped in ABS", d.NewSQL)
	}
	if !strings.Contains(d.Reason, "sum") {
		t.Errorf("Reason should name the offending column, got %q", d.Reason)
	}
}

func TestDecide_NegativesWithUnknownFieldsTakeNullResponse(t *testing.T) {
	corrector := NewCorrector()
	report := anomaly.Report{NegativeValueColumns: []string{"sum"}}
	vd := verdict.Verdict{UnknownFields: []string{"color"}, Source: verdict.SourceFallback}

	d := corrector.Decide(report, vd, "SELECT SUM(revenue) FROM transactions")

	if d.Action != verdict.ActionNullResponse {
		t.Fatalf("unknown fields outrank the ABS rewrite, got %v", d.Action)
	}
	if !strings.Contains(d.Reason, "color") {
		t.Errorf("Reason should cite the unknown field, got %q", d.Reason)
	}
}

func TestDecide_NegativesWithoutSumFallThrough(t *testing.T) {
	corrector := NewCorrector()
	report := anomaly.Report{NegativeValueColumns: []string{"revenue"}}

	d := corrector.Decide(report, cleanVerdict(), "SELECT revenue FROM transactions")

	if d.Action != verdict.ActionNone {
		t.Fatalf("no SUM to wrap and a clean verdict should stand, got %v", d.Action)
	}
}

func TestDecide_IntentMismatchWithoutRefinementIsNullResponse(t *testing.T) {
	corrector := NewCorrector()
	vd := verdict.Verdict{
		IntentMatch: false,
		Feedback:    "The filtered region does not exist in the data.",
		Source:      verdict.SourceLLM,
	}

	d := corrector.Decide(anomaly.Report{Empty: true}, vd, "SELECT * FROM transactions WHERE region = 'Central'")

	if d.Action != verdict.ActionNullResponse {
		t.Fatalf("Action = %v, want NULL_RESPONSE", d.Action)
	}
	if d.Reason != vd.Feedback {
		t.Errorf("Reason = %q, want the verdict feedback", d.Reason)
	}
}

func TestDecide_NullResponseReasonCitesGrounding(t *testing.T) {
	corrector := NewCorrector()
	vd := verdict.Verdict{
		IntentMatch: false,
		Source:      verdict.SourceLLM,
		Grounding: verdict.Grounding{
			DistinctValues: map[string][]string{"region": {"East", "North", "South", "West"}},
		},
	}

	d := corrector.Decide(anomaly.Report{Empty: true}, vd, "SELECT * FROM transactions WHERE region = 'Central'")

	if d.Action != verdict.ActionNullResponse {
		t.Fatalf("Action = %v, want NULL_RESPONSE", d.Action)
	}
	for _, want := range []string{"region", "East", "North", "South", "West"} {
		if !strings.Contains(d.Reason, want) {
			t.Errorf("Reason %q missing %q", d.Reason, want)
		}
	}
}

func TestDecide_SubstantiveRefinementIsRewrite(t *testing.T) {
	corrector := NewCorrector()
	sqlV1 := "SELECT product_name, SUM(revenue) FROM transactions GROUP BY product_name"
	refined := "SELECT product_name, SUM(revenue) AS total FROM transactions GROUP BY product_name ORDER BY total DESC LIMIT 1"
	vd := verdict.Verdict{
		IntentMatch: false,
		RefinedSQL:  refined,
		Feedback:    "The query listed all products instead of the single highest.",
		Source:      verdict.SourceLLM,
	}

	d := corrector.Decide(anomaly.Report{}, vd, sqlV1)

	if d.Action != verdict.ActionRewrite {
		t.Fatalf("Action = %v, want REWRITE", d.Action)
	}
	if d.NewSQL != refined {
		t.Errorf("NewSQL = %q, want the refined query", d.NewSQL)
	}
}

func TestDecide_CosmeticRefinementIsNone(t *testing.T) {
	corrector := NewCorrector()
	sqlV1 := "SELECT product_name, SUM(revenue) AS total FROM transactions GROUP BY product_name"

	tests := []struct {
		name    string
		refined string
	}{
		{"whitespace", "SELECT   product_name,  SUM(revenue) AS total\nFROM transactions GROUP BY product_name"},
		{"case", "select product_name, sum(revenue) as total from transactions group by product_name"},
		{"alias rename", "SELECT product_name, SUM(revenue) AS grand_total FROM transactions GROUP BY product_name"},
		{"trailing semicolon", sqlV1 + ";"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vd := verdict.Verdict{IntentMatch: true, RefinedSQL: tt.refined, Source: verdict.SourceLLM}
			d := corrector.Decide(anomaly.Report{}, vd, sqlV1)
			if d.Action != verdict.ActionNone {
				t.Errorf("cosmetic refinement must not trigger a rewrite, got %v (%q)", d.Action, d.NewSQL)
			}
		})
	}
}

func TestDecide_InvalidRefinementIgnored(t *testing.T) {
	corrector := NewCorrector()
	vd := verdict.Verdict{
		IntentMatch: true,
		RefinedSQL:  "SELECT SUM(revenue FROM transactions",
		Source:      verdict.SourceLLM,
	}

	d := corrector.Decide(anomaly.Report{}, vd, "SELECT SUM(revenue) FROM transactions")

	if d.Action != verdict.ActionNone {
		t.Fatalf("unparseable refinement must be ignored, got %v", d.Action)
	}
}

func TestDecide_CleanVerdictIsNone(t *testing.T) {
	corrector := NewCorrector()

	d := corrector.Decide(anomaly.Report{HasDuplicates: true}, cleanVerdict(), "SELECT * FROM transactions")

	if d.Action != verdict.ActionNone {
		t.Fatalf("Action = %v, want NONE", d.Action)
	}
	if d.NewSQL != "" {
		t.Errorf("NONE decision must not carry SQL, got %q", d.NewSQL)
	}
}
