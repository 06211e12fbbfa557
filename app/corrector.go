package app

import (
	"fmt"
	"sort"
	"strings"

	"querymind/domain/anomaly"
	"querymind/domain/sqltext"
	"querymind/domain/verdict"
)

// Corrector maps an anomaly report and a validation verdict to exactly one
// correction decision. The policy is ordered; the first matching rule wins,
// and a decision is never partially applied: every REWRITE carries SQL that
// passed the validity check.
type Corrector struct{}

// NewCorrector creates a corrector.
func NewCorrector() *Corrector {
	return &Corrector{}
}

// Decide evaluates the decision policy.
//
//  1. Negative values with no unknown fields: deterministic SUM(ABS())
//     rewrite; a rewrite that fails re-validation degrades to NONE.
//  2. Unknown fields, or intent mismatch without a usable refined query:
//     null response, grounded in whatever facts were retrieved.
//  3. A refined query that differs substantively (not just whitespace,
//     case, or aliasing) from the first pass: rewrite to it.
//  4. Otherwise the first pass stands.
func (c *Corrector) Decide(report anomaly.Report, vd verdict.Verdict, sqlV1 string) verdict.Decision {
	if report.HasNegatives() && len(vd.UnknownFields) == 0 {
		rewritten, changed := sqltext.WrapSumWithAbs(sqlV1)
		if changed {
			if !sqltext.Validate(rewritten) {
				return verdict.Decision{
					Action: verdict.ActionNone,
					Reason: "rewrite rejected",
				}
			}
			return verdict.Decision{
				Action: verdict.ActionRewrite,
				NewSQL: rewritten,
				Reason: fmt.Sprintf("negative totals in column(s) %s; wrapped SUM() in ABS() to aggregate magnitudes",
					strings.Join(report.NegativeValueColumns, ", ")),
			}
		}
		// Negative values but nothing to rewrite; later rules may still
		// apply.
	}

	if len(vd.UnknownFields) > 0 || (!vd.IntentMatch && !usableRefinement(vd.RefinedSQL, sqlV1)) {
		return verdict.Decision{
			Action: verdict.ActionNullResponse,
			Reason: nullResponseReason(vd),
		}
	}

	if usableRefinement(vd.RefinedSQL, sqlV1) {
		return verdict.Decision{
			Action: verdict.ActionRewrite,
			NewSQL: vd.RefinedSQL,
			Reason: refinementReason(vd),
		}
	}

	return verdict.Decision{
		Action: verdict.ActionNone,
		Reason: "first-pass query stands",
	}
}

// usableRefinement reports whether the verdict offers a valid refined query
// that is substantively different from the first pass. Cosmetic-only
// differences never justify a re-execution.
func usableRefinement(refined, sqlV1 string) bool {
	if strings.TrimSpace(refined) == "" {
		return false
	}
	if !sqltext.Validate(refined) {
		return false
	}
	return !sqltext.EquivalentIgnoringCosmetics(refined, sqlV1)
}

// nullResponseReason grounds the reason in the unknown fields or in the
// facts the statistics collaborator actually returned.
func nullResponseReason(vd verdict.Verdict) string {
	if len(vd.UnknownFields) > 0 {
		return fmt.Sprintf("question references unknown field(s): %s", strings.Join(vd.UnknownFields, ", "))
	}

	var parts []string
	for _, col := range sortedKeys(vd.Grounding.DistinctValues) {
		parts = append(parts, fmt.Sprintf("%s has values: %s", col, strings.Join(vd.Grounding.DistinctValues[col], ", ")))
	}
	for _, col := range sortedRangeKeys(vd.Grounding.DateRanges) {
		r := vd.Grounding.DateRanges[col]
		parts = append(parts, fmt.Sprintf("%s spans %s to %s", col, r.Min, r.Max))
	}
	if len(parts) > 0 {
		return "no matching data; " + strings.Join(parts, "; ")
	}
	if vd.Feedback != "" {
		return vd.Feedback
	}
	return "query intent does not match the available data"
}

func refinementReason(vd verdict.Verdict) string {
	if vd.Feedback != "" {
		return vd.Feedback
	}
	return "semantic validation suggested a refined query"
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedRangeKeys(m map[string]verdict.DateRange) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
