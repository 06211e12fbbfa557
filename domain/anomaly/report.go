package anomaly

import (
	"fmt"
	"strings"
)

// Report is the structured outcome of the rule-based scan over one executed
// result set. Derived solely from that result; recomputing on the same input
// yields an identical report.
type Report struct {
	Empty                bool           `json:"empty"`
	NegativeValueColumns []string       `json:"negative_value_columns,omitempty"`
	HasDuplicates        bool           `json:"has_duplicates"`
	NullOnlyColumns      []string       `json:"null_only_columns,omitempty"`
	LowCoverageColumns   map[string]int `json:"low_coverage_columns,omitempty"`
}

// Clean reports whether no anomaly flag is raised.
func (r Report) Clean() bool {
	return !r.Empty &&
		len(r.NegativeValueColumns) == 0 &&
		!r.HasDuplicates &&
		len(r.NullOnlyColumns) == 0 &&
		len(r.LowCoverageColumns) == 0
}

// HasNegatives reports whether any numeric column contained a negative value.
func (r Report) HasNegatives() bool {
	return len(r.NegativeValueColumns) > 0
}

// NegativeOnly reports whether the negative-value flag is the only one
// raised. The validator short-circuits the completion call in that case:
// the deterministic rewrite handles it without semantic input.
func (r Report) NegativeOnly() bool {
	return r.HasNegatives() &&
		!r.Empty && !r.HasDuplicates &&
		len(r.NullOnlyColumns) == 0 &&
		len(r.LowCoverageColumns) == 0
}

// Issues renders the raised flags as human-readable lines, the shape the
// explainer and the validator prompt consume.
func (r Report) Issues() []string {
	if r.Empty {
		return []string{"empty result set - possible WHERE or JOIN condition mismatch"}
	}
	var issues []string
	if len(r.NegativeValueColumns) > 0 {
		issues = append(issues, fmt.Sprintf("negative values in column(s) %s (possible refunds or sign errors)",
			strings.Join(r.NegativeValueColumns, ", ")))
	}
	if r.HasDuplicates {
		issues = append(issues, "duplicate rows in result set")
	}
	if len(r.NullOnlyColumns) > 0 {
		issues = append(issues, fmt.Sprintf("null-only column(s): %s", strings.Join(r.NullOnlyColumns, ", ")))
	}
	for col, distinct := range r.LowCoverageColumns {
		issues = append(issues, fmt.Sprintf("column %s covers only %d distinct value(s) - categories may be silently excluded", col, distinct))
	}
	return issues
}
