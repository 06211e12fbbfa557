package anomaly

import (
	"sort"
	"strings"

	"github.com/montanaflynn/stats"

	"querymind/domain/result"
)

// DefaultCoverageFloor is calibrated to small categorical dimensions such as
// the four sales regions of the demo dataset.
const DefaultCoverageFloor = 4

// Config tunes the detector. The zero value gets sensible defaults.
type Config struct {
	// CoverageFloor is the distinct-count below which a categorical column
	// is flagged as low-coverage.
	CoverageFloor int
	// CoverageColumns restricts the coverage scan to the named columns.
	// Empty means every text column is scanned.
	CoverageColumns []string
}

func (c Config) withDefaults() Config {
	if c.CoverageFloor <= 0 {
		c.CoverageFloor = DefaultCoverageFloor
	}
	return c
}

// Detector runs the rule-based anomaly scan. Pure: no I/O, no randomness,
// no mutation of the input.
type Detector struct {
	config Config
}

// NewDetector creates a detector with the given config.
func NewDetector(config Config) *Detector {
	return &Detector{config: config.withDefaults()}
}

// Detect scans one executed result set and returns the structured report.
// An empty result short-circuits the remaining checks: there are no rows to
// inspect for negativity, duplication, or nulls.
func (d *Detector) Detect(res *result.QueryResult) Report {
	if res == nil || res.IsEmpty() {
		return Report{Empty: true}
	}

	report := Report{
		NegativeValueColumns: d.scanNegatives(res),
		HasDuplicates:        d.scanDuplicates(res),
		NullOnlyColumns:      d.scanNullOnly(res),
		LowCoverageColumns:   d.scanCoverage(res),
	}
	return report
}

// scanNegatives records every numeric column containing a value < 0.
func (d *Detector) scanNegatives(res *result.QueryResult) []string {
	var cols []string
	for i, c := range res.Columns {
		if !c.Type.IsNumeric() {
			continue
		}
		values := make(stats.Float64Data, 0, len(res.Rows))
		for _, row := range res.Rows {
			if i >= len(row) {
				continue
			}
			if f, ok := toFloat(row[i]); ok {
				values = append(values, f)
			}
		}
		if len(values) == 0 {
			continue
		}
		min, err := stats.Min(values)
		if err == nil && min < 0 {
			cols = append(cols, c.Name)
		}
	}
	sort.Strings(cols)
	return cols
}

// scanDuplicates reports whether any exact duplicate row exists.
func (d *Detector) scanDuplicates(res *result.QueryResult) bool {
	seen := make(map[string]struct{}, len(res.Rows))
	for _, row := range res.Rows {
		key := result.RowKey(row)
		if _, dup := seen[key]; dup {
			return true
		}
		seen[key] = struct{}{}
	}
	return false
}

// scanNullOnly records columns where every value is null.
func (d *Detector) scanNullOnly(res *result.QueryResult) []string {
	var cols []string
	for i, c := range res.Columns {
		allNull := true
		for _, row := range res.Rows {
			if i < len(row) && row[i] != nil {
				allNull = false
				break
			}
		}
		if allNull {
			cols = append(cols, c.Name)
		}
	}
	sort.Strings(cols)
	return cols
}

// scanCoverage flags categorical columns whose distinct-value count falls
// below the floor. No row-count gate: a narrow filter that silently dropped
// categories is exactly the case this check exists to catch, and it tends
// to produce a result with fewer rows than the floor.
func (d *Detector) scanCoverage(res *result.QueryResult) map[string]int {
	flagged := make(map[string]int)
	for i, c := range res.Columns {
		if c.Type != result.TypeText {
			continue
		}
		if !d.coverageScanned(c.Name) {
			continue
		}
		distinct := make(map[string]struct{})
		for _, row := range res.Rows {
			if i >= len(row) || row[i] == nil {
				continue
			}
			distinct[result.RowKey(row[i:i+1])] = struct{}{}
		}
		if n := len(distinct); n > 0 && n < d.config.CoverageFloor {
			flagged[c.Name] = n
		}
	}
	if len(flagged) == 0 {
		return nil
	}
	return flagged
}

func (d *Detector) coverageScanned(column string) bool {
	if len(d.config.CoverageColumns) == 0 {
		return true
	}
	for _, c := range d.config.CoverageColumns {
		if strings.EqualFold(c, column) {
			return true
		}
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	default:
		return 0, false
	}
}
