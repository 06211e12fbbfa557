package result

import (
	"fmt"
	"sort"
	"strings"

	"querymind/domain/core"
)

// ColumnType is the declared type of a result column, normalized to a small
// set the detector and validator can reason about.
type ColumnType string

const (
	TypeInteger ColumnType = "integer"
	TypeReal    ColumnType = "real"
	TypeText    ColumnType = "text"
	TypeDate    ColumnType = "datetime"
	TypeBool    ColumnType = "boolean"
	TypeUnknown ColumnType = "unknown"
)

// IsNumeric reports whether values of this type participate in the
// negative-value scan.
func (t ColumnType) IsNumeric() bool {
	return t == TypeInteger || t == TypeReal
}

// IsTemporal reports whether the column holds dates or timestamps.
func (t ColumnType) IsTemporal() bool {
	return t == TypeDate
}

// Column describes one result column.
type Column struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

// QueryResult is an executed result set: ordered rows with named, typed
// columns. Immutable once produced; everything downstream only reads it.
type QueryResult struct {
	Columns []Column `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// RowCount returns the number of rows.
func (r *QueryResult) RowCount() int {
	return len(r.Rows)
}

// IsEmpty reports whether the result has no rows.
func (r *QueryResult) IsEmpty() bool {
	return len(r.Rows) == 0
}

// ColumnIndex returns the index of the named column, or -1.
func (r *QueryResult) ColumnIndex(name string) int {
	for i, c := range r.Columns {
		if strings.EqualFold(c.Name, name) {
			return i
		}
	}
	return -1
}

// SampleRows returns up to n leading rows rendered as column->value maps,
// the shape the validator sends to the completion service.
func (r *QueryResult) SampleRows(n int) []map[string]any {
	if n > len(r.Rows) {
		n = len(r.Rows)
	}
	sample := make([]map[string]any, 0, n)
	for _, row := range r.Rows[:n] {
		m := make(map[string]any, len(r.Columns))
		for i, c := range r.Columns {
			if i < len(row) {
				m[c.Name] = row[i]
			}
		}
		sample = append(sample, m)
	}
	return sample
}

// Fingerprint derives a deterministic hash over columns and rows. Used for
// reflection-layer cache keys.
func (r *QueryResult) Fingerprint() core.ResultFingerprint {
	var data strings.Builder
	for _, c := range r.Columns {
		data.WriteString(c.Name)
		data.WriteString(string(c.Type))
	}
	for _, row := range r.Rows {
		for _, v := range row {
			data.WriteString(renderValue(v))
			data.WriteByte(0x1f)
		}
		data.WriteByte(0x1e)
	}
	return core.ResultFingerprint(core.NewHash([]byte(data.String())))
}

// RowKey renders a row into a canonical string for duplicate detection.
func RowKey(row []any) string {
	parts := make([]string, len(row))
	for i, v := range row {
		parts[i] = renderValue(v)
	}
	return strings.Join(parts, "\x1f")
}

func renderValue(v any) string {
	if v == nil {
		return "\x00null"
	}
	switch x := v.(type) {
	case float64:
		return fmt.Sprintf("%g", x)
	case float32:
		return fmt.Sprintf("%g", x)
	case []byte:
		return string(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// Schema describes the queryable dataset: ordered column descriptors plus
// the table they belong to.
type Schema struct {
	Table   string   `json:"table"`
	Columns []Column `json:"columns"`
}

// ColumnNames returns the schema's column names in declaration order.
func (s *Schema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// HasColumn reports whether the schema declares the named column.
func (s *Schema) HasColumn(name string) bool {
	for _, c := range s.Columns {
		if strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}

// ColumnType returns the declared type for a column, TypeUnknown if absent.
func (s *Schema) ColumnType(name string) ColumnType {
	for _, c := range s.Columns {
		if strings.EqualFold(c.Name, name) {
			return c.Type
		}
	}
	return TypeUnknown
}

// Describe renders the schema as "name (TYPE)" lines for prompts, matching
// the PRAGMA-style descriptor the generation prompt expects.
func (s *Schema) Describe() string {
	lines := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		lines[i] = fmt.Sprintf("%s (%s)", c.Name, strings.ToUpper(string(c.Type)))
	}
	return strings.Join(lines, "\n")
}

// Fingerprint derives a deterministic hash over the schema. Column order is
// normalized so two declarations of the same schema key identically.
func (s *Schema) Fingerprint() core.SchemaFingerprint {
	cols := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		cols[i] = strings.ToLower(c.Name) + ":" + string(c.Type)
	}
	sort.Strings(cols)
	var data strings.Builder
	data.WriteString(strings.ToLower(s.Table))
	for _, c := range cols {
		data.WriteString(c)
		data.WriteByte(0x1f)
	}
	return core.SchemaFingerprint(core.NewHash([]byte(data.String())))
}
