package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"querymind/domain/core"
	"querymind/domain/result"
	"querymind/ports"
)

// executorAdapter implements ports.QueryExecutor on a sqlx connection.
type executorAdapter struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewExecutor creates a query executor. The timeout bounds every call; a
// first-pass timeout is surfaced as an execution error, aborting the
// reflection.
func NewExecutor(db *sqlx.DB, timeout time.Duration) ports.QueryExecutor {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &executorAdapter{db: db, timeout: timeout}
}

// Execute runs the SQL and materializes the full result set. Executor
// errors are mapped to the core execution-error kinds and never corrected.
func (e *executorAdapter) Execute(ctx context.Context, dataset core.DatasetID, sql string) (*result.QueryResult, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	rows, err := e.db.QueryxContext(ctx, sql)
	if err != nil {
		return nil, mapExecutionError(sql, err)
	}
	defer rows.Close()

	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, core.NewExecutionError(sql, err)
	}

	columns := make([]result.Column, len(columnTypes))
	for i, ct := range columnTypes {
		columns[i] = result.Column{
			Name: ct.Name(),
			Type: mapColumnType(ct.DatabaseTypeName()),
		}
	}

	res := &result.QueryResult{Columns: columns}
	for rows.Next() {
		raw, err := rows.SliceScan()
		if err != nil {
			return nil, core.NewExecutionError(sql, err)
		}
		row := make([]any, len(raw))
		for i, v := range raw {
			row[i] = normalizeValue(v, columns[i].Type)
		}
		res.Rows = append(res.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, mapExecutionError(sql, err)
	}
	return res, nil
}

// mapExecutionError classifies driver errors into the executor error kinds.
func mapExecutionError(sql string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "42601":
			return fmt.Errorf("%w: %s", core.ErrSyntax, pqErr.Message)
		case "42703":
			return fmt.Errorf("%w: %s", core.ErrUnknownColumn, pqErr.Message)
		case "42P01":
			return fmt.Errorf("%w: %s", core.ErrUnknownTable, pqErr.Message)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return core.NewExecutionError(sql, fmt.Errorf("execution timed out"))
	}
	return core.NewExecutionError(sql, err)
}

// mapColumnType normalizes driver type names to the domain column types.
func mapColumnType(dbType string) result.ColumnType {
	switch strings.ToUpper(dbType) {
	case "INT2", "INT4", "INT8", "INTEGER", "BIGINT", "SMALLINT", "SERIAL", "BIGSERIAL":
		return result.TypeInteger
	case "FLOAT4", "FLOAT8", "NUMERIC", "DECIMAL", "REAL", "DOUBLE PRECISION", "MONEY":
		return result.TypeReal
	case "DATE", "TIME", "TIMESTAMP", "TIMESTAMPTZ", "TIMETZ":
		return result.TypeDate
	case "BOOL", "BOOLEAN":
		return result.TypeBool
	case "TEXT", "VARCHAR", "CHAR", "BPCHAR", "NAME", "UUID":
		return result.TypeText
	default:
		return result.TypeUnknown
	}
}

// normalizeValue coerces driver values into the shapes the detector
// understands: NUMERIC arrives as []byte and must become float64, text as
// string, timestamps as RFC3339 strings.
func normalizeValue(v any, colType result.ColumnType) any {
	if v == nil {
		return nil
	}
	switch x := v.(type) {
	case []byte:
		s := string(x)
		if colType.IsNumeric() {
			var f float64
			if _, err := fmt.Sscanf(s, "%g", &f); err == nil {
				return f
			}
		}
		return s
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return v
	}
}
