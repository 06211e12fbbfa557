package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"querymind/domain/core"
	"querymind/ports"
)

// identifierPattern guards interpolated identifiers; column names arrive
// from predicate extraction over generated SQL and are never trusted.
var identifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// statisticsAdapter implements ports.StatisticsReader over one table.
type statisticsAdapter struct {
	db      *sqlx.DB
	table   string
	timeout time.Duration
}

// NewStatisticsReader creates a statistics reader bound to the dataset's
// table.
func NewStatisticsReader(db *sqlx.DB, table string, timeout time.Duration) (ports.StatisticsReader, error) {
	if !identifierPattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name: %q", table)
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &statisticsAdapter{db: db, table: table, timeout: timeout}, nil
}

// DistinctValues returns the real distinct values of a column, ordered, as
// text. Grounding text downstream may cite only these.
func (s *statisticsAdapter) DistinctValues(ctx context.Context, _ core.DatasetID, column string, limit int) ([]string, error) {
	if !identifierPattern.MatchString(column) {
		return nil, fmt.Errorf("invalid column name: %q", column)
	}
	if limit <= 0 {
		limit = 20
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := fmt.Sprintf(
		"SELECT DISTINCT CAST(%s AS TEXT) FROM %s WHERE %s IS NOT NULL ORDER BY 1 LIMIT %d",
		pq.QuoteIdentifier(column), pq.QuoteIdentifier(s.table), pq.QuoteIdentifier(column), limit,
	)

	var values []string
	if err := s.db.SelectContext(ctx, &values, query); err != nil {
		return nil, core.NewCollaboratorError("statistics", err)
	}
	return values, nil
}

// DateBounds returns the real min/max of a temporal column as text.
func (s *statisticsAdapter) DateBounds(ctx context.Context, _ core.DatasetID, column string) (string, string, error) {
	if !identifierPattern.MatchString(column) {
		return "", "", fmt.Errorf("invalid column name: %q", column)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := fmt.Sprintf(
		"SELECT CAST(MIN(%s) AS TEXT), CAST(MAX(%s) AS TEXT) FROM %s",
		pq.QuoteIdentifier(column), pq.QuoteIdentifier(column), pq.QuoteIdentifier(s.table),
	)

	var min, max sql.NullString
	if err := s.db.QueryRowContext(ctx, query).Scan(&min, &max); err != nil {
		return "", "", core.NewCollaboratorError("statistics", err)
	}
	return min.String, max.String, nil
}
