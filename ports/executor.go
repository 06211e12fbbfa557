package ports

import (
	"context"

	"querymind/domain/core"
	"querymind/domain/result"
)

// QueryExecutor runs SQL against a dataset. Errors are surfaced as a
// distinct kind (wrapping core.ErrExecution), never corrected by the
// reflection engine.
type QueryExecutor interface {
	Execute(ctx context.Context, dataset core.DatasetID, sql string) (*result.QueryResult, error)
}
