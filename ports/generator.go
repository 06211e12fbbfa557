package ports

import (
	"context"

	"querymind/domain/result"
)

// SQLGenerator turns a natural-language question into first-pass SQL for
// the given schema.
type SQLGenerator interface {
	GenerateSQL(ctx context.Context, question string, schema *result.Schema) (string, error)
}
