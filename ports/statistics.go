package ports

import (
	"context"

	"querymind/domain/core"
)

// StatisticsReader retrieves grounding facts from the dataset: the real
// distinct values of a column, or the real min/max of a temporal column.
// Explanations may cite only values returned here.
type StatisticsReader interface {
	DistinctValues(ctx context.Context, dataset core.DatasetID, column string, limit int) ([]string, error)
	DateBounds(ctx context.Context, dataset core.DatasetID, column string) (min string, max string, err error)
}
