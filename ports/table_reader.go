package ports

import (
	"context"

	"labfit/domain/table"
)

// TableReader loads a transposed table with a fixed column count from a file
type TableReader interface {
	ReadTable(ctx context.Context, path string, columns int) (*table.Table, error)
}
