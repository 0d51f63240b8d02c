package excel

import (
	"context"
	"strings"
	"time"

	"labfit/domain/core"
	"labfit/domain/table"
	"labfit/internal"

	"github.com/xuri/excelize/v2"
)

// Reader loads worksheets into transposed tables
type Reader struct {
	config Config
	logger *internal.Logger
}

// NewReader creates a workbook reader
func NewReader(config Config, logger *internal.Logger) *Reader {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Reader{config: config, logger: logger.With("excel")}
}

// SplitSheet separates an optional "#sheet" selector from a workbook path
func SplitSheet(path string) (file, sheet string) {
	if i := strings.LastIndex(path, "#"); i >= 0 {
		return path[:i], path[i+1:]
	}
	return path, ""
}

// ReadTable implements ports.TableReader. path may end in "#sheet".
func (r *Reader) ReadTable(ctx context.Context, path string, columns int) (*table.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, sheet := SplitSheet(path)
	if sheet == "" {
		sheet = r.config.Sheet
	}
	return r.ReadTransposed(file, sheet, columns)
}

// ReadTransposed reads the first columns cells of every row of sheet (the
// first sheet when empty) into a column-major table. Rows with fewer cells
// are a *core.FormatError naming the zero-based data row.
func (r *Reader) ReadTransposed(path, sheet string, columns int) (*table.Table, error) {
	if columns < 1 {
		return nil, core.NewArgumentError("columns must be at least 1, got %d", columns)
	}

	start := time.Now()
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, core.NewResourceError(path, err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, core.NewResourceError(path+"#"+sheet, err)
	}
	if r.config.SkipRows > 0 {
		if r.config.SkipRows >= len(rows) {
			rows = nil
		} else {
			rows = rows[r.config.SkipRows:]
		}
	}

	cols := make([][]string, columns)
	for j := range cols {
		cols[j] = make([]string, 0, len(rows))
	}
	for i, row := range rows {
		if len(row) < columns {
			return nil, core.NewFormatError(i, len(row), columns)
		}
		for j := 0; j < columns; j++ {
			cols[j] = append(cols[j], row[j])
		}
	}

	r.logger.Debug("read %s#%s in %.2fms (%d rows)", path, sheet, float64(time.Since(start).Nanoseconds())/1e6, len(rows))
	return table.New(cols)
}
