package app

import (
	"context"
	"path/filepath"
	"strings"

	"labfit/domain/table"
	"labfit/ports"
)

// TableSource picks a table reader by file extension: spreadsheets go to the
// workbook reader, everything else is read as tab-separated text. A
// workbook path may name a sheet after '#', e.g. "assay.xlsx#Plate 2".
type TableSource struct {
	text     ports.TableReader
	workbook ports.TableReader
}

func NewTableSource(text, workbook ports.TableReader) *TableSource {
	return &TableSource{text: text, workbook: workbook}
}

// ReadTable implements ports.TableReader
func (s *TableSource) ReadTable(ctx context.Context, path string, columns int) (*table.Table, error) {
	if s.workbook != nil && IsWorkbook(path) {
		return s.workbook.ReadTable(ctx, path, columns)
	}
	return s.text.ReadTable(ctx, path, columns)
}

// IsWorkbook reports whether path names an .xlsx/.xlsm file, ignoring a
// trailing "#sheet" selector.
func IsWorkbook(path string) bool {
	if i := strings.LastIndex(path, "#"); i >= 0 {
		path = path[:i]
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return true
	}
	return false
}
