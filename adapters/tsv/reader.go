package tsv

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"

	"labfit/domain/core"
	"labfit/domain/table"
	"labfit/internal"
)

// maxLineBytes bounds a single input line
const maxLineBytes = 1 << 20

// Reader loads tab-separated files into transposed tables
type Reader struct {
	logger *internal.Logger
}

// NewReader creates a TSV reader
func NewReader(logger *internal.Logger) *Reader {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Reader{logger: logger.With("tsv")}
}

// ReadTable implements ports.TableReader
func (r *Reader) ReadTable(ctx context.Context, path string, columns int) (*table.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tbl, err := LoadFile(path, columns)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("loaded %s (%d columns, %d rows)", path, tbl.NumColumns(), tbl.Len())
	return tbl, nil
}

// LoadFile opens path and reads it with ReadTransposed. The file is closed
// on every return path.
func LoadFile(path string, columns int) (*table.Table, error) {
	if columns < 1 {
		return nil, core.NewArgumentError("columns must be positive, got %d", columns)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, core.NewResourceError(path, err)
	}
	defer f.Close()

	return ReadTransposed(f, columns)
}

// ReadTransposed reads newline-delimited, tab-separated text and distributes
// field i of every line into column i. Lines need at least columns fields;
// extra fields are ignored. Cells are kept verbatim.
func ReadTransposed(in io.Reader, columns int) (*table.Table, error) {
	if columns < 1 {
		return nil, core.NewArgumentError("columns must be positive, got %d", columns)
	}

	cols := make([][]string, columns)
	for j := range cols {
		cols[j] = []string{}
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	line := 0
	for scanner.Scan() {
		fields := splitFields(scanner.Text())
		if len(fields) < columns {
			return nil, core.NewFormatError(line, len(fields), columns)
		}
		for j := 0; j < columns; j++ {
			cols[j] = append(cols[j], fields[j])
		}
		line++
	}
	if err := scanner.Err(); err != nil {
		return nil, core.NewResourceError("tsv input", err)
	}

	return table.New(cols)
}

// splitFields splits on tabs and drops trailing empty fields. A line without
// any tab is a single field, even when empty.
func splitFields(line string) []string {
	if !strings.Contains(line, "\t") {
		return []string{line}
	}
	fields := strings.Split(line, "\t")
	end := len(fields)
	for end > 0 && fields[end-1] == "" {
		end--
	}
	return fields[:end]
}
