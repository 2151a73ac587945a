// Package tabular reads spreadsheet and delimited-text files into an
// in-memory Workbook, runs every data cell through a Redactor and writes the
// result to a new file with the same shape.
package tabular

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

var (
	// ErrUnsupportedFormat is returned for file extensions with no adapter.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrDecodeFailure is returned when a delimited-text file cannot be read
	// under any of the configured encodings.
	ErrDecodeFailure = errors.New("could not decode file")
)

// Format identifies the container a Workbook was read from.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Sheet is one grid of cells. Rows[0] is the header row. Rows may differ in
// length; the emitted file keeps every row's length.
type Sheet struct {
	Name string
	Rows [][]string
}

// Workbook is a loaded table. A CSV file has exactly one sheet.
type Workbook struct {
	Format   Format
	Encoding string // encoding the CSV was decoded with; empty for xlsx
	Sheets   []*Sheet

	// native carries adapter state between Load and Save (the open xlsx file
	// and its original cell values).
	native any
}

// Close releases adapter resources held since Load. It is a no-op for CSV.
func (wb *Workbook) Close() error {
	if c, ok := wb.native.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Adapter loads a table from disk and saves a transformed one. Save must be
// given a Workbook produced by the same adapter's Load.
type Adapter interface {
	Load(path string) (*Workbook, error)
	Save(wb *Workbook, path string) error
}

// ForPath selects the adapter for a file by its extension.
func ForPath(path string, encodings []string) (Adapter, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".csv":
		return NewCSV(encodings), nil
	case ".xlsx":
		return NewXLSX(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}
