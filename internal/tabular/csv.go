package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// shiftJIS serves both cp932 and shift_jis: the x/text table is the Windows
// code page 932 variant.
var shiftJIS encoding.Encoding = japanese.ShiftJIS

// CSV reads and writes delimited text, trying each configured encoding in
// turn until one decodes and parses the whole file.
type CSV struct {
	encodings []string
}

// NewCSV creates a CSV adapter. Encoding names are tried in order; see
// DefaultRules for the built-in list.
func NewCSV(encodings []string) *CSV {
	return &CSV{encodings: encodings}
}

// Load reads the whole file. The first encoding that succeeds wins and is
// remembered in wb.Encoding for Save.
func (c *CSV) Load(path string) (*Workbook, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("csv: read %s: %w", path, err)
	}

	var errs []error
	for _, enc := range c.encodings {
		rows, err := parseCSV(raw, enc)
		if err != nil {
			slog.Debug("csv: encoding rejected", "encoding", enc, "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", enc, err))
			continue
		}
		if len(rows) == 0 {
			return nil, fmt.Errorf("csv: %s: %w: no rows", path, ErrDecodeFailure)
		}
		slog.Info("csv: loaded", "encoding", enc, "rows", len(rows))
		return &Workbook{
			Format:   FormatCSV,
			Encoding: enc,
			Sheets:   []*Sheet{{Name: "csv", Rows: rows}},
		}, nil
	}
	return nil, fmt.Errorf("csv: %s: %w: %w", path, ErrDecodeFailure, errors.Join(errs...))
}

// Save writes every row of the single sheet in wb.Encoding. Records end in
// CRLF; line breaks inside a field are written as they are. An empty row is
// written as an empty line.
func (c *CSV) Save(wb *Workbook, path string) error {
	if len(wb.Sheets) != 1 {
		return fmt.Errorf("csv: expected one sheet, got %d", len(wb.Sheets))
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, row := range wb.Sheets[0].Rows {
		switch {
		case len(row) == 0:
		case len(row) == 1 && row[0] == "":
			// A lone empty field must not read back as a blank line.
			buf.WriteString(`""`)
		default:
			if err := w.Write(row); err != nil {
				return fmt.Errorf("csv: write: %w", err)
			}
			w.Flush()
			if err := w.Error(); err != nil {
				return fmt.Errorf("csv: write: %w", err)
			}
			buf.Truncate(buf.Len() - 1) // record terminator "\n"
		}
		buf.WriteString("\r\n")
	}

	data, err := encode(buf.Bytes(), wb.Encoding)
	if err != nil {
		return fmt.Errorf("csv: encode %s: %w", wb.Encoding, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("csv: write %s: %w", path, err)
	}
	return nil
}

// parseCSV decodes raw and splits it into records. encoding/csv skips blank
// lines, so they are put back as empty rows by following the line number of
// each record.
func parseCSV(raw []byte, enc string) ([][]string, error) {
	text, err := decode(raw, enc)
	if err != nil {
		return nil, err
	}
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows [][]string
	next := 1 // first line not covered by a record yet
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse: %w", err)
		}
		start, _ := r.FieldPos(0)
		for ; next < start; next++ {
			rows = append(rows, []string{})
		}
		last := len(rec) - 1
		end, _ := r.FieldPos(last)
		next = end + strings.Count(rec[last], "\n") + 1
		rows = append(rows, rec)
	}
	if len(rows) > 0 {
		for total := lineCount(text); next <= total; next++ {
			rows = append(rows, []string{})
		}
	}
	return rows, nil
}

func lineCount(text string) int {
	n := strings.Count(text, "\n")
	if text != "" && !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}

func decode(raw []byte, enc string) (string, error) {
	switch strings.ToLower(enc) {
	case "utf-8-sig":
		raw = bytes.TrimPrefix(raw, utf8BOM)
		fallthrough
	case "utf-8", "utf8":
		if !utf8.Valid(raw) {
			return "", errors.New("invalid UTF-8")
		}
		return string(raw), nil
	case "cp932", "shift_jis", "sjis", "windows-31j":
		out, err := shiftJIS.NewDecoder().Bytes(raw)
		if err != nil {
			return "", err
		}
		// The decoder substitutes U+FFFD for invalid input; Shift_JIS has
		// no encoding for U+FFFD itself, so any occurrence is a decode error.
		if bytes.ContainsRune(out, utf8.RuneError) {
			return "", errors.New("invalid Shift_JIS sequence")
		}
		return string(out), nil
	default:
		return "", fmt.Errorf("unknown encoding %q", enc)
	}
}

func encode(text []byte, enc string) ([]byte, error) {
	switch strings.ToLower(enc) {
	case "utf-8-sig":
		return append(append([]byte{}, utf8BOM...), text...), nil
	case "utf-8", "utf8", "":
		return text, nil
	case "cp932", "shift_jis", "sjis", "windows-31j":
		return shiftJIS.NewEncoder().Bytes(text)
	default:
		return nil, fmt.Errorf("unknown encoding %q", enc)
	}
}

