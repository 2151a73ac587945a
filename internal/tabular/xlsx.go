package tabular

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// DateLayout is how date and time cells are presented to the redactor.
const DateLayout = "2006-01-02 15:04:05"

// XLSX reads and writes Office Open XML workbooks. Only cells whose value
// changed are written back, so styles, column widths, number formats and
// untouched cells survive as they were.
type XLSX struct{}

// NewXLSX creates an XLSX adapter.
func NewXLSX() *XLSX { return &XLSX{} }

type xlsxState struct {
	file     *excelize.File
	orig     [][][]string // per sheet, the values as loaded
	date1904 bool
	dateFmt  map[int]bool // style index -> has a date or time number format
}

func (s *xlsxState) Close() error { return s.file.Close() }

// Load opens the workbook and reads every sheet with raw (unformatted) cell
// values, except that numeric cells with a date or time format are rendered
// with DateLayout. The file stays open until the Workbook is closed.
func (x *XLSX) Load(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("xlsx: open %s: %w", path, err)
	}

	st := &xlsxState{file: f, dateFmt: make(map[int]bool)}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		st.date1904 = *props.Date1904
	}
	wb := &Workbook{Format: FormatXLSX, native: st}
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("xlsx: read sheet %q: %w", name, err)
		}
		st.renderDates(name, rows)
		st.orig = append(st.orig, rows)
		wb.Sheets = append(wb.Sheets, &Sheet{Name: name, Rows: copyRows(rows)})
		slog.Debug("xlsx: sheet loaded", "sheet", name, "rows", len(rows))
	}
	slog.Info("xlsx: loaded", "sheets", len(wb.Sheets))
	return wb, nil
}

// Save writes changed cells into the workbook and saves it to path.
func (x *XLSX) Save(wb *Workbook, path string) error {
	st, ok := wb.native.(*xlsxState)
	if !ok {
		return errors.New("xlsx: workbook was not loaded by the xlsx adapter")
	}
	if len(st.orig) != len(wb.Sheets) {
		return fmt.Errorf("xlsx: sheet count changed from %d to %d", len(st.orig), len(wb.Sheets))
	}

	for i, sh := range wb.Sheets {
		orig := st.orig[i]
		for r, row := range sh.Rows {
			for c, v := range row {
				if r < len(orig) && c < len(orig[r]) && orig[r][c] == v {
					continue
				}
				cell, err := excelize.CoordinatesToCellName(c+1, r+1)
				if err != nil {
					return fmt.Errorf("xlsx: cell name: %w", err)
				}
				if err := st.file.SetCellStr(sh.Name, cell, v); err != nil {
					return fmt.Errorf("xlsx: set %s!%s: %w", sh.Name, cell, err)
				}
			}
		}
	}

	if err := st.file.SaveAs(path); err != nil {
		return fmt.Errorf("xlsx: save %s: %w", path, err)
	}
	return nil
}

// renderDates replaces the serial number of every date cell in rows. Both the
// loaded and the working copy see the rendered text, so a date the redactor
// leaves alone is never written back.
func (st *xlsxState) renderDates(sheet string, rows [][]string) {
	for r, row := range rows {
		for c, v := range row {
			serial, err := strconv.ParseFloat(v, 64)
			if err != nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil || !st.isDateCell(sheet, cell) {
				continue
			}
			t, err := excelize.ExcelDateToTime(serial, st.date1904)
			if err != nil {
				slog.Debug("xlsx: date out of range", "sheet", sheet, "cell", cell, "value", v)
				continue
			}
			row[c] = t.Round(time.Second).Format(DateLayout)
		}
	}
}

func (st *xlsxState) isDateCell(sheet, cell string) bool {
	typ, err := st.file.GetCellType(sheet, cell)
	if err != nil || (typ != excelize.CellTypeUnset && typ != excelize.CellTypeNumber) {
		return false
	}
	idx, err := st.file.GetCellStyle(sheet, cell)
	if err != nil {
		return false
	}
	if isDate, ok := st.dateFmt[idx]; ok {
		return isDate
	}
	isDate := false
	if style, err := st.file.GetStyle(idx); err == nil {
		if style.CustomNumFmt != nil {
			isDate = isDateFormatCode(*style.CustomNumFmt)
		} else {
			isDate = isDateNumFmt(style.NumFmt)
		}
	}
	st.dateFmt[idx] = isDate
	return isDate
}

// isDateNumFmt reports whether a built-in number format id is a date or time
// format, including the East Asian ones.
func isDateNumFmt(id int) bool {
	switch {
	case id >= 14 && id <= 22,
		id >= 27 && id <= 36,
		id >= 45 && id <= 47,
		id >= 50 && id <= 58:
		return true
	}
	return false
}

// isDateFormatCode reports whether a custom format code contains date or time
// tokens outside of literals, colours and locale tags.
func isDateFormatCode(code string) bool {
	section, _, _ := strings.Cut(code, ";")
	var b strings.Builder
	inQuote, inBracket := false, false
	for i := 0; i < len(section); i++ {
		ch := section[i]
		switch {
		case inQuote:
			inQuote = ch != '"'
		case inBracket:
			inBracket = ch != ']'
		case ch == '"':
			inQuote = true
		case ch == '[':
			inBracket = true
		case ch == '\\' || ch == '_' || ch == '*':
			i++ // escaped, padding or fill character
		default:
			b.WriteByte(ch)
		}
	}
	return strings.ContainsAny(strings.ToLower(b.String()), "ymdhs")
}

func copyRows(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}
