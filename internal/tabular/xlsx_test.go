package tabular

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/gonkalabs/gonka-mask-go/internal/sanitize"
)

type xlsxFixture struct {
	path      string
	boldStyle int
}

func buildWorkbook(t *testing.T) xlsxFixture {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	const s1 = "Sheet1"
	for cell, v := range map[string]any{
		"A1": "氏名", "B1": "内容", "C1": "数量",
		"A2": "田中太郎", "B2": "連絡先 a@b.jp", "C2": 12,
		"A3": "佐藤花子", "B3": "特になし", "C3": 3.5,
	} {
		require.NoError(t, f.SetCellValue(s1, cell, v))
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle(s1, "B2", "B3", bold))
	require.NoError(t, f.SetColWidth(s1, "B", "B", 40))

	const s2 = "顧客"
	_, err = f.NewSheet(s2)
	require.NoError(t, err)
	for cell, v := range map[string]any{
		"A1": "メールアドレス", "B1": "備考", "C1": "商品",
		"A2": "x@y.jp", "B2": strings.Repeat("長", 300), "C2": "りんご",
		"A4": "z@y.jp",
	} {
		require.NoError(t, f.SetCellValue(s2, cell, v))
	}

	path := filepath.Join(t.TempDir(), "book.xlsx")
	require.NoError(t, f.SaveAs(path))
	return xlsxFixture{path: path, boldStyle: bold}
}

func TestXLSX_TransformAndSave(t *testing.T) {
	fx := buildWorkbook(t)
	rules := sanitize.DefaultRules()
	a := NewXLSX()

	wb, err := a.Load(fx.path)
	require.NoError(t, err)
	defer wb.Close()
	require.Len(t, wb.Sheets, 2)

	st, err := Transform(context.Background(), wb, patternOnly(rules), rules)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Sheets)

	dst := filepath.Join(t.TempDir(), rules.OutputPrefix+"book.xlsx")
	require.NoError(t, a.Save(wb, dst))

	out, err := excelize.OpenFile(dst)
	require.NoError(t, err)
	defer out.Close()

	assert.Equal(t, []string{"Sheet1", "顧客"}, out.GetSheetList())

	cell := func(sheet, ref string) string {
		v, err := out.GetCellValue(sheet, ref)
		require.NoError(t, err)
		return v
	}

	// Headers untouched.
	assert.Equal(t, "氏名", cell("Sheet1", "A1"))
	assert.Equal(t, "メールアドレス", cell("顧客", "A1"))

	// Sheet1: name masked, free text scanned, numbers untouched.
	assert.Equal(t, "***", cell("Sheet1", "A2"))
	assert.Equal(t, "***", cell("Sheet1", "A3"))
	assert.Equal(t, "連絡先 ***", cell("Sheet1", "B2"))
	assert.Equal(t, "特になし", cell("Sheet1", "B3"))
	assert.Equal(t, "12", cell("Sheet1", "C2"))
	assert.Equal(t, "3.5", cell("Sheet1", "C3"))

	// Second sheet is classified from its own header row.
	assert.Equal(t, "***", cell("顧客", "A2"))
	assert.Equal(t, "***", cell("顧客", "B2"))
	assert.Equal(t, "りんご", cell("顧客", "C2"))
	assert.Equal(t, "", cell("顧客", "A3"))
	assert.Equal(t, "***", cell("顧客", "A4"))

	// Formatting survives.
	style, err := out.GetCellStyle("Sheet1", "B2")
	require.NoError(t, err)
	assert.Equal(t, fx.boldStyle, style)
	style, err = out.GetCellStyle("Sheet1", "B3")
	require.NoError(t, err)
	assert.Equal(t, fx.boldStyle, style)

	width, err := out.GetColWidth("Sheet1", "B")
	require.NoError(t, err)
	assert.Equal(t, 40.0, width)
}

func TestXLSX_TruncateColumnWithoutMask(t *testing.T) {
	fx := buildWorkbook(t)
	rules := sanitize.DefaultRules()
	rules.MaskKeywords = []string{"メール"}
	a := NewXLSX()

	wb, err := a.Load(fx.path)
	require.NoError(t, err)
	defer wb.Close()

	_, err = Transform(context.Background(), wb, patternOnly(rules), rules)
	require.NoError(t, err)

	dst := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, a.Save(wb, dst))

	out, err := excelize.OpenFile(dst)
	require.NoError(t, err)
	defer out.Close()

	v, err := out.GetCellValue("顧客", "B2")
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("長", rules.MaxTextLength), v)
}

func TestXLSX_Errors(t *testing.T) {
	_, err := NewXLSX().Load(writeFile(t, "fake.xlsx", []byte("not a zip")))
	require.Error(t, err)

	err = NewXLSX().Save(memWorkbook([]string{"a"}), filepath.Join(t.TempDir(), "o.xlsx"))
	require.Error(t, err)
}

func TestXLSX_DateCellsKeepTheirValue(t *testing.T) {
	f := excelize.NewFile()
	when := time.Date(2024, 1, 1, 13, 0, 0, 0, time.UTC)
	for cell, v := range map[string]any{
		"A1": "日時", "B1": "担当者", "C1": "内容",
		"A2": when, "B2": when, "C2": "2024-01-01 13:00 田中 03-1234-5678",
	} {
		require.NoError(t, f.SetCellValue("Sheet1", cell, v))
	}
	src := filepath.Join(t.TempDir(), "dates.xlsx")
	require.NoError(t, f.SaveAs(src))
	serial, err := f.GetCellValue("Sheet1", "A2", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.NoError(t, f.Close())

	rules := sanitize.DefaultRules()
	a := NewXLSX()
	wb, err := a.Load(src)
	require.NoError(t, err)
	defer wb.Close()
	assert.Equal(t, "2024-01-01 13:00:00", wb.Sheets[0].Rows[1][0])

	_, err = Transform(context.Background(), wb, patternOnly(rules), rules)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01 13:00:00", wb.Sheets[0].Rows[1][0])

	dst := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, a.Save(wb, dst))

	out, err := excelize.OpenFile(dst)
	require.NoError(t, err)
	defer out.Close()

	raw, err := out.GetCellValue("Sheet1", "A2", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, serial, raw)
	typ, err := out.GetCellType("Sheet1", "A2")
	require.NoError(t, err)
	assert.NotEqual(t, excelize.CellTypeSharedString, typ)

	masked, err := out.GetCellValue("Sheet1", "B2")
	require.NoError(t, err)
	assert.Equal(t, "***", masked)

	text, err := out.GetCellValue("Sheet1", "C2")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01 13:00 田中 ***", text)
}

func TestIsDateFormatCode(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"yyyy/m/d", true},
		{"yyyy\"年\"m\"月\"d\"日\"", true},
		{"[$-411]ggge\"年\"m\"月\"d\"日\"", true},
		{"h:mm:ss", true},
		{"[h]:mm", true},
		{"General", false},
		{"#,##0.00", false},
		{"0.00E+00", false},
		{"[Red]#,##0;[Blue]-#,##0", false},
		{"#,##0\"個\"", false},
		{"\"days\" 0", false},
		{"_(* #,##0_);_(* (#,##0)", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isDateFormatCode(tt.code), tt.code)
	}
	assert.True(t, isDateNumFmt(22))
	assert.True(t, isDateNumFmt(14))
	assert.False(t, isDateNumFmt(0))
	assert.False(t, isDateNumFmt(4))
}
