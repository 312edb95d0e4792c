package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

const summarySheet = "Summary"

// RenderXLSX writes the summary and every table section of doc as sheets of
// one workbook.
func RenderXLSX(w io.Writer, doc *Document) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(summarySheet)
	if err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)

	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DBEAFE"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("error creating style: %w", err)
	}

	f.SetCellValue(summarySheet, "A1", doc.Title)
	f.SetCellValue(summarySheet, "A2", doc.Subtitle)
	f.SetCellValue(summarySheet, "A3", "Generated "+doc.GeneratedAt.Format("2006-01-02 15:04 MST"))
	f.SetCellValue(summarySheet, "A4", doc.FilterSummary)
	f.SetRowStyle(summarySheet, 1, 1, bold)

	row := 6
	for _, m := range doc.Summary {
		f.SetCellValue(summarySheet, cell(1, row), m.Label)
		f.SetCellValue(summarySheet, cell(2, row), m.Value)
		row++
	}
	for _, s := range doc.Sections {
		switch s.Kind {
		case SectionText:
			row++
			f.SetCellValue(summarySheet, cell(1, row), s.Title)
			f.SetCellStyle(summarySheet, cell(1, row), cell(1, row), bold)
			row++
			f.SetCellValue(summarySheet, cell(1, row), s.Text)
			row++
		case SectionList:
			row++
			f.SetCellValue(summarySheet, cell(1, row), s.Title)
			f.SetCellStyle(summarySheet, cell(1, row), cell(1, row), bold)
			row++
			for _, it := range s.Items {
				f.SetCellValue(summarySheet, cell(1, row), it.Label)
				f.SetCellValue(summarySheet, cell(2, row), it.Value)
				row++
			}
		}
	}
	f.SetColWidth(summarySheet, "A", "B", 24)

	used := map[string]bool{summarySheet: true}
	for _, s := range doc.Sections {
		if s.Kind != SectionTable {
			continue
		}
		name := sheetName(s.Title, used)
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("error creating sheet %q: %w", name, err)
		}
		for i, col := range s.Columns {
			f.SetCellValue(name, cell(i+1, 1), col)
		}
		f.SetRowStyle(name, 1, 1, bold)
		for r, values := range s.Rows {
			for c, v := range values {
				f.SetCellValue(name, cell(c+1, r+2), v)
			}
		}
		if n := len(s.Columns); n > 0 {
			last, _ := excelize.ColumnNumberToName(n)
			f.SetColWidth(name, "A", last, 16)
		}
	}

	if f.GetSheetName(0) != summarySheet {
		f.DeleteSheet("Sheet1")
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("error writing workbook: %w", err)
	}
	return nil
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

// sheetName derives a unique sheet name of at most 31 characters without the
// characters Excel rejects.
func sheetName(title string, used map[string]bool) string {
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return '-'
		}
		return r
	}, title)
	if name == "" {
		name = "Sheet"
	}
	if len(name) > 31 {
		name = name[:31]
	}
	base := name
	for i := 2; used[name]; i++ {
		suffix := fmt.Sprintf(" %d", i)
		if len(base)+len(suffix) > 31 {
			base = base[:31-len(suffix)]
		}
		name = base + suffix
	}
	used[name] = true
	return name
}
