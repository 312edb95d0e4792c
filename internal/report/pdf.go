package report

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
)

var (
	brandColor = [3]int{30, 64, 175}
	mutedColor = [3]int{100, 116, 139}
	stripe     = [3]int{241, 245, 249}
)

// RenderPDF draws the laid out pages of doc to w.
func RenderPDF(w io.Writer, doc *Document, pages []Page, g Geometry) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(g.MarginSide, g.MarginTop, g.MarginSide)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(doc.Title, true)
	pdf.SetCreator(brandName, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	width := g.PageWidth - 2*g.MarginSide
	for _, page := range pages {
		pdf.AddPage()
		for _, b := range page.Blocks {
			pdf.SetXY(g.MarginSide, b.Y)
			switch b.Kind {
			case BlockHeader:
				drawHeader(pdf, tr, doc, b, width)
			case BlockSummaryRow:
				drawSummaryRow(pdf, tr, b, width, g.SummaryColumns)
			case BlockSectionTitle:
				pdf.SetFont("Helvetica", "B", 12)
				pdf.SetTextColor(brandColor[0], brandColor[1], brandColor[2])
				pdf.CellFormat(width, b.Height, tr(b.Text), "B", 0, "L", false, 0, "")
			case BlockTableHeader:
				drawRow(pdf, tr, b, width, true)
			case BlockTableRow:
				drawRow(pdf, tr, b, width, false)
			case BlockTextLine:
				pdf.SetFont("Helvetica", "", 10)
				pdf.SetTextColor(0, 0, 0)
				pdf.CellFormat(width, b.Height, tr(b.Text), "", 0, "L", false, 0, "")
			case BlockListItem:
				pdf.SetFont("Helvetica", "", 10)
				pdf.SetTextColor(0, 0, 0)
				item := b.Metrics[0]
				pdf.CellFormat(width*0.4, b.Height, tr(item.Label), "", 0, "L", false, 0, "")
				pdf.SetFont("Helvetica", "B", 10)
				pdf.CellFormat(width*0.6, b.Height, tr(item.Value), "", 0, "L", false, 0, "")
			}
		}

		pdf.SetXY(g.MarginSide, g.PageHeight-g.MarginBottom-g.FooterHeight/2)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(mutedColor[0], mutedColor[1], mutedColor[2])
		pdf.CellFormat(width/2, g.FooterHeight/2, tr(brandName+" - "+doc.GeneratedAt.Format("2006-01-02 15:04 MST")), "T", 0, "L", false, 0, "")
		pdf.CellFormat(width/2, g.FooterHeight/2, page.Footer(), "T", 0, "R", false, 0, "")
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

func drawHeader(pdf *fpdf.Fpdf, tr func(string) string, doc *Document, b Block, width float64) {
	x, y := pdf.GetXY()
	pdf.SetFillColor(brandColor[0], brandColor[1], brandColor[2])
	pdf.Rect(x, y, width, b.Height-4, "F")

	pdf.SetXY(x+4, y+3)
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(width-8, 9, tr(doc.Title), "", 2, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(width-8, 6, tr(doc.Subtitle), "", 2, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(width-8, 5, tr("Generated "+doc.GeneratedAt.Format("2006-01-02 15:04 MST")+"  |  "+doc.FilterSummary), "", 2, "L", false, 0, "")
}

func drawSummaryRow(pdf *fpdf.Fpdf, tr func(string) string, b Block, width float64, columns int) {
	x, y := pdf.GetXY()
	cell := width / float64(columns)
	for i, m := range b.Metrics {
		cx := x + float64(i)*cell
		pdf.SetFillColor(stripe[0], stripe[1], stripe[2])
		pdf.Rect(cx+1, y+1, cell-2, b.Height-2, "F")
		pdf.SetXY(cx+3, y+3)
		pdf.SetFont("Helvetica", "", 8)
		pdf.SetTextColor(mutedColor[0], mutedColor[1], mutedColor[2])
		pdf.CellFormat(cell-6, 5, tr(m.Label), "", 2, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 13)
		pdf.SetTextColor(0, 0, 0)
		pdf.CellFormat(cell-6, 8, tr(m.Value), "", 0, "L", false, 0, "")
	}
}

func drawRow(pdf *fpdf.Fpdf, tr func(string) string, b Block, width float64, header bool) {
	if len(b.Cells) == 0 {
		return
	}
	col := width / float64(len(b.Cells))
	if header {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(brandColor[0], brandColor[1], brandColor[2])
		pdf.SetTextColor(255, 255, 255)
	} else {
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetFillColor(stripe[0], stripe[1], stripe[2])
		pdf.SetTextColor(0, 0, 0)
	}
	for _, c := range b.Cells {
		pdf.CellFormat(col, b.Height, tr(truncate(c, int(col/2))), "", 0, "L", header, 0, "")
	}
}

func truncate(s string, max int) string {
	r := []rune(s)
	if max < 4 || len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
