package report

import (
	"fmt"
	"strings"
)

// Geometry describes the page and the fixed heights of every block kind, in
// millimetres.
type Geometry struct {
	PageWidth        float64
	PageHeight       float64
	MarginTop        float64
	MarginBottom     float64
	MarginSide       float64
	FooterHeight     float64
	HeaderHeight     float64
	SummaryColumns   int
	SummaryRowHeight float64
	TitleHeight      float64
	RowHeight        float64
	LineHeight       float64
	SectionGap       float64
	CharsPerLine     int
}

// A4 is the default portrait geometry.
var A4 = Geometry{
	PageWidth:        210,
	PageHeight:       297,
	MarginTop:        15,
	MarginBottom:     12,
	MarginSide:       15,
	FooterHeight:     10,
	HeaderHeight:     32,
	SummaryColumns:   4,
	SummaryRowHeight: 20,
	TitleHeight:      10,
	RowHeight:        7,
	LineHeight:       5,
	SectionGap:       6,
	CharsPerLine:     95,
}

// BlockKind identifies what a placed block draws.
type BlockKind int

const (
	BlockHeader BlockKind = iota
	BlockSummaryRow
	BlockSectionTitle
	BlockTableHeader
	BlockTableRow
	BlockTextLine
	BlockListItem
)

// Block is one element placed at a vertical offset on a page.
type Block struct {
	Kind    BlockKind
	Y       float64
	Height  float64
	Text    string
	Cells   []string
	Metrics []Metric
}

// Page is a laid out page. Number is 1-based.
type Page struct {
	Number int
	Total  int
	Blocks []Block
}

// Footer returns the page-number stamp printed on every page.
func (p Page) Footer() string {
	return fmt.Sprintf("Page %d of %d", p.Number, p.Total)
}

type layouter struct {
	g     Geometry
	pages []Page
	y     float64
}

func (l *layouter) bottom() float64 {
	return l.g.PageHeight - l.g.MarginBottom - l.g.FooterHeight
}

func (l *layouter) newPage() {
	l.pages = append(l.pages, Page{Number: len(l.pages) + 1})
	l.y = l.g.MarginTop
}

// fits reports whether h more millimetres fit on the current page.
func (l *layouter) fits(h float64) bool {
	return l.y+h <= l.bottom()
}

// ensure starts a new page unless h fits on the current one.
func (l *layouter) ensure(h float64) {
	if !l.fits(h) {
		l.newPage()
	}
}

func (l *layouter) place(b Block) {
	b.Y = l.y
	cur := &l.pages[len(l.pages)-1]
	cur.Blocks = append(cur.Blocks, b)
	l.y += b.Height
}

// Layout places the document on pages of geometry g, starting a new page
// whenever the next block does not fit in the remaining space. Section
// titles are kept with their first body block and table headers repeat on
// continuation pages.
func Layout(doc *Document, g Geometry) []Page {
	if g.SummaryColumns <= 0 || g.SummaryColumns > 4 {
		g.SummaryColumns = 4
	}
	if g.CharsPerLine <= 0 {
		g.CharsPerLine = A4.CharsPerLine
	}
	l := &layouter{g: g}
	l.newPage()

	l.place(Block{Kind: BlockHeader, Height: g.HeaderHeight, Text: doc.Title})

	for i := 0; i < len(doc.Summary); i += g.SummaryColumns {
		end := i + g.SummaryColumns
		if end > len(doc.Summary) {
			end = len(doc.Summary)
		}
		l.ensure(g.SummaryRowHeight)
		l.place(Block{Kind: BlockSummaryRow, Height: g.SummaryRowHeight, Metrics: doc.Summary[i:end]})
	}

	for _, s := range doc.Sections {
		l.y += g.SectionGap
		body := sectionBlocks(s, g)
		first := 0.0
		if len(body) > 0 {
			first = body[0].Height
		}
		l.ensure(g.TitleHeight + first)
		l.place(Block{Kind: BlockSectionTitle, Height: g.TitleHeight, Text: s.Title})

		for _, b := range body {
			if !l.fits(b.Height) {
				l.newPage()
				if b.Kind == BlockTableRow {
					l.place(Block{Kind: BlockTableHeader, Height: g.RowHeight, Cells: s.Columns})
				}
			}
			l.place(b)
		}
	}

	for i := range l.pages {
		l.pages[i].Total = len(l.pages)
	}
	return l.pages
}

func sectionBlocks(s Section, g Geometry) []Block {
	var out []Block
	switch s.Kind {
	case SectionTable:
		out = append(out, Block{Kind: BlockTableHeader, Height: g.RowHeight, Cells: s.Columns})
		if len(s.Rows) == 0 {
			out = append(out, Block{Kind: BlockTextLine, Height: g.LineHeight, Text: "No records."})
		}
		for _, row := range s.Rows {
			out = append(out, Block{Kind: BlockTableRow, Height: g.RowHeight, Cells: row})
		}
	case SectionText:
		for _, line := range wrap(s.Text, g.CharsPerLine) {
			out = append(out, Block{Kind: BlockTextLine, Height: g.LineHeight, Text: line})
		}
	case SectionList:
		if len(s.Items) == 0 {
			out = append(out, Block{Kind: BlockTextLine, Height: g.LineHeight, Text: "No records."})
		}
		for _, it := range s.Items {
			out = append(out, Block{Kind: BlockListItem, Height: g.RowHeight, Metrics: []Metric{it}})
		}
	}
	return out
}

// wrap breaks text into lines of at most width characters on word
// boundaries. Words longer than width are put on their own line.
func wrap(text string, width int) []string {
	var lines []string
	var cur strings.Builder
	for _, word := range strings.Fields(text) {
		if cur.Len() > 0 && cur.Len()+1+len(word) > width {
			lines = append(lines, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(word)
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}
	return lines
}
