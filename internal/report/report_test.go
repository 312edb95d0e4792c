package report

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleetdash/internal/analytics"
	"github.com/ukydev/fleetdash/internal/models"
	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var now = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

func sampleRows(trips int) analytics.Input {
	v := models.Vehicle{ID: primitive.NewObjectID(), LicensePlate: "KA-01", VehicleType: "truck", Status: models.VehicleActive}
	in := analytics.Input{
		Vehicles:        []models.Vehicle{v},
		FuelLogs:        []models.FuelLog{{VehicleID: v.ID, Liters: 30, PricePerLiter: 1.5, Date: now}},
		MaintenanceLogs: []models.MaintenanceLog{{VehicleID: v.ID, ServiceType: "oil_change", Cost: 80, DatePerformed: now}},
	}
	for i := 0; i < trips; i++ {
		in.Trips = append(in.Trips, models.Trip{VehicleID: v.ID, RouteName: fmt.Sprintf("R%d", i%3), Status: models.TripCompleted, StartTime: now})
	}
	return in
}

func TestFormat_FleetReport(t *testing.T) {
	rows := sampleRows(2)
	doc := Format(analytics.Aggregate(rows, now), rows, Filters{Kind: KindFleet, VehiclePlate: "KA-01"})

	assert.Equal(t, "FleetDash Fleet Report", doc.Title)
	assert.Equal(t, now, doc.GeneratedAt)
	assert.Contains(t, doc.FilterSummary, "Vehicle: KA-01")
	assert.Contains(t, doc.FilterSummary, "all time")
	assert.Len(t, doc.Summary, 8)

	require.NotEmpty(t, doc.Sections)
	assert.Equal(t, SectionText, doc.Sections[0].Kind)
	var vehicles *Section
	for i := range doc.Sections {
		if doc.Sections[i].Title == "Vehicles" {
			vehicles = &doc.Sections[i]
		}
	}
	require.NotNil(t, vehicles)
	assert.Equal(t, []string{"KA-01", "truck", "active", "", "-", "0.0"}, vehicles.Rows[0])
}

func TestFormat_KindsUsePlates(t *testing.T) {
	rows := sampleRows(1)
	m := analytics.Aggregate(rows, now)

	fuel := Format(m, rows, Filters{Kind: KindFuel})
	assert.Equal(t, "KA-01", fuel.Sections[0].Rows[0][1])
	assert.Equal(t, "$45.00", fuel.Sections[0].Rows[0][4])

	maint := Format(m, rows, Filters{Kind: KindMaintenance})
	assert.Equal(t, "oil_change", maint.Sections[0].Rows[0][2])

	unknown := Format(m, rows, Filters{Kind: "bogus"})
	assert.Equal(t, "FleetDash Fleet Report", unknown.Title)
}

func TestFilters_Summary(t *testing.T) {
	f := Filters{Kind: KindTrips, From: now.AddDate(0, -1, 0), To: now}
	assert.Equal(t, "Report: Trips | Period: 2026-09-19 to 2026-10-19", f.Summary())
}

func TestLayout_SinglePage(t *testing.T) {
	rows := sampleRows(1)
	doc := Format(analytics.Aggregate(rows, now), rows, Filters{Kind: KindTrips})
	pages := Layout(doc, A4)
	require.Len(t, pages, 1)
	assert.Equal(t, "Page 1 of 1", pages[0].Footer())
	assert.Equal(t, BlockHeader, pages[0].Blocks[0].Kind)
}

func TestLayout_BreaksPagesAndRepeatsHeader(t *testing.T) {
	rows := sampleRows(120)
	doc := Format(analytics.Aggregate(rows, now), rows, Filters{Kind: KindTrips})
	g := A4
	pages := Layout(doc, g)
	require.Greater(t, len(pages), 1)

	bottom := g.PageHeight - g.MarginBottom - g.FooterHeight
	for i, p := range pages {
		assert.Equal(t, i+1, p.Number)
		assert.Equal(t, len(pages), p.Total)
		for _, b := range p.Blocks {
			assert.LessOrEqual(t, b.Y+b.Height, bottom+1e-9)
			assert.GreaterOrEqual(t, b.Y, g.MarginTop)
		}
	}
	// continuation pages start with the table header again
	assert.Equal(t, BlockTableHeader, pages[1].Blocks[0].Kind)
	assert.Equal(t, fmt.Sprintf("Page 2 of %d", len(pages)), pages[1].Footer())
}

func TestLayout_SummaryWraps(t *testing.T) {
	doc := &Document{Title: "x", Summary: make([]Metric, 6)}
	pages := Layout(doc, A4)
	var rows []Block
	for _, b := range pages[0].Blocks {
		if b.Kind == BlockSummaryRow {
			rows = append(rows, b)
		}
	}
	require.Len(t, rows, 2)
	assert.Len(t, rows[0].Metrics, 4)
	assert.Len(t, rows[1].Metrics, 2)
}

func TestLayout_TitleKeptWithBody(t *testing.T) {
	g := A4
	g.PageHeight = 100
	doc := &Document{Title: "x", Sections: []Section{
		{Title: "A", Kind: SectionList, Items: []Metric{{"a", "1"}, {"b", "2"}, {"c", "3"}, {"d", "4"}}},
		{Title: "B", Kind: SectionList, Items: []Metric{{"e", "5"}}},
	}}
	pages := Layout(doc, g)
	for _, p := range pages {
		last := p.Blocks[len(p.Blocks)-1]
		assert.NotEqual(t, BlockSectionTitle, last.Kind, "page %d ends with a dangling title", p.Number)
	}
}

func TestWrap(t *testing.T) {
	assert.Equal(t, []string{"aaa bbb", "ccc"}, wrap("aaa bbb ccc", 7))
	assert.Equal(t, []string{"toolongword", "x"}, wrap("toolongword x", 5))
	assert.Empty(t, wrap("   ", 10))
}

func TestRenderPDF(t *testing.T) {
	rows := sampleRows(80)
	doc := Format(analytics.Aggregate(rows, now), rows, Filters{Kind: KindFleet})
	pages := Layout(doc, A4)

	var buf bytes.Buffer
	require.NoError(t, RenderPDF(&buf, doc, pages, A4))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestRenderXLSX(t *testing.T) {
	rows := sampleRows(3)
	doc := Format(analytics.Aggregate(rows, now), rows, Filters{Kind: KindFleet})

	var buf bytes.Buffer
	require.NoError(t, RenderXLSX(&buf, doc))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Summary", "Vehicles", "Route Performance", "Monthly Costs"}, f.GetSheetList())

	title, err := f.GetCellValue("Summary", "A1")
	require.NoError(t, err)
	assert.Equal(t, "FleetDash Fleet Report", title)

	plate, err := f.GetCellValue("Vehicles", "A2")
	require.NoError(t, err)
	assert.Equal(t, "KA-01", plate)
}

func TestSheetName(t *testing.T) {
	used := map[string]bool{}
	assert.Equal(t, "a-b", sheetName("a/b", used))
	assert.Equal(t, "a-b 2", sheetName("a:b", used))
	long := sheetName("This title is definitely longer than allowed", used)
	assert.Len(t, long, 31)
}
