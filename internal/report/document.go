// Package report turns aggregated fleet metrics into a paginated document
// and renders it as PDF or XLSX.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ukydev/fleetdash/internal/analytics"
	"github.com/ukydev/fleetdash/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Kind selects which sections a report contains.
type Kind string

const (
	KindFleet       Kind = "fleet"
	KindMaintenance Kind = "maintenance"
	KindFuel        Kind = "fuel"
	KindDrivers     Kind = "drivers"
	KindTrips       Kind = "trips"
)

// IsValidKind reports whether k is a known report kind.
func IsValidKind(k Kind) bool {
	switch k {
	case KindFleet, KindMaintenance, KindFuel, KindDrivers, KindTrips:
		return true
	default:
		return false
	}
}

// Filters narrows the report rows.
type Filters struct {
	Kind         Kind
	From         time.Time
	To           time.Time
	VehicleID    string
	VehiclePlate string
}

// Summary renders the filters as one line for the document header.
func (f Filters) Summary() string {
	parts := []string{"Report: " + capitalize(string(f.Kind))}
	switch {
	case !f.From.IsZero() && !f.To.IsZero():
		parts = append(parts, fmt.Sprintf("Period: %s to %s", f.From.Format(dateLayout), f.To.Format(dateLayout)))
	case !f.From.IsZero():
		parts = append(parts, "From: "+f.From.Format(dateLayout))
	case !f.To.IsZero():
		parts = append(parts, "Until: "+f.To.Format(dateLayout))
	default:
		parts = append(parts, "Period: all time")
	}
	if f.VehiclePlate != "" {
		parts = append(parts, "Vehicle: "+f.VehiclePlate)
	} else if f.VehicleID != "" {
		parts = append(parts, "Vehicle: "+f.VehicleID)
	}
	return strings.Join(parts, " | ")
}

// SectionKind is the presentation of a section body.
type SectionKind string

const (
	SectionTable SectionKind = "table"
	SectionText  SectionKind = "text"
	SectionList  SectionKind = "list"
)

// Metric is one cell of the executive summary grid.
type Metric struct {
	Label string
	Value string
}

// Section is one titled block of the document body.
type Section struct {
	Title   string
	Kind    SectionKind
	Columns []string
	Rows    [][]string
	Text    string
	Items   []Metric
}

// Document is the renderer-independent report model.
type Document struct {
	Title         string
	Subtitle      string
	GeneratedAt   time.Time
	FilterSummary string
	Summary       []Metric
	Sections      []Section
}

const (
	brandName  = "FleetDash"
	dateLayout = "2006-01-02"
)

// Format builds the document for filters from the aggregated metrics and the
// rows they were computed from.
func Format(m analytics.MetricsView, rows analytics.Input, filters Filters) *Document {
	if !IsValidKind(filters.Kind) {
		filters.Kind = KindFleet
	}
	plates := make(map[primitive.ObjectID]string, len(rows.Vehicles))
	for _, v := range rows.Vehicles {
		plates[v.ID] = v.LicensePlate
	}
	plate := func(id primitive.ObjectID) string {
		if p, ok := plates[id]; ok {
			return p
		}
		return "-"
	}

	doc := &Document{
		Title:         brandName + " " + capitalize(string(filters.Kind)) + " Report",
		Subtitle:      "Fleet management summary",
		GeneratedAt:   m.GeneratedAt,
		FilterSummary: filters.Summary(),
	}

	switch filters.Kind {
	case KindMaintenance:
		doc.Summary = []Metric{
			{"Maintenance Cost", money(m.TotalMaintenanceCost)},
			{"Service Records", fmt.Sprint(len(rows.MaintenanceLogs))},
			{"In Maintenance", fmt.Sprint(m.MaintenanceVehicles)},
			{"Vehicles", fmt.Sprint(m.TotalVehicles)},
		}
		doc.Sections = append(doc.Sections,
			maintenanceTable(rows.MaintenanceLogs, plate),
			vehicleServiceList(rows.Vehicles),
			monthlyTable(m.MonthlyData),
		)
	case KindFuel:
		doc.Summary = []Metric{
			{"Fuel Cost", money(m.TotalFuelCost)},
			{"Fuel Used", fmt.Sprintf("%.1f L", m.FuelConsumption)},
			{"Refuellings", fmt.Sprint(len(rows.FuelLogs))},
			{"Avg Efficiency", fmt.Sprintf("%.1f km/L", m.AvgFuelEfficiency)},
		}
		doc.Sections = append(doc.Sections,
			fuelTable(rows.FuelLogs, plate),
			monthlyTable(m.MonthlyData),
		)
	case KindDrivers:
		doc.Summary = []Metric{
			{"Drivers", fmt.Sprint(m.TotalDrivers)},
			{"Avg Score", fmt.Sprint(m.AvgPerformanceScore)},
			{"Total Trips", fmt.Sprint(m.TotalTrips)},
		}
		doc.Sections = append(doc.Sections,
			driverRankingList(m.DriverPerformance),
			driverTable(rows.Drivers),
		)
	case KindTrips:
		doc.Summary = []Metric{
			{"Total Trips", fmt.Sprint(m.TotalTrips)},
			{"Active", fmt.Sprint(m.ActiveTrips)},
			{"Completed", fmt.Sprint(m.CompletedTrips)},
			{"On Time Today", fmt.Sprintf("%d%%", m.OnTimePercentage)},
			{"Distance", fmt.Sprintf("%.1f km", m.TotalDistanceKm)},
		}
		doc.Sections = append(doc.Sections,
			routeTable(m.RoutePerformance),
			tripTable(rows.Trips, plate),
		)
	default:
		doc.Summary = []Metric{
			{"Vehicles", fmt.Sprint(m.TotalVehicles)},
			{"Active", fmt.Sprint(m.ActiveVehicles)},
			{"Drivers", fmt.Sprint(m.TotalDrivers)},
			{"Active Trips", fmt.Sprint(m.ActiveTrips)},
			{"Fuel Cost", money(m.TotalFuelCost)},
			{"Maintenance Cost", money(m.TotalMaintenanceCost)},
			{"Avg Driver Score", fmt.Sprint(m.AvgPerformanceScore)},
			{"On Time Today", fmt.Sprintf("%d%%", m.OnTimePercentage)},
		}
		doc.Sections = append(doc.Sections,
			Section{Title: "Overview", Kind: SectionText, Text: fleetOverview(m)},
			Section{Title: "Fleet Status", Kind: SectionList, Items: []Metric{
				{"Active", fmt.Sprint(m.ActiveVehicles)},
				{"Idle", fmt.Sprint(m.IdleVehicles)},
				{"In maintenance", fmt.Sprint(m.MaintenanceVehicles)},
				{"Inactive", fmt.Sprint(m.InactiveVehicles)},
			}},
			vehicleTable(rows.Vehicles),
			routeTable(m.RoutePerformance),
			monthlyTable(m.MonthlyData),
		)
	}
	return doc
}

func fleetOverview(m analytics.MetricsView) string {
	return fmt.Sprintf("The fleet operates %d vehicles with %d drivers. %d trips are in progress and %d have been completed, covering %.1f km in total. "+
		"Fuel spending amounts to %s for %.1f liters and maintenance to %s.",
		m.TotalVehicles, m.TotalDrivers, m.ActiveTrips, m.CompletedTrips, m.TotalDistanceKm,
		money(m.TotalFuelCost), m.FuelConsumption, money(m.TotalMaintenanceCost))
}

func vehicleTable(vehicles []models.Vehicle) Section {
	s := Section{Title: "Vehicles", Kind: SectionTable,
		Columns: []string{"Plate", "Type", "Status", "Maintenance", "Route", "km/L"}}
	for _, v := range vehicles {
		route := "-"
		if v.RouteAssigned != nil && *v.RouteAssigned != "" {
			route = *v.RouteAssigned
		}
		s.Rows = append(s.Rows, []string{v.LicensePlate, v.VehicleType, string(v.Status),
			string(v.MaintenanceStatus), route, fmt.Sprintf("%.1f", v.FuelEfficiencyKML)})
	}
	return s
}

func vehicleServiceList(vehicles []models.Vehicle) Section {
	s := Section{Title: "Next Service", Kind: SectionList}
	for _, v := range vehicles {
		s.Items = append(s.Items, Metric{v.LicensePlate, date(v.NextServiceDate)})
	}
	return s
}

func maintenanceTable(logs []models.MaintenanceLog, plate func(primitive.ObjectID) string) Section {
	s := Section{Title: "Service Records", Kind: SectionTable,
		Columns: []string{"Date", "Vehicle", "Service", "Cost", "Next Due"}}
	sorted := append([]models.MaintenanceLog(nil), logs...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].DatePerformed.After(sorted[j].DatePerformed) })
	for _, l := range sorted {
		s.Rows = append(s.Rows, []string{l.DatePerformed.Format(dateLayout), plate(l.VehicleID),
			l.ServiceType, money(l.Cost), date(l.NextDueDate)})
	}
	return s
}

func fuelTable(logs []models.FuelLog, plate func(primitive.ObjectID) string) Section {
	s := Section{Title: "Refuellings", Kind: SectionTable,
		Columns: []string{"Date", "Vehicle", "Liters", "Price/L", "Cost"}}
	sorted := append([]models.FuelLog(nil), logs...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.After(sorted[j].Date) })
	for _, f := range sorted {
		s.Rows = append(s.Rows, []string{f.Date.Format(dateLayout), plate(f.VehicleID),
			fmt.Sprintf("%.1f", f.Liters), money(f.PricePerLiter), money(f.Cost())})
	}
	return s
}

func driverTable(drivers []models.DriverDetail) Section {
	s := Section{Title: "Drivers", Kind: SectionTable,
		Columns: []string{"Name", "License", "Score", "Trips", "Speeding", "Harsh Braking"}}
	for _, d := range drivers {
		name := d.FullName()
		if name == "" {
			name = "Unknown"
		}
		s.Rows = append(s.Rows, []string{name, d.LicenseNumber, fmt.Sprintf("%.0f", d.PerformanceScore),
			fmt.Sprint(d.TotalTrips), fmt.Sprint(d.SpeedingIncidents), fmt.Sprint(d.HarshBrakingEvents)})
	}
	return s
}

func driverRankingList(ranking []analytics.DriverScore) Section {
	s := Section{Title: "Top Drivers", Kind: SectionList}
	for i, d := range ranking {
		s.Items = append(s.Items, Metric{fmt.Sprintf("%d. %s", i+1, d.Name),
			fmt.Sprintf("score %.0f, %d trips", d.Score, d.Trips)})
	}
	return s
}

func tripTable(trips []models.Trip, plate func(primitive.ObjectID) string) Section {
	s := Section{Title: "Trips", Kind: SectionTable,
		Columns: []string{"Start", "Route", "Vehicle", "Status", "Progress", "Distance"}}
	for _, t := range trips {
		s.Rows = append(s.Rows, []string{t.StartTime.Format(dateLayout), t.RouteName, plate(t.VehicleID),
			string(t.Status), fmt.Sprintf("%.0f%%", t.ProgressPercent), fmt.Sprintf("%.1f km", t.DistanceKm)})
	}
	return s
}

func routeTable(routes []analytics.RoutePerformance) Section {
	s := Section{Title: "Route Performance", Kind: SectionTable,
		Columns: []string{"Route", "On Time", "Trips"}}
	for _, r := range routes {
		s.Rows = append(s.Rows, []string{r.Route, fmt.Sprintf("%d%%", r.OnTime), fmt.Sprint(r.Total)})
	}
	return s
}

func monthlyTable(months []analytics.MonthlyCost) Section {
	s := Section{Title: "Monthly Costs", Kind: SectionTable,
		Columns: []string{"Month", "Fuel", "Maintenance", "Total"}}
	for _, b := range months {
		s.Rows = append(s.Rows, []string{fmt.Sprintf("%s %d", b.Month, b.Year), money(b.Fuel),
			money(b.Maintenance), money(b.Fuel + b.Maintenance)})
	}
	return s
}

func money(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

func date(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(dateLayout)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
