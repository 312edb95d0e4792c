// Package analytics reduces fleet rows into the chart-ready series shown on
// the analytics dashboard.
package analytics

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/ukydev/fleetdash/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	routeLabelMax   = 15
	maxRouteGroups  = 6
	monthWindow     = 6
	topDrivers      = 5
	onTimeGrace     = 1.10
	unknownRoute    = "Unknown"
	unknownDriver   = "Unknown"
	defaultOnTimePc = 100
)

// Input holds the five row sets the aggregator works on. Nil slices are
// treated as empty.
type Input struct {
	Vehicles        []models.Vehicle        `json:"vehicles"`
	Drivers         []models.DriverDetail   `json:"drivers"`
	Trips           []models.Trip           `json:"trips"`
	FuelLogs        []models.FuelLog        `json:"fuel_logs"`
	MaintenanceLogs []models.MaintenanceLog `json:"maintenance_logs"`
}

// RoutePerformance is the on-time share of one route.
type RoutePerformance struct {
	Route  string `json:"route"`
	OnTime int    `json:"ontime"`
	Total  int    `json:"total"`
}

// MonthlyCost is one bucket of the rolling cost window.
type MonthlyCost struct {
	Month       string  `json:"month"`
	Year        int     `json:"year"`
	Fuel        float64 `json:"fuel"`
	Maintenance float64 `json:"maintenance"`
}

// DriverScore is one entry of the driver ranking.
type DriverScore struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
	Trips int     `json:"trips"`
}

// MetricsView is the aggregated dashboard payload.
type MetricsView struct {
	TotalVehicles       int `json:"total_vehicles"`
	ActiveVehicles      int `json:"active_vehicles"`
	MaintenanceVehicles int `json:"maintenance_vehicles"`
	IdleVehicles        int `json:"idle_vehicles"`
	InactiveVehicles    int `json:"inactive_vehicles"`
	TotalDrivers        int `json:"total_drivers"`
	TotalTrips          int `json:"total_trips"`
	ActiveTrips         int `json:"active_trips"`
	CompletedTrips      int `json:"completed_trips"`

	TotalDistanceKm      float64 `json:"total_distance_km"`
	AvgFuelEfficiency    float64 `json:"avg_fuel_efficiency"`
	TotalMaintenanceCost float64 `json:"total_maintenance_cost"`
	TotalFuelCost        float64 `json:"total_fuel_cost"`
	FuelConsumption      float64 `json:"fuel_consumption"`
	AvgPerformanceScore  int     `json:"avg_performance_score"`
	OnTimePercentage     int     `json:"on_time_percentage"`

	RoutePerformance  []RoutePerformance `json:"route_performance"`
	MonthlyData       []MonthlyCost      `json:"monthly_data"`
	DriverPerformance []DriverScore      `json:"driver_performance"`
	GeneratedAt       time.Time          `json:"generated_at"`
}

// Aggregate computes the metrics view for in as of now.
func Aggregate(in Input, now time.Time) MetricsView {
	m := MetricsView{
		TotalVehicles: len(in.Vehicles),
		TotalDrivers:  len(in.Drivers),
		TotalTrips:    len(in.Trips),
		GeneratedAt:   now,
	}

	var efficiencySum float64
	for _, v := range in.Vehicles {
		switch v.Status {
		case models.VehicleActive:
			m.ActiveVehicles++
		case models.VehicleMaintenance:
			m.MaintenanceVehicles++
		case models.VehicleIdle:
			m.IdleVehicles++
		case models.VehicleInactive:
			m.InactiveVehicles++
		}
		efficiencySum += v.FuelEfficiencyKML
	}
	if len(in.Vehicles) > 0 {
		m.AvgFuelEfficiency = efficiencySum / float64(len(in.Vehicles))
	}

	for _, t := range in.Trips {
		switch t.Status {
		case models.TripInProgress:
			m.ActiveTrips++
		case models.TripCompleted:
			m.CompletedTrips++
		}
		m.TotalDistanceKm += t.DistanceKm
	}

	for _, l := range in.MaintenanceLogs {
		m.TotalMaintenanceCost += l.Cost
	}
	for _, f := range in.FuelLogs {
		m.TotalFuelCost += f.Cost()
		m.FuelConsumption += f.Liters
	}

	m.AvgPerformanceScore = AveragePerformance(in.Drivers)
	m.RoutePerformance = RoutePerformanceOf(in.Trips)
	m.MonthlyData = MonthlyData(in.FuelLogs, in.MaintenanceLogs, now)
	m.DriverPerformance = DriverPerformance(in.Drivers)
	m.OnTimePercentage = OnTimePercentage(in.Trips, now)
	return m
}

// AveragePerformance returns the rounded mean driver score, 0 with no drivers.
func AveragePerformance(drivers []models.DriverDetail) int {
	if len(drivers) == 0 {
		return 0
	}
	var sum float64
	for _, d := range drivers {
		sum += d.PerformanceScore
	}
	return round(sum / float64(len(drivers)))
}

// RoutePerformanceOf groups trips by route name. Completed and in-progress
// trips count as on time. Only the first groups in insertion order are kept.
func RoutePerformanceOf(trips []models.Trip) []RoutePerformance {
	type group struct {
		ok, total int
	}
	var order []string
	groups := make(map[string]*group)
	for _, t := range trips {
		name := t.RouteName
		if name == "" {
			name = unknownRoute
		}
		g, seen := groups[name]
		if !seen {
			g = &group{}
			groups[name] = g
			order = append(order, name)
		}
		g.total++
		if t.Status == models.TripCompleted || t.Status == models.TripInProgress {
			g.ok++
		}
	}

	if len(order) > maxRouteGroups {
		order = order[:maxRouteGroups]
	}
	out := make([]RoutePerformance, 0, len(order))
	for _, name := range order {
		g := groups[name]
		out = append(out, RoutePerformance{
			Route:  routeLabel(name),
			OnTime: round(100 * float64(g.ok) / float64(g.total)),
			Total:  g.total,
		})
	}
	return out
}

func routeLabel(name string) string {
	r := []rune(name)
	if len(r) <= routeLabelMax {
		return name
	}
	return string(r[:routeLabelMax]) + "..."
}

// MonthlyData returns exactly six buckets ending at the month of now. Logs
// dated outside the window are ignored.
func MonthlyData(fuel []models.FuelLog, maintenance []models.MaintenanceLog, now time.Time) []MonthlyCost {
	now = now.UTC()
	out := make([]MonthlyCost, monthWindow)
	index := make(map[[2]int]int, monthWindow)
	for i := 0; i < monthWindow; i++ {
		first := time.Date(now.Year(), now.Month()-time.Month(monthWindow-1-i), 1, 0, 0, 0, 0, time.UTC)
		out[i] = MonthlyCost{Month: first.Format("Jan"), Year: first.Year()}
		index[monthKey(first)] = i
	}

	for _, f := range fuel {
		if i, ok := index[monthKey(f.Date)]; ok {
			out[i].Fuel += f.Cost()
		}
	}
	for _, l := range maintenance {
		if i, ok := index[monthKey(l.DatePerformed)]; ok {
			out[i].Maintenance += l.Cost
		}
	}
	return out
}

func monthKey(t time.Time) [2]int {
	t = t.UTC()
	return [2]int{t.Year(), int(t.Month())}
}

// DriverPerformance ranks drivers by score, highest first, and keeps the top
// five. Names are reduced to their first token.
func DriverPerformance(drivers []models.DriverDetail) []DriverScore {
	out := make([]DriverScore, 0, len(drivers))
	for _, d := range drivers {
		out = append(out, DriverScore{
			Name:  firstName(d.FullName()),
			Score: d.PerformanceScore,
			Trips: d.TotalTrips,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > topDrivers {
		out = out[:topDrivers]
	}
	return out
}

func firstName(full string) string {
	fields := strings.Fields(full)
	if len(fields) == 0 {
		return unknownDriver
	}
	return fields[0]
}

// OnTimePercentage is the share of trips completed today whose actual
// duration stayed within the estimate plus 10%. It is 100 when no trip
// qualifies.
func OnTimePercentage(trips []models.Trip, now time.Time) int {
	var eligible, onTime int
	today := dayKey(now)
	for _, t := range trips {
		if t.Status != models.TripCompleted || t.EndTime == nil || t.StartTime.IsZero() {
			continue
		}
		if t.EstimatedDurationHours <= 0 || dayKey(*t.EndTime) != today {
			continue
		}
		eligible++
		if t.EndTime.Sub(t.StartTime).Hours() <= t.EstimatedDurationHours*onTimeGrace {
			onTime++
		}
	}
	if eligible == 0 {
		return defaultOnTimePc
	}
	return round(100 * float64(onTime) / float64(eligible))
}

func dayKey(t time.Time) [3]int {
	y, m, d := t.UTC().Date()
	return [3]int{y, int(m), d}
}

// round rounds half up, so 12.5 becomes 13 and -12.5 becomes -12.
func round(x float64) int {
	return int(math.Floor(x + 0.5))
}

// Restrict narrows in to rows touching vehicleID (when set) and dated within
// [from, to] (zero bounds are open). Vehicles and drivers are filtered by
// vehicle only.
func (in Input) Restrict(vehicleID *primitive.ObjectID, from, to time.Time) Input {
	within := func(t time.Time) bool {
		if !from.IsZero() && t.Before(from) {
			return false
		}
		if !to.IsZero() && t.After(to) {
			return false
		}
		return true
	}
	match := func(id primitive.ObjectID) bool {
		return vehicleID == nil || id == *vehicleID
	}

	var out Input
	for _, v := range in.Vehicles {
		if match(v.ID) {
			out.Vehicles = append(out.Vehicles, v)
		}
	}
	for _, d := range in.Drivers {
		if vehicleID == nil || (d.AssignedVehicleID != nil && *d.AssignedVehicleID == *vehicleID) {
			out.Drivers = append(out.Drivers, d)
		}
	}
	for _, t := range in.Trips {
		if match(t.VehicleID) && within(t.StartTime) {
			out.Trips = append(out.Trips, t)
		}
	}
	for _, f := range in.FuelLogs {
		if match(f.VehicleID) && within(f.Date) {
			out.FuelLogs = append(out.FuelLogs, f)
		}
	}
	for _, l := range in.MaintenanceLogs {
		if match(l.VehicleID) && within(l.DatePerformed) {
			out.MaintenanceLogs = append(out.MaintenanceLogs, l)
		}
	}
	return out
}
