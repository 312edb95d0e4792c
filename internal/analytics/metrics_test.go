package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleetdash/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var now = time.Date(2026, 10, 19, 14, 0, 0, 0, time.UTC)

func driver(name string, score float64, trips int) models.DriverDetail {
	d := models.DriverDetail{Driver: models.Driver{ID: primitive.NewObjectID(), PerformanceScore: score, TotalTrips: trips}}
	if name != "" {
		d.Profile = &models.ProfileSummary{FullName: name}
	}
	return d
}

func TestRoutePerformance_Grouping(t *testing.T) {
	trips := []models.Trip{
		{RouteName: "A", Status: models.TripCompleted},
		{RouteName: "A", Status: models.TripCancelled},
		{RouteName: "B", Status: models.TripInProgress},
	}
	got := RoutePerformanceOf(trips)
	assert.Equal(t, []RoutePerformance{
		{Route: "A", OnTime: 50, Total: 2},
		{Route: "B", OnTime: 100, Total: 1},
	}, got)
}

func TestRoutePerformance_LabelsAndCap(t *testing.T) {
	var trips []models.Trip
	for _, r := range []string{"Northern Highway Loop", "", "r3", "r4", "r5", "r6", "r7"} {
		trips = append(trips, models.Trip{RouteName: r, Status: models.TripScheduled})
	}
	got := RoutePerformanceOf(trips)
	require.Len(t, got, 6)
	assert.Equal(t, "Northern Highwa...", got[0].Route)
	assert.Equal(t, "Unknown", got[1].Route)
	assert.Equal(t, 0, got[0].OnTime)
	assert.Equal(t, "r6", got[5].Route)
}

func TestMonthlyData_AlwaysSixBuckets(t *testing.T) {
	got := MonthlyData(nil, nil, now)
	require.Len(t, got, 6)
	for _, b := range got {
		assert.Zero(t, b.Fuel)
		assert.Zero(t, b.Maintenance)
	}
	assert.Equal(t, "May", got[0].Month)
	assert.Equal(t, "Oct", got[5].Month)
	assert.Equal(t, 2026, got[5].Year)
}

func TestMonthlyData_Buckets(t *testing.T) {
	fuel := []models.FuelLog{
		{Liters: 10, PricePerLiter: 2, TotalCost: 999, Date: time.Date(2026, 10, 2, 0, 0, 0, 0, time.UTC)},
		{Liters: 5, PricePerLiter: 1, Date: time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)},
		{Liters: 50, PricePerLiter: 1, Date: time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC)}, // outside
	}
	maint := []models.MaintenanceLog{
		{Cost: 300, DatePerformed: time.Date(2026, 10, 10, 0, 0, 0, 0, time.UTC)},
		{Cost: 40, DatePerformed: time.Date(2025, 10, 10, 0, 0, 0, 0, time.UTC)}, // same month, prior year
	}
	got := MonthlyData(fuel, maint, now)
	require.Len(t, got, 6)
	assert.Equal(t, 20.0, got[5].Fuel)
	assert.Equal(t, 300.0, got[5].Maintenance)
	assert.Equal(t, "Jun", got[1].Month)
	assert.Equal(t, 5.0, got[1].Fuel)
	assert.Zero(t, got[0].Fuel)
}

func TestMonthlyData_WindowCrossesYear(t *testing.T) {
	got := MonthlyData(nil, nil, time.Date(2027, 2, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "Sep", got[0].Month)
	assert.Equal(t, 2026, got[0].Year)
	assert.Equal(t, 2027, got[5].Year)
}

func TestOnTimePercentage(t *testing.T) {
	end := func(t time.Time) *time.Time { return &t }
	startToday := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)

	t.Run("no eligible trips", func(t *testing.T) {
		assert.Equal(t, 100, OnTimePercentage(nil, now))
		trips := []models.Trip{
			{Status: models.TripInProgress, StartTime: startToday, EstimatedDurationHours: 2},
			{Status: models.TripCompleted, StartTime: startToday, EstimatedDurationHours: 2},
			{Status: models.TripCompleted, StartTime: startToday, EndTime: end(startToday.Add(time.Hour))},
			{Status: models.TripCompleted, StartTime: startToday.Add(-48 * time.Hour), EndTime: end(startToday.Add(-47 * time.Hour)), EstimatedDurationHours: 1},
		}
		assert.Equal(t, 100, OnTimePercentage(trips, now))
	})

	t.Run("grace window", func(t *testing.T) {
		trips := []models.Trip{
			{Status: models.TripCompleted, StartTime: startToday, EndTime: end(startToday.Add(105 * time.Minute)), EstimatedDurationHours: 100.0 / 60},
			{Status: models.TripCompleted, StartTime: startToday, EndTime: end(startToday.Add(3 * time.Hour)), EstimatedDurationHours: 2},
			{Status: models.TripCompleted, StartTime: startToday, EndTime: end(startToday.Add(time.Hour)), EstimatedDurationHours: 2},
		}
		assert.Equal(t, 67, OnTimePercentage(trips, now))
	})
}

func TestDriverPerformance(t *testing.T) {
	drivers := []models.DriverDetail{
		driver("Ana Lopez", 70, 3),
		driver("Ben Ode", 95, 10),
		driver("", 80, 1),
		driver("Cy", 60, 2),
		driver("Di Ma", 99, 4),
		driver("Ed Fox", 65, 0),
	}
	got := DriverPerformance(drivers)
	require.Len(t, got, 5)
	assert.Equal(t, DriverScore{Name: "Di", Score: 99, Trips: 4}, got[0])
	assert.Equal(t, "Ben", got[1].Name)
	assert.Equal(t, "Unknown", got[2].Name)
	assert.Equal(t, "Ed", got[4].Name)
}

func TestAggregate(t *testing.T) {
	in := Input{
		Vehicles: []models.Vehicle{
			{Status: models.VehicleActive, FuelEfficiencyKML: 10},
			{Status: models.VehicleMaintenance, FuelEfficiencyKML: 6},
			{Status: models.VehicleIdle, FuelEfficiencyKML: 8},
		},
		Drivers: []models.DriverDetail{driver("A B", 90, 1), driver("C D", 85, 2)},
		Trips: []models.Trip{
			{RouteName: "X", Status: models.TripInProgress, DistanceKm: 12},
			{RouteName: "X", Status: models.TripCompleted, DistanceKm: 30},
		},
		FuelLogs:        []models.FuelLog{{Liters: 40, PricePerLiter: 1.5, TotalCost: 1}, {Liters: 10, PricePerLiter: 2}},
		MaintenanceLogs: []models.MaintenanceLog{{Cost: 120}, {Cost: 80.5}},
	}

	m := Aggregate(in, now)
	assert.Equal(t, 3, m.TotalVehicles)
	assert.Equal(t, 1, m.ActiveVehicles)
	assert.Equal(t, 1, m.MaintenanceVehicles)
	assert.Equal(t, 1, m.IdleVehicles)
	assert.Equal(t, 2, m.TotalDrivers)
	assert.Equal(t, 1, m.ActiveTrips)
	assert.Equal(t, 1, m.CompletedTrips)
	assert.InDelta(t, 42.0, m.TotalDistanceKm, 1e-9)
	assert.InDelta(t, 8.0, m.AvgFuelEfficiency, 1e-9)
	assert.InDelta(t, 80.0, m.TotalFuelCost, 1e-9)
	assert.InDelta(t, 50.0, m.FuelConsumption, 1e-9)
	assert.InDelta(t, 200.5, m.TotalMaintenanceCost, 1e-9)
	assert.Equal(t, 88, m.AvgPerformanceScore)
	assert.Equal(t, 100, m.OnTimePercentage)
	assert.Len(t, m.MonthlyData, 6)
	assert.Equal(t, []RoutePerformance{{Route: "X", OnTime: 100, Total: 2}}, m.RoutePerformance)
}

func TestAggregate_Empty(t *testing.T) {
	m := Aggregate(Input{}, now)
	assert.Zero(t, m.AvgPerformanceScore)
	assert.Zero(t, m.AvgFuelEfficiency)
	assert.Empty(t, m.RoutePerformance)
	assert.Empty(t, m.DriverPerformance)
	assert.Len(t, m.MonthlyData, 6)
	assert.Equal(t, 100, m.OnTimePercentage)
}

func TestInput_Restrict(t *testing.T) {
	v1, v2 := primitive.NewObjectID(), primitive.NewObjectID()
	in := Input{
		Vehicles: []models.Vehicle{{ID: v1}, {ID: v2}},
		Drivers:  []models.DriverDetail{{Driver: models.Driver{AssignedVehicleID: &v1}}, {}},
		FuelLogs: []models.FuelLog{
			{VehicleID: v1, Date: now.AddDate(0, 0, -3)},
			{VehicleID: v1, Date: now.AddDate(0, -2, 0)},
			{VehicleID: v2, Date: now},
		},
	}
	got := in.Restrict(&v1, now.AddDate(0, 0, -7), time.Time{})
	assert.Len(t, got.Vehicles, 1)
	assert.Len(t, got.Drivers, 1)
	assert.Len(t, got.FuelLogs, 1)

	all := in.Restrict(nil, time.Time{}, time.Time{})
	assert.Len(t, all.FuelLogs, 3)
	assert.Len(t, all.Drivers, 2)
}

func TestRound(t *testing.T) {
	assert.Equal(t, 13, round(12.5))
	assert.Equal(t, 12, round(12.49))
	assert.Equal(t, 67, round(200.0/3))
}
