package handlers

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleetdash/internal/analytics"
	"github.com/ukydev/fleetdash/internal/db"
	"github.com/ukydev/fleetdash/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type stubDrivers struct {
	db.DriverCollection
	rows []models.DriverDetail
	err  error
}

func (s stubDrivers) FindDriverDetails(context.Context, db.Query) ([]models.DriverDetail, error) {
	return s.rows, s.err
}

type stubTrips struct {
	db.TripCollection
	rows []models.Trip
}

func (s stubTrips) FindTrips(context.Context, db.Query) ([]models.Trip, error) {
	return s.rows, nil
}

type stubFuel struct {
	db.FuelLogCollection
	rows []models.FuelLog
}

func (s stubFuel) FindFuelLogs(context.Context, db.Query) ([]models.FuelLog, error) {
	return s.rows, nil
}

type stubMaintenance struct {
	db.MaintenanceLogCollection
	rows []models.MaintenanceLog
}

func (s stubMaintenance) FindMaintenance(context.Context, db.Query) ([]models.MaintenanceLog, error) {
	return s.rows, nil
}

func newAnalyticsFixture(driverErr error) (*AnalyticsHandler, models.Vehicle) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	v := models.Vehicle{ID: primitive.NewObjectID(), LicensePlate: "RP-77", VehicleType: "Van", Status: models.VehicleActive}
	other := models.Vehicle{ID: primitive.NewObjectID(), LicensePlate: "ZZ-01", VehicleType: "Truck", Status: models.VehicleIdle}
	end := now.Add(-2 * time.Hour)
	src := analytics.Source{
		Vehicles: newMemVehicles(v, other),
		Drivers:  stubDrivers{err: driverErr},
		Trips: stubTrips{rows: []models.Trip{
			{ID: primitive.NewObjectID(), VehicleID: v.ID, RouteName: "Harbour", StartTime: now.Add(-3 * time.Hour), EndTime: &end,
				Status: models.TripCompleted, EstimatedDurationHours: 1.5, ProgressPercent: 100, DistanceKm: 40},
			{ID: primitive.NewObjectID(), VehicleID: other.ID, RouteName: "Ridge", StartTime: now.AddDate(0, -2, 0),
				Status: models.TripInProgress, ProgressPercent: 50, DistanceKm: 12},
		}},
		Fuel: stubFuel{rows: []models.FuelLog{
			{VehicleID: v.ID, Liters: 40, PricePerLiter: 1.5, TotalCost: 60, Date: now.AddDate(0, 0, -3)},
		}},
		Maintenance: stubMaintenance{rows: []models.MaintenanceLog{
			{VehicleID: other.ID, ServiceType: "inspection", Cost: 200, DatePerformed: now.AddDate(0, -1, 0)},
		}},
	}
	h := NewAnalyticsHandler(src)
	h.now = func() time.Time { return now }
	return h, v
}

func TestAnalyticsHandler_Metrics(t *testing.T) {
	h, _ := newAnalyticsFixture(errors.New("lookup timed out"))

	w := httptest.NewRecorder()
	h.Metrics(w, httptest.NewRequest(http.MethodGet, "/api/analytics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[metricsResponse](t, w)
	assert.Equal(t, 2, resp.TotalVehicles)
	assert.Equal(t, 2, resp.TotalTrips)
	assert.Equal(t, 0, resp.TotalDrivers)
	assert.Len(t, resp.MonthlyData, 6)
	require.Len(t, resp.Errors, 1)
	assert.Contains(t, resp.Errors[0], "fetch drivers")
}

func TestAnalyticsHandler_Report(t *testing.T) {
	h, v := newAnalyticsFixture(nil)

	t.Run("pdf", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.Report(w, httptest.NewRequest(http.MethodGet, "/api/reports?format=pdf&kind=trips&from=2026-10-01&to=2026-10-19", nil))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, contentTypePDF, w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), "fleetdash-trips-report-2026-10-19.pdf")
		assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))
	})

	t.Run("xlsx for one vehicle", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.Report(w, httptest.NewRequest(http.MethodGet, "/api/reports?format=xlsx&kind=fuel&vehicle_id="+v.ID.Hex(), nil))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, contentTypeXLSX, w.Header().Get("Content-Type"))
		assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")))
	})

	t.Run("defaults to a fleet pdf", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.Report(w, httptest.NewRequest(http.MethodGet, "/api/reports", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Disposition"), "fleetdash-fleet-report")
	})

	bad := []string{
		"/api/reports?format=docx",
		"/api/reports?kind=payroll",
		"/api/reports?from=yesterday",
		"/api/reports?to=2026-13-01",
		"/api/reports?vehicle_id=nope",
	}
	for _, target := range bad {
		t.Run(target, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.Report(w, httptest.NewRequest(http.MethodGet, target, nil))
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestParseDateParam(t *testing.T) {
	d, dateOnly, err := parseDateParam("2026-10-19")
	require.NoError(t, err)
	assert.True(t, dateOnly)
	assert.Equal(t, time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), d)

	d, dateOnly, err = parseDateParam("2026-10-19T10:00:00+02:00")
	require.NoError(t, err)
	assert.False(t, dateOnly)
	assert.Equal(t, 8, d.Hour())

	d, _, err = parseDateParam("")
	require.NoError(t, err)
	assert.True(t, d.IsZero())
}
