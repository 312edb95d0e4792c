package handlers

import (
	"net/http"
	"time"

	"github.com/ukydev/fleetdash/internal/db"
	"github.com/ukydev/fleetdash/internal/models"
	"github.com/ukydev/fleetdash/internal/realtime"
)

var tripList = listOptions{
	vehicleField: "vehicle_id",
	sortable:     []string{"start_time", "end_time", "status", "route_name", "progress_percent", "created_at"},
	defaultSort:  "start_time",
	defaultDesc:  true,
}

// TripHandler serves /api/trips.
type TripHandler struct {
	resource
	trips db.TripCollection
	now   func() time.Time
}

// NewTripHandler creates a trip handler.
func NewTripHandler(trips db.TripCollection, publisher realtime.Publisher) *TripHandler {
	return &TripHandler{
		resource: newResource(realtime.TableTrips, "trip", publisher),
		trips:    trips,
		now:      time.Now,
	}
}

type tripForm struct {
	VehicleID              string            `json:"vehicle_id" validate:"required,hexadecimal,len=24"`
	DriverID               string            `json:"driver_id" validate:"omitempty,hexadecimal,len=24"`
	RouteName              string            `json:"route_name" validate:"required"`
	StartLocation          string            `json:"start_location"`
	EndLocation            string            `json:"end_location"`
	StartTime              *Date             `json:"start_time"`
	EndTime                *Date             `json:"end_time"`
	Status                 models.TripStatus `json:"status" validate:"omitempty,oneof=scheduled in_progress completed cancelled"`
	ProgressPercent        float64           `json:"progress_percent" validate:"gte=0,lte=100"`
	EstimatedDurationHours *float64          `json:"estimated_duration_hours" validate:"omitempty,gte=0"`
	DistanceKm             *float64          `json:"distance_km" validate:"omitempty,gte=0"`
}

// apply copies the form onto t. A missing start time, estimate or distance
// keeps the stored value (start defaults to now for a new trip); a
// completed trip keeps its stored end time unless a new one is given.
func (f tripForm) apply(t *models.Trip, now time.Time) {
	start := now
	if !t.StartTime.IsZero() {
		start = t.StartTime
	}
	end := f.EndTime.Ptr()
	if end == nil && f.Status == models.TripCompleted {
		end = t.EndTime
	}

	t.VehicleID = objectID(f.VehicleID)
	t.DriverID = optionalID(f.DriverID)
	t.RouteName = f.RouteName
	t.StartLocation = f.StartLocation
	t.EndLocation = f.EndLocation
	t.StartTime = f.StartTime.Or(start)
	t.EndTime = end
	t.Status = f.Status
	if t.Status == "" {
		t.Status = models.TripScheduled
	}
	t.ProgressPercent = f.ProgressPercent
	if f.EstimatedDurationHours != nil {
		t.EstimatedDurationHours = *f.EstimatedDurationHours
	}
	if f.DistanceKm != nil {
		t.DistanceKm = *f.DistanceKm
	}

	if t.Status == models.TripCompleted {
		t.ProgressPercent = 100
		if t.EndTime == nil {
			stamp := now.UTC()
			t.EndTime = &stamp
		}
	}
}

// List returns trips, most recent start first. With expand=1 each row
// carries the vehicle plate and driver name.
func (h *TripHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := parseListQuery(r, tripList)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var rows any
	if expand(r) {
		rows, err = h.trips.FindTripDetails(r.Context(), q)
	} else {
		rows, err = h.trips.FindTrips(r.Context(), q)
	}
	if err != nil {
		writeStoreError(w, r, err, h.name)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// Get returns one trip.
func (h *TripHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := h.trips.FindTripByID(r.Context(), pathID(r))
	if err != nil {
		writeStoreError(w, r, err, h.name)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// Create inserts a trip.
func (h *TripHandler) Create(w http.ResponseWriter, r *http.Request) {
	var form tripForm
	if !h.bind(w, r, &form) {
		return
	}
	var t models.Trip
	form.apply(&t, h.now())
	if err := h.trips.InsertTrip(r.Context(), &t); err != nil {
		writeStoreError(w, r, err, h.name)
		return
	}
	h.changed(realtime.OpInsert, t.ID.Hex())
	writeJSON(w, http.StatusCreated, t)
}

// Update replaces a trip. Completing a trip stamps its end time when none
// is given.
func (h *TripHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	var form tripForm
	if !h.bind(w, r, &form) {
		return
	}
	t, err := h.trips.FindTripByID(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, err, h.name)
		return
	}
	form.apply(t, h.now())
	if err := h.trips.UpdateTrip(r.Context(), id, *t); err != nil {
		writeStoreError(w, r, err, h.name)
		return
	}
	h.changed(realtime.OpUpdate, id)
	writeJSON(w, http.StatusOK, t)
}

// Delete removes a trip.
func (h *TripHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	if err := h.trips.DeleteTrip(r.Context(), id); err != nil {
		writeStoreError(w, r, err, h.name)
		return
	}
	h.changed(realtime.OpDelete, id)
	w.WriteHeader(http.StatusNoContent)
}
