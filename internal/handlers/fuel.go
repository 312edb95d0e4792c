package handlers

import (
	"net/http"
	"time"

	"github.com/ukydev/fleetdash/internal/db"
	"github.com/ukydev/fleetdash/internal/models"
	"github.com/ukydev/fleetdash/internal/realtime"
)

var fuelList = listOptions{
	vehicleField: "vehicle_id",
	sortable:     []string{"date", "liters", "total_cost", "created_at"},
	defaultSort:  "date",
	defaultDesc:  true,
}

// FuelHandler serves /api/fuel.
type FuelHandler struct {
	resource
	logs db.FuelLogCollection
	now  func() time.Time
}

// NewFuelHandler creates a fuel log handler.
func NewFuelHandler(logs db.FuelLogCollection, publisher realtime.Publisher) *FuelHandler {
	return &FuelHandler{
		resource: newResource(realtime.TableFuel, "fuel log", publisher),
		logs:     logs,
		now:      time.Now,
	}
}

type fuelForm struct {
	VehicleID     string   `json:"vehicle_id" validate:"required,hexadecimal,len=24"`
	DriverID      string   `json:"driver_id" validate:"omitempty,hexadecimal,len=24"`
	Liters        float64  `json:"liters" validate:"gt=0"`
	PricePerLiter float64  `json:"price_per_liter" validate:"gte=0"`
	Route         *string  `json:"route"`
	OdometerKm    *float64 `json:"odometer_km" validate:"omitempty,gte=0"`
	Date          *Date    `json:"date"`
}

// apply copies the form; the total cost is always recomputed from liters
// and unit price.
func (f fuelForm) apply(l *models.FuelLog, now time.Time) {
	l.VehicleID = objectID(f.VehicleID)
	l.DriverID = optionalID(f.DriverID)
	l.Liters = f.Liters
	l.PricePerLiter = f.PricePerLiter
	l.TotalCost = l.Cost()
	l.Route = f.Route
	l.OdometerKm = f.OdometerKm
	l.Date = f.Date.Or(now.UTC())
}

// List returns fuel logs, newest first.
func (h *FuelHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := parseListQuery(r, fuelList)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	logs, err := h.logs.FindFuelLogs(r.Context(), q)
	if err != nil {
		writeStoreError(w, r, err, h.name)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

// Get returns one fuel log.
func (h *FuelHandler) Get(w http.ResponseWriter, r *http.Request) {
	l, err := h.logs.FindFuelLogByID(r.Context(), pathID(r))
	if err != nil {
		writeStoreError(w, r, err, h.name)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// Create inserts a fuel log.
func (h *FuelHandler) Create(w http.ResponseWriter, r *http.Request) {
	var form fuelForm
	if !h.bind(w, r, &form) {
		return
	}
	var l models.FuelLog
	form.apply(&l, h.now())
	if err := h.logs.InsertFuelLog(r.Context(), &l); err != nil {
		writeStoreError(w, r, err, h.name)
		return
	}
	h.changed(realtime.OpInsert, l.ID.Hex())
	writeJSON(w, http.StatusCreated, l)
}

// Update replaces a fuel log.
func (h *FuelHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	var form fuelForm
	if !h.bind(w, r, &form) {
		return
	}
	l, err := h.logs.FindFuelLogByID(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, err, h.name)
		return
	}
	form.apply(l, h.now())
	if err := h.logs.UpdateFuelLog(r.Context(), id, *l); err != nil {
		writeStoreError(w, r, err, h.name)
		return
	}
	h.changed(realtime.OpUpdate, id)
	writeJSON(w, http.StatusOK, l)
}

// Delete removes a fuel log.
func (h *FuelHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	if err := h.logs.DeleteFuelLog(r.Context(), id); err != nil {
		writeStoreError(w, r, err, h.name)
		return
	}
	h.changed(realtime.OpDelete, id)
	w.WriteHeader(http.StatusNoContent)
}
