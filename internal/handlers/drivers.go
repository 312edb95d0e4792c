package handlers

import (
	"net/http"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleetdash/internal/db"
	"github.com/ukydev/fleetdash/internal/models"
	"github.com/ukydev/fleetdash/internal/realtime"
)

var driverList = listOptions{
	vehicleField: "assigned_vehicle_id",
	sortable:     []string{"performance_score", "total_trips", "license_number", "created_at"},
	defaultSort:  "created_at",
	defaultDesc:  true,
}

// DriverHandler serves /api/drivers.
type DriverHandler struct {
	resource
	drivers db.DriverCollection
}

// NewDriverHandler creates a driver handler.
func NewDriverHandler(drivers db.DriverCollection, publisher realtime.Publisher) *DriverHandler {
	return &DriverHandler{
		resource: newResource(realtime.TableDrivers, "driver", publisher),
		drivers:  drivers,
	}
}

type driverForm struct {
	ProfileID          string   `json:"profile_id" validate:"omitempty,hexadecimal,len=24"`
	LicenseNumber      string   `json:"license_number" validate:"required"`
	PerformanceScore   *float64 `json:"performance_score" validate:"omitempty,gte=0,lte=100"`
	TotalTrips         int      `json:"total_trips" validate:"gte=0"`
	SpeedingIncidents  int      `json:"speeding_incidents" validate:"gte=0"`
	HarshBrakingEvents int      `json:"harsh_braking_events" validate:"gte=0"`
	IdleTimeHours      float64  `json:"idle_time_hours" validate:"gte=0"`
	AssignedVehicleID  string   `json:"assigned_vehicle_id" validate:"omitempty,hexadecimal,len=24"`
}

func (f driverForm) apply(d *models.Driver) {
	d.ProfileID = optionalID(f.ProfileID)
	d.LicenseNumber = f.LicenseNumber
	d.PerformanceScore = models.DefaultPerformanceScore
	if f.PerformanceScore != nil {
		d.PerformanceScore = *f.PerformanceScore
	}
	d.TotalTrips = f.TotalTrips
	d.SpeedingIncidents = f.SpeedingIncidents
	d.HarshBrakingEvents = f.HarshBrakingEvents
	d.IdleTimeHours = f.IdleTimeHours
	d.AssignedVehicleID = optionalID(f.AssignedVehicleID)
}

// List returns drivers. With expand=1 each row carries its profile and
// assigned vehicle.
func (h *DriverHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := parseListQuery(r, driverList)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var rows any
	if expand(r) {
		rows, err = h.drivers.FindDriverDetails(r.Context(), q)
	} else {
		rows, err = h.drivers.FindDrivers(r.Context(), q)
	}
	if err != nil {
		writeStoreError(w, r, err, h.name)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// Get returns one driver.
func (h *DriverHandler) Get(w http.ResponseWriter, r *http.Request) {
	d, err := h.drivers.FindDriverByID(r.Context(), pathID(r))
	if err != nil {
		writeStoreError(w, r, err, h.name)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// Create inserts a driver.
func (h *DriverHandler) Create(w http.ResponseWriter, r *http.Request) {
	var form driverForm
	if !h.bind(w, r, &form) {
		return
	}
	var d models.Driver
	form.apply(&d)
	if err := h.drivers.InsertDriver(r.Context(), &d); err != nil {
		writeStoreError(w, r, err, h.name)
		return
	}
	h.release(r, d)
	h.changed(realtime.OpInsert, d.ID.Hex())
	writeJSON(w, http.StatusCreated, d)
}

// Update replaces the editable fields of a driver.
func (h *DriverHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	var form driverForm
	if !h.bind(w, r, &form) {
		return
	}
	d, err := h.drivers.FindDriverByID(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, err, h.name)
		return
	}
	form.apply(d)
	if err := h.drivers.UpdateDriver(r.Context(), id, *d); err != nil {
		writeStoreError(w, r, err, h.name)
		return
	}
	h.release(r, *d)
	h.changed(realtime.OpUpdate, id)
	writeJSON(w, http.StatusOK, d)
}

// Delete removes a driver.
func (h *DriverHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	if err := h.drivers.DeleteDriver(r.Context(), id); err != nil {
		writeStoreError(w, r, err, h.name)
		return
	}
	h.changed(realtime.OpDelete, id)
	w.WriteHeader(http.StatusNoContent)
}

// release unassigns the driver's vehicle from everyone else.
func (h *DriverHandler) release(r *http.Request, d models.Driver) {
	if d.AssignedVehicleID == nil {
		return
	}
	if err := h.drivers.ReleaseVehicle(r.Context(), *d.AssignedVehicleID, d.ID); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"driver_id":  d.ID.Hex(),
			"vehicle_id": d.AssignedVehicleID.Hex(),
		}).Warn("Failed to release vehicle from other drivers")
	}
}
