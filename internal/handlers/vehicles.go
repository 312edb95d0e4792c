package handlers

import (
	"net/http"
	"time"

	"github.com/ukydev/fleetdash/internal/db"
	"github.com/ukydev/fleetdash/internal/models"
	"github.com/ukydev/fleetdash/internal/realtime"
)

var vehicleList = listOptions{
	vehicleField: "_id",
	sortable:     []string{"license_plate", "status", "maintenance_status", "created_at", "updated_at", "next_service_date", "insurance_expiry"},
	defaultSort:  "created_at",
	defaultDesc:  true,
}

// VehicleHandler serves /api/vehicles.
type VehicleHandler struct {
	resource
	vehicles db.VehicleCollection
	now      func() time.Time
}

// NewVehicleHandler creates a vehicle handler that reports writes to publisher.
func NewVehicleHandler(vehicles db.VehicleCollection, publisher realtime.Publisher) *VehicleHandler {
	return &VehicleHandler{
		resource: newResource(realtime.TableVehicles, "vehicle", publisher),
		vehicles: vehicles,
		now:      time.Now,
	}
}

type vehicleForm struct {
	LicensePlate           string                   `json:"license_plate" validate:"required,max=20"`
	VehicleType            string                   `json:"vehicle_type" validate:"required"`
	Status                 models.VehicleStatus     `json:"status" validate:"omitempty,oneof=active maintenance inactive idle"`
	RouteAssigned          *string                  `json:"route_assigned"`
	MaintenanceStatus      models.MaintenanceStatus `json:"maintenance_status" validate:"omitempty,oneof=good needs_service critical"`
	LastServiceDate        *Date                    `json:"last_service_date"`
	NextServiceDate        *Date                    `json:"next_service_date"`
	InsuranceExpiry        *Date                    `json:"insurance_expiry"`
	FuelEfficiencyKML      float64                  `json:"fuel_efficiency_kml" validate:"gte=0"`
	MonthlyFuelConsumption float64                  `json:"monthly_fuel_consumption" validate:"gte=0"`
}

func (f vehicleForm) apply(v *models.Vehicle) {
	v.LicensePlate = f.LicensePlate
	v.VehicleType = f.VehicleType
	v.Status = f.Status
	if v.Status == "" {
		v.Status = models.VehicleActive
	}
	v.RouteAssigned = f.RouteAssigned
	v.MaintenanceStatus = f.MaintenanceStatus
	if v.MaintenanceStatus == "" {
		v.MaintenanceStatus = models.MaintenanceGood
	}
	v.LastServiceDate = f.LastServiceDate.Ptr()
	v.NextServiceDate = f.NextServiceDate.Ptr()
	v.InsuranceExpiry = f.InsuranceExpiry.Ptr()
	v.FuelEfficiencyKML = f.FuelEfficiencyKML
	v.MonthlyFuelConsumption = f.MonthlyFuelConsumption
}

// List returns vehicles, newest first unless ordered otherwise.
func (h *VehicleHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := parseListQuery(r, vehicleList)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	vehicles, err := h.vehicles.FindVehicles(r.Context(), q)
	if err != nil {
		writeStoreError(w, r, err, h.name)
		return
	}
	writeJSON(w, http.StatusOK, vehicles)
}

// Get returns one vehicle.
func (h *VehicleHandler) Get(w http.ResponseWriter, r *http.Request) {
	v, err := h.vehicles.FindVehicleByID(r.Context(), pathID(r))
	if err != nil {
		writeStoreError(w, r, err, h.name)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// Create inserts a vehicle.
func (h *VehicleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var form vehicleForm
	if !h.bind(w, r, &form) {
		return
	}
	var v models.Vehicle
	form.apply(&v)
	if err := h.vehicles.InsertVehicle(r.Context(), &v); err != nil {
		writeStoreError(w, r, err, h.name)
		return
	}
	h.changed(realtime.OpInsert, v.ID.Hex())
	writeJSON(w, http.StatusCreated, v)
}

// Update replaces the editable fields of a vehicle. The last known position
// is kept; it only changes through Position.
func (h *VehicleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	var form vehicleForm
	if !h.bind(w, r, &form) {
		return
	}
	v, err := h.vehicles.FindVehicleByID(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, err, h.name)
		return
	}
	form.apply(v)
	if err := h.vehicles.UpdateVehicle(r.Context(), id, *v); err != nil {
		writeStoreError(w, r, err, h.name)
		return
	}
	v.UpdatedAt = h.now()
	h.changed(realtime.OpUpdate, id)
	writeJSON(w, http.StatusOK, v)
}

// Delete removes a vehicle.
func (h *VehicleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	if err := h.vehicles.DeleteVehicle(r.Context(), id); err != nil {
		writeStoreError(w, r, err, h.name)
		return
	}
	h.changed(realtime.OpDelete, id)
	w.WriteHeader(http.StatusNoContent)
}

type positionForm struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon float64 `json:"lon" validate:"gte=-180,lte=180"`
}

// Position records the last known location of a vehicle.
func (h *VehicleHandler) Position(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	var form positionForm
	if !h.bind(w, r, &form) {
		return
	}
	pos := models.Position{Lat: form.Lat, Lon: form.Lon, UpdatedAt: h.now().UTC()}
	if err := h.vehicles.UpdateVehiclePosition(r.Context(), id, pos); err != nil {
		writeStoreError(w, r, err, h.name)
		return
	}
	h.changed(realtime.OpUpdate, id)
	writeJSON(w, http.StatusOK, pos)
}
