package handlers

import (
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleetdash/internal/db"
	"github.com/ukydev/fleetdash/internal/models"
	"github.com/ukydev/fleetdash/internal/realtime"
)

var maintenanceList = listOptions{
	vehicleField: "vehicle_id",
	sortable:     []string{"date_performed", "next_due_date", "cost", "service_type", "created_at"},
	defaultSort:  "date_performed",
	defaultDesc:  true,
}

// MaintenanceHandler serves /api/maintenance.
type MaintenanceHandler struct {
	resource
	logs     db.MaintenanceLogCollection
	vehicles db.VehicleCollection
	now      func() time.Time
}

// NewMaintenanceHandler creates a maintenance handler. New logs stamp the
// service dates of their vehicle.
func NewMaintenanceHandler(logs db.MaintenanceLogCollection, vehicles db.VehicleCollection, publisher realtime.Publisher) *MaintenanceHandler {
	return &MaintenanceHandler{
		resource: newResource(realtime.TableMaintenance, "maintenance log", publisher),
		logs:     logs,
		vehicles: vehicles,
		now:      time.Now,
	}
}

type maintenanceForm struct {
	VehicleID     string  `json:"vehicle_id" validate:"required,hexadecimal,len=24"`
	ServiceType   string  `json:"service_type" validate:"required"`
	Description   string  `json:"description"`
	DatePerformed *Date   `json:"date_performed"`
	Cost          float64 `json:"cost" validate:"gte=0"`
	NextDueDate   *Date   `json:"next_due_date"`
}

func (f maintenanceForm) apply(m *models.MaintenanceLog, now time.Time) {
	m.VehicleID = objectID(f.VehicleID)
	m.ServiceType = f.ServiceType
	m.Description = f.Description
	m.DatePerformed = f.DatePerformed.Or(now.UTC())
	m.Cost = f.Cost
	m.NextDueDate = f.NextDueDate.Ptr()
}

// List returns maintenance logs. With expand=1 each row carries the vehicle
// plate.
func (h *MaintenanceHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := parseListQuery(r, maintenanceList)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var rows any
	if expand(r) {
		rows, err = h.logs.FindMaintenanceDetails(r.Context(), q)
	} else {
		rows, err = h.logs.FindMaintenance(r.Context(), q)
	}
	if err != nil {
		writeStoreError(w, r, err, h.name)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// Get returns one maintenance log.
func (h *MaintenanceHandler) Get(w http.ResponseWriter, r *http.Request) {
	m, err := h.logs.FindMaintenanceByID(r.Context(), pathID(r))
	if err != nil {
		writeStoreError(w, r, err, h.name)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// Create inserts a maintenance log and records the service on its vehicle.
func (h *MaintenanceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var form maintenanceForm
	if !h.bind(w, r, &form) {
		return
	}
	var m models.MaintenanceLog
	form.apply(&m, h.now())
	if err := h.logs.InsertMaintenance(r.Context(), &m); err != nil {
		writeStoreError(w, r, err, h.name)
		return
	}
	if err := h.vehicles.MarkServiced(r.Context(), m.VehicleID, m.DatePerformed, m.NextDueDate); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"vehicle_id":     m.VehicleID.Hex(),
			"maintenance_id": m.ID.Hex(),
		}).Warn("Failed to stamp service dates on vehicle")
	} else {
		h.publish.Publish(realtime.NewChange(realtime.TableVehicles, realtime.OpUpdate, m.VehicleID.Hex()))
	}
	h.changed(realtime.OpInsert, m.ID.Hex())
	writeJSON(w, http.StatusCreated, m)
}

// Update replaces a maintenance log. Vehicle service dates are left alone.
func (h *MaintenanceHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	var form maintenanceForm
	if !h.bind(w, r, &form) {
		return
	}
	m, err := h.logs.FindMaintenanceByID(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, err, h.name)
		return
	}
	form.apply(m, h.now())
	if err := h.logs.UpdateMaintenance(r.Context(), id, *m); err != nil {
		writeStoreError(w, r, err, h.name)
		return
	}
	h.changed(realtime.OpUpdate, id)
	writeJSON(w, http.StatusOK, m)
}

// Delete removes a maintenance log.
func (h *MaintenanceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	if err := h.logs.DeleteMaintenance(r.Context(), id); err != nil {
		writeStoreError(w, r, err, h.name)
		return
	}
	h.changed(realtime.OpDelete, id)
	w.WriteHeader(http.StatusNoContent)
}
