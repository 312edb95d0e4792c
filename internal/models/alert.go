package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AlertType classifies derived alerts. The order of the constants below is
// not their priority; see Priority.
type AlertType string

const (
	AlertCritical    AlertType = "critical"
	AlertMaintenance AlertType = "maintenance"
	AlertSchedule    AlertType = "schedule"
)

// Priority returns the sort rank of an alert type, lowest first.
func (t AlertType) Priority() int {
	switch t {
	case AlertCritical:
		return 0
	case AlertMaintenance:
		return 1
	case AlertSchedule:
		return 2
	default:
		return 3
	}
}

// Alert is a transient notice derived from vehicle and trip rows. Alerts are
// never persisted.
type Alert struct {
	ID           string              `json:"id"`
	Type         AlertType           `json:"type"`
	Title        string              `json:"title"`
	Description  string              `json:"description"`
	Timestamp    time.Time           `json:"timestamp"`
	VehicleID    *primitive.ObjectID `json:"vehicle_id,omitempty"`
	LicensePlate string              `json:"license_plate,omitempty"`
	Acknowledged bool                `json:"acknowledged"`
}
