package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
	"time"
)

// MaintenanceLog represents a service performed on a vehicle.
type MaintenanceLog struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	VehicleID     primitive.ObjectID `json:"vehicle_id" bson:"vehicle_id"`
	ServiceType   string             `json:"service_type" bson:"service_type"` // "oil_change", "tire_rotation", "brake_service", "inspection", ...
	Description   string             `json:"description" bson:"description"`
	DatePerformed time.Time          `json:"date_performed" bson:"date_performed"`
	Cost          float64            `json:"cost" bson:"cost"`
	NextDueDate   *time.Time         `json:"next_due_date" bson:"next_due_date,omitempty"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at" bson:"updated_at"`
}

// MaintenanceDetail is a maintenance log joined with its vehicle plate.
type MaintenanceDetail struct {
	MaintenanceLog `bson:",inline"`
	LicensePlate   string `bson:"license_plate" json:"license_plate"`
}
