package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TripStatus is the lifecycle state of a trip.
type TripStatus string

const (
	TripScheduled  TripStatus = "scheduled"
	TripInProgress TripStatus = "in_progress"
	TripCompleted  TripStatus = "completed"
	TripCancelled  TripStatus = "cancelled"
)

// IsValidTripStatus reports whether s is a known trip status.
func IsValidTripStatus(s TripStatus) bool {
	switch s {
	case TripScheduled, TripInProgress, TripCompleted, TripCancelled:
		return true
	default:
		return false
	}
}

// Trip represents a vehicle trip along a named route.
type Trip struct {
	ID                     primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	VehicleID              primitive.ObjectID  `json:"vehicle_id" bson:"vehicle_id"`
	DriverID               *primitive.ObjectID `json:"driver_id" bson:"driver_id,omitempty"`
	RouteName              string              `json:"route_name" bson:"route_name"`
	StartLocation          string              `json:"start_location" bson:"start_location"`
	EndLocation            string              `json:"end_location" bson:"end_location"`
	StartTime              time.Time           `json:"start_time" bson:"start_time"`
	EndTime                *time.Time          `json:"end_time" bson:"end_time,omitempty"`
	Status                 TripStatus          `json:"status" bson:"status"`
	ProgressPercent        float64             `json:"progress_percent" bson:"progress_percent"`
	EstimatedDurationHours float64             `json:"estimated_duration_hours" bson:"estimated_duration_hours"`
	DistanceKm             float64             `json:"distance_km" bson:"distance_km"`
	CreatedAt              time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt              time.Time           `json:"updated_at" bson:"updated_at"`
}

// TripDetail is a trip joined with its vehicle plate and driver name.
type TripDetail struct {
	Trip         `bson:",inline"`
	LicensePlate string `bson:"license_plate" json:"license_plate"`
	DriverName   string `bson:"driver_name" json:"driver_name"`
}
