package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultPerformanceScore is assigned to drivers created without a score.
const DefaultPerformanceScore = 100

// Driver is a person allowed to operate fleet vehicles. A driver row can
// exist without a linked login profile.
type Driver struct {
	ID                 primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ProfileID          *primitive.ObjectID `bson:"profile_id,omitempty" json:"profile_id"`
	LicenseNumber      string              `bson:"license_number" json:"license_number"`
	PerformanceScore   float64             `bson:"performance_score" json:"performance_score"`
	TotalTrips         int                 `bson:"total_trips" json:"total_trips"`
	SpeedingIncidents  int                 `bson:"speeding_incidents" json:"speeding_incidents"`
	HarshBrakingEvents int                 `bson:"harsh_braking_events" json:"harsh_braking_events"`
	IdleTimeHours      float64             `bson:"idle_time_hours" json:"idle_time_hours"`
	AssignedVehicleID  *primitive.ObjectID `bson:"assigned_vehicle_id,omitempty" json:"assigned_vehicle_id"`
	CreatedAt          time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt          time.Time           `bson:"updated_at" json:"updated_at"`
}

// DriverDetail is a driver joined with its profile and assigned vehicle.
type DriverDetail struct {
	Driver  `bson:",inline"`
	Profile *ProfileSummary `bson:"profile,omitempty" json:"profile"`
	Vehicle *VehicleSummary `bson:"vehicle,omitempty" json:"vehicle"`
}

// FullName returns the linked profile's name, or "" for unlinked drivers.
func (d DriverDetail) FullName() string {
	if d.Profile == nil {
		return ""
	}
	return d.Profile.FullName
}
