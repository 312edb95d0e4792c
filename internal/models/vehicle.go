package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VehicleStatus is the operational state of a vehicle.
type VehicleStatus string

const (
	VehicleActive      VehicleStatus = "active"
	VehicleMaintenance VehicleStatus = "maintenance"
	VehicleInactive    VehicleStatus = "inactive"
	VehicleIdle        VehicleStatus = "idle"
)

// MaintenanceStatus is the service condition of a vehicle. It is tracked
// independently of VehicleStatus.
type MaintenanceStatus string

const (
	MaintenanceGood         MaintenanceStatus = "good"
	MaintenanceNeedsService MaintenanceStatus = "needs_service"
	MaintenanceCritical     MaintenanceStatus = "critical"
)

// Vehicle represents a fleet vehicle.
type Vehicle struct {
	ID                     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	LicensePlate           string             `bson:"license_plate" json:"license_plate"`
	VehicleType            string             `bson:"vehicle_type" json:"vehicle_type"`
	Status                 VehicleStatus      `bson:"status" json:"status"`
	RouteAssigned          *string            `bson:"route_assigned,omitempty" json:"route_assigned"`
	LastLocation           *Position          `bson:"last_location,omitempty" json:"last_location"`
	MaintenanceStatus      MaintenanceStatus  `bson:"maintenance_status" json:"maintenance_status"`
	LastServiceDate        *time.Time         `bson:"last_service_date,omitempty" json:"last_service_date"`
	NextServiceDate        *time.Time         `bson:"next_service_date,omitempty" json:"next_service_date"`
	InsuranceExpiry        *time.Time         `bson:"insurance_expiry,omitempty" json:"insurance_expiry"`
	FuelEfficiencyKML      float64            `bson:"fuel_efficiency_kml" json:"fuel_efficiency_kml"`
	MonthlyFuelConsumption float64            `bson:"monthly_fuel_consumption" json:"monthly_fuel_consumption"`
	CreatedAt              time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt              time.Time          `bson:"updated_at" json:"updated_at"`
}

// IsValidVehicleStatus reports whether s is a known operational status.
func IsValidVehicleStatus(s VehicleStatus) bool {
	switch s {
	case VehicleActive, VehicleMaintenance, VehicleInactive, VehicleIdle:
		return true
	default:
		return false
	}
}

// VehicleSummary is the slice of a vehicle embedded in joined projections.
type VehicleSummary struct {
	ID           primitive.ObjectID `bson:"_id" json:"id"`
	LicensePlate string             `bson:"license_plate" json:"license_plate"`
	VehicleType  string             `bson:"vehicle_type" json:"vehicle_type"`
	Status       VehicleStatus      `bson:"status" json:"status"`
}
