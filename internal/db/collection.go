package db

import (
	"context"
	"time"

	"github.com/ukydev/fleetdash/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VehicleCollection defines the interface for vehicle data operations.
type VehicleCollection interface {
	InsertVehicle(ctx context.Context, vehicle *models.Vehicle) error
	FindVehicles(ctx context.Context, q Query) ([]models.Vehicle, error)
	FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error)
	UpdateVehicle(ctx context.Context, id string, vehicle models.Vehicle) error
	DeleteVehicle(ctx context.Context, id string) error
	UpdateVehiclePosition(ctx context.Context, id string, pos models.Position) error
	MarkServiced(ctx context.Context, id primitive.ObjectID, performed time.Time, nextDue *time.Time) error
}

// DriverCollection defines the interface for driver data operations.
type DriverCollection interface {
	InsertDriver(ctx context.Context, driver *models.Driver) error
	FindDrivers(ctx context.Context, q Query) ([]models.Driver, error)
	FindDriverDetails(ctx context.Context, q Query) ([]models.DriverDetail, error)
	FindDriverByID(ctx context.Context, id string) (*models.Driver, error)
	UpdateDriver(ctx context.Context, id string, driver models.Driver) error
	DeleteDriver(ctx context.Context, id string) error
	ReleaseVehicle(ctx context.Context, vehicleID primitive.ObjectID, exceptDriver primitive.ObjectID) error
}

// TripCollection defines the interface for trip data operations.
type TripCollection interface {
	InsertTrip(ctx context.Context, trip *models.Trip) error
	FindTrips(ctx context.Context, q Query) ([]models.Trip, error)
	FindTripDetails(ctx context.Context, q Query) ([]models.TripDetail, error)
	FindTripByID(ctx context.Context, id string) (*models.Trip, error)
	UpdateTrip(ctx context.Context, id string, trip models.Trip) error
	DeleteTrip(ctx context.Context, id string) error
}

// MaintenanceLogCollection defines the interface for maintenance log operations.
type MaintenanceLogCollection interface {
	InsertMaintenance(ctx context.Context, log *models.MaintenanceLog) error
	FindMaintenance(ctx context.Context, q Query) ([]models.MaintenanceLog, error)
	FindMaintenanceDetails(ctx context.Context, q Query) ([]models.MaintenanceDetail, error)
	FindMaintenanceByID(ctx context.Context, id string) (*models.MaintenanceLog, error)
	UpdateMaintenance(ctx context.Context, id string, log models.MaintenanceLog) error
	DeleteMaintenance(ctx context.Context, id string) error
}

// FuelLogCollection defines the interface for fuel log operations.
type FuelLogCollection interface {
	InsertFuelLog(ctx context.Context, log *models.FuelLog) error
	FindFuelLogs(ctx context.Context, q Query) ([]models.FuelLog, error)
	FindFuelLogByID(ctx context.Context, id string) (*models.FuelLog, error)
	UpdateFuelLog(ctx context.Context, id string, log models.FuelLog) error
	DeleteFuelLog(ctx context.Context, id string) error
}

// ProfileCollection defines the interface for profile operations.
type ProfileCollection interface {
	UpsertProfile(ctx context.Context, profile models.Profile) error
	FindProfileByID(ctx context.Context, id string) (*models.Profile, error)
	DeleteProfile(ctx context.Context, id string) error
}

// RoleCollection defines the interface for role assignment operations.
type RoleCollection interface {
	SetRole(ctx context.Context, userID primitive.ObjectID, role models.Role) error
	FindRole(ctx context.Context, userID string) (models.Role, error)
	DeleteRole(ctx context.Context, userID string) error
}
