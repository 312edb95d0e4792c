package analytics

import (
	"context"
	"fmt"

	"github.com/ukydev/fleetdash/internal/db"
	"github.com/ukydev/fleetdash/internal/models"
	"golang.org/x/sync/errgroup"
)

// Source is the set of collections the aggregator reads from.
type Source struct {
	Vehicles    db.VehicleCollection
	Drivers     db.DriverCollection
	Trips       db.TripCollection
	Fuel        db.FuelLogCollection
	Maintenance db.MaintenanceLogCollection
}

// Collect runs the five fetches concurrently and waits for all of them. A
// failed fetch contributes an empty list; its error is returned so the
// caller can report it.
func Collect(ctx context.Context, src Source) (Input, []error) {
	var (
		in   Input
		errs [5]error
		g    errgroup.Group
	)

	g.Go(func() error {
		in.Vehicles, errs[0] = fetch("vehicles", func() ([]models.Vehicle, error) {
			return src.Vehicles.FindVehicles(ctx, db.Query{})
		})
		return nil
	})
	g.Go(func() error {
		in.Drivers, errs[1] = fetch("drivers", func() ([]models.DriverDetail, error) {
			return src.Drivers.FindDriverDetails(ctx, db.Query{})
		})
		return nil
	})
	g.Go(func() error {
		in.Trips, errs[2] = fetch("trips", func() ([]models.Trip, error) {
			return src.Trips.FindTrips(ctx, db.Query{})
		})
		return nil
	})
	g.Go(func() error {
		in.FuelLogs, errs[3] = fetch("fuel logs", func() ([]models.FuelLog, error) {
			return src.Fuel.FindFuelLogs(ctx, db.Query{})
		})
		return nil
	})
	g.Go(func() error {
		in.MaintenanceLogs, errs[4] = fetch("maintenance logs", func() ([]models.MaintenanceLog, error) {
			return src.Maintenance.FindMaintenance(ctx, db.Query{})
		})
		return nil
	})
	_ = g.Wait()

	var failed []error
	for _, err := range errs {
		if err != nil {
			failed = append(failed, err)
		}
	}
	return in, failed
}

func fetch[T any](what string, find func() ([]T, error)) ([]T, error) {
	rows, err := find()
	if err != nil {
		return []T{}, fmt.Errorf("fetch %s: %w", what, err)
	}
	if rows == nil {
		rows = []T{}
	}
	return rows, nil
}
