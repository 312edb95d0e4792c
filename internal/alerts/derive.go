// Package alerts derives maintenance, insurance and schedule alerts from
// vehicle and trip rows.
//
// Derivation is a pure function of its inputs. Three behaviours are kept on
// purpose: overlapping maintenance rules are not deduplicated, schedule
// deviation measures elapsed time in whole days, and dismissals do not
// survive a recomputation.
package alerts

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/ukydev/fleetdash/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Thresholds used by the rules.
const (
	ServiceOverdueDays   = 30
	InsuranceWarningDays = 7
	ScheduleMinExpected  = 80.0
	ScheduleToleranceLag = 20.0
	hoursPerDay          = 24
)

// Derive computes the alert list for the current vehicles and trips. Trips
// that are not in progress are ignored.
func Derive(vehicles []models.Vehicle, trips []models.Trip, now time.Time) []models.Alert {
	out := make([]models.Alert, 0)
	plates := make(map[primitive.ObjectID]string, len(vehicles))

	for _, v := range vehicles {
		plates[v.ID] = v.LicensePlate
		out = append(out, vehicleAlerts(v, now)...)
	}
	for _, trip := range trips {
		if a, ok := scheduleAlert(trip, plates[trip.VehicleID], now); ok {
			out = append(out, a)
		}
	}

	Sort(out)
	return out
}

// Sort orders alerts by type priority, then newest first.
func Sort(list []models.Alert) {
	sort.SliceStable(list, func(i, j int) bool {
		pi, pj := list[i].Type.Priority(), list[j].Type.Priority()
		if pi != pj {
			return pi < pj
		}
		return list[i].Timestamp.After(list[j].Timestamp)
	})
}

func vehicleAlerts(v models.Vehicle, now time.Time) []models.Alert {
	var out []models.Alert
	vid := v.ID
	alert := func(kind string, typ models.AlertType, title, desc string, ts time.Time) models.Alert {
		return models.Alert{
			ID:           kind + "-" + vid.Hex(),
			Type:         typ,
			Title:        title,
			Description:  desc,
			Timestamp:    ts,
			VehicleID:    &vid,
			LicensePlate: v.LicensePlate,
		}
	}

	switch v.MaintenanceStatus {
	case models.MaintenanceCritical:
		out = append(out, alert("critical-maintenance", models.AlertCritical,
			"Critical Maintenance Required",
			fmt.Sprintf("Vehicle %s requires immediate maintenance attention", v.LicensePlate), now))
	case models.MaintenanceNeedsService:
		out = append(out, alert("service-due", models.AlertMaintenance,
			"Service Due",
			fmt.Sprintf("Vehicle %s is due for scheduled service", v.LicensePlate), now))
	}

	if v.LastServiceDate != nil {
		if days := DaysSince(*v.LastServiceDate, now); days > ServiceOverdueDays {
			out = append(out, alert("service-overdue", models.AlertMaintenance,
				"Service Overdue",
				fmt.Sprintf("Vehicle %s was last serviced %d days ago", v.LicensePlate, days), *v.LastServiceDate))
		}
	}

	if v.InsuranceExpiry != nil {
		days := DaysUntil(*v.InsuranceExpiry, now)
		switch {
		case days < 0:
			out = append(out, alert("insurance-expired", models.AlertCritical,
				"Insurance Expired",
				fmt.Sprintf("Insurance for vehicle %s expired %d days ago", v.LicensePlate, -days), now))
		case days <= InsuranceWarningDays:
			out = append(out, alert("insurance-expiring", models.AlertMaintenance,
				"Insurance Expiring Soon",
				insuranceExpiringText(v.LicensePlate, days), now))
		}
	}
	return out
}

func insuranceExpiringText(plate string, days int) string {
	switch days {
	case 0:
		return fmt.Sprintf("Insurance for vehicle %s expires today", plate)
	case 1:
		return fmt.Sprintf("Insurance for vehicle %s expires tomorrow", plate)
	default:
		return fmt.Sprintf("Insurance for vehicle %s expires in %d days", plate, days)
	}
}

// scheduleAlert flags an in-progress trip that lags its expected progress.
// Elapsed time counts whole days only, so a trip shorter than a day never
// fires on its first day.
func scheduleAlert(trip models.Trip, plate string, now time.Time) (models.Alert, bool) {
	if trip.Status != models.TripInProgress || trip.EstimatedDurationHours <= 0 {
		return models.Alert{}, false
	}
	expected := ExpectedProgress(trip.StartTime, trip.EstimatedDurationHours, now)
	if expected <= ScheduleMinExpected || trip.ProgressPercent >= expected-ScheduleToleranceLag {
		return models.Alert{}, false
	}

	vid := trip.VehicleID
	route := trip.RouteName
	if route == "" {
		route = "Unknown"
	}
	return models.Alert{
		ID:    "schedule-deviation-" + trip.ID.Hex(),
		Type:  models.AlertSchedule,
		Title: "Schedule Deviation",
		Description: fmt.Sprintf("Trip on route %s is %.0f%% complete, expected %.0f%%",
			route, trip.ProgressPercent, expected),
		Timestamp:    trip.StartTime,
		VehicleID:    &vid,
		LicensePlate: plate,
	}, true
}

// ExpectedProgress returns min(100, hoursElapsed/estimate*100) where
// hoursElapsed is the number of whole days since start times 24.
func ExpectedProgress(start time.Time, estimatedHours float64, now time.Time) float64 {
	wholeDays := math.Floor(now.Sub(start).Hours() / hoursPerDay)
	hoursElapsed := wholeDays * hoursPerDay
	return math.Min(100, hoursElapsed/estimatedHours*100)
}

// DaysSince returns the number of calendar days from t to now.
func DaysSince(t, now time.Time) int {
	return calendarDays(t, now)
}

// DaysUntil returns the number of calendar days from now to t; negative
// when t is in the past and 0 when t falls on today.
func DaysUntil(t, now time.Time) int {
	return calendarDays(now, t)
}

// Dates are compared on the UTC calendar, matching how date-only form values
// are stored.
func calendarDays(from, to time.Time) int {
	return int(midnight(to).Sub(midnight(from)).Hours() / hoursPerDay)
}

func midnight(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
