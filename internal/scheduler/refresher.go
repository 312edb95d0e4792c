// Package scheduler keeps the dashboard alert snapshot fresh, on a cron
// schedule and whenever vehicles or trips change.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleetdash/internal/alerts"
	"github.com/ukydev/fleetdash/internal/db"
	"github.com/ukydev/fleetdash/internal/models"
	"github.com/ukydev/fleetdash/internal/notify"
	"github.com/ukydev/fleetdash/internal/realtime"
	"go.mongodb.org/mongo-driver/bson"
)

const refreshTimeout = 15 * time.Second

// Refresher recomputes the alert snapshot. Refreshes are not coordinated:
// the last one to finish wins.
type Refresher struct {
	vehicles db.VehicleCollection
	trips    db.TripCollection
	notifier notify.Notifier
	schedule string
	now      func() time.Time

	cron    *cron.Cron
	jobID   cron.EntryID
	unsub   func()
	pending sync.WaitGroup

	mu       sync.RWMutex
	snapshot []models.Alert
	updated  time.Time
}

// NewRefresher builds a refresher. A nil notifier disables notifications.
func NewRefresher(vehicles db.VehicleCollection, trips db.TripCollection, notifier notify.Notifier, schedule string) *Refresher {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Refresher{
		vehicles: vehicles,
		trips:    trips,
		notifier: notifier,
		schedule: schedule,
		now:      time.Now,
		cron:     cron.New(cron.WithSeconds()),
		snapshot: []models.Alert{},
	}
}

// Start schedules the periodic refresh and, when hub is not nil, a refresh
// after every vehicle or trip change.
func (r *Refresher) Start(hub *realtime.Hub) error {
	var err error
	r.jobID, err = r.cron.AddFunc(r.schedule, r.refreshInBackground)
	if err != nil {
		return fmt.Errorf("error scheduling refresh %q: %w", r.schedule, err)
	}
	if hub != nil {
		r.unsub = hub.Subscribe(func(realtime.Change) {
			r.pending.Add(1)
			go func() {
				defer r.pending.Done()
				r.refreshInBackground()
			}()
		}, realtime.TableVehicles, realtime.TableTrips)
	}
	r.cron.Start()
	log.WithField("schedule", r.schedule).Info("Alert refresher started")
	return nil
}

// Stop removes the hub subscription and waits for running refreshes.
func (r *Refresher) Stop() {
	if r.unsub != nil {
		r.unsub()
	}
	<-r.cron.Stop().Done()
	r.pending.Wait()
	log.Info("Alert refresher stopped")
}

func (r *Refresher) refreshInBackground() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()
	_, _ = r.Refresh(ctx)
}

// Refresh loads vehicles and in-progress trips, derives the alerts and
// replaces the snapshot. On failure the previous snapshot is kept.
func (r *Refresher) Refresh(ctx context.Context) ([]models.Alert, error) {
	vehicles, err := r.vehicles.FindVehicles(ctx, db.Query{})
	if err != nil {
		log.WithError(err).Error("Alert refresh: failed to load vehicles")
		return r.Snapshot(), err
	}
	trips, err := r.trips.FindTrips(ctx, db.Query{Filter: bson.M{"status": models.TripInProgress}})
	if err != nil {
		log.WithError(err).Error("Alert refresh: failed to load trips")
		return r.Snapshot(), err
	}

	now := r.now()
	list := alerts.Derive(vehicles, trips, now)

	r.mu.Lock()
	r.snapshot = list
	r.updated = now
	r.mu.Unlock()

	log.WithFields(log.Fields{"alerts": len(list), "vehicles": len(vehicles), "trips": len(trips)}).Debug("Alert snapshot refreshed")

	if err := r.notifier.Notify(ctx, list); err != nil {
		log.WithError(err).Warn("Alert refresh: notification failed")
	}
	return copyAlerts(list), nil
}

// Snapshot returns a copy of the last derived alert list.
func (r *Refresher) Snapshot() []models.Alert {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return copyAlerts(r.snapshot)
}

// UpdatedAt returns when the snapshot was last replaced.
func (r *Refresher) UpdatedAt() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.updated
}

func copyAlerts(list []models.Alert) []models.Alert {
	return append(make([]models.Alert, 0, len(list)), list...)
}
