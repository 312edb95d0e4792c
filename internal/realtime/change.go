// Package realtime fans out row change notifications to websocket
// subscribers, in-process listeners and other instances over MQTT.
package realtime

import (
	"time"
)

// Op is the kind of write that produced a change.
type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Tables that publish changes.
const (
	TableVehicles    = "vehicles"
	TableDrivers     = "drivers"
	TableTrips       = "trips"
	TableMaintenance = "maintenance_logs"
	TableFuel        = "fuel_logs"
	TableSettings    = "settings"
)

// Change is one row-level change notification.
type Change struct {
	Table  string    `json:"table"`
	Op     Op        `json:"op"`
	ID     string    `json:"id,omitempty"`
	At     time.Time `json:"at"`
	Origin string    `json:"origin,omitempty"`
}

// NewChange stamps a change with the current time.
func NewChange(table string, op Op, id string) Change {
	return Change{Table: table, Op: op, ID: id, At: time.Now().UTC()}
}

// Publisher accepts change notifications.
type Publisher interface {
	Publish(c Change)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(c Change)

func (f PublisherFunc) Publish(c Change) { f(c) }

// Fanout publishes every change to each of its publishers in order. Nil
// entries are skipped.
type Fanout []Publisher

func (f Fanout) Publish(c Change) {
	for _, p := range f {
		if p != nil {
			p.Publish(c)
		}
	}
}

// Discard drops every change.
var Discard Publisher = PublisherFunc(func(Change) {})
