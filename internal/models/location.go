package models

import "time"

// Location represents a geographical location with latitude and longitude coordinates.
type Location struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lon float64 `bson:"lon" json:"lon"`
}

// Position is a last known location stamped with the time it was reported.
type Position struct {
	Lat       float64   `bson:"lat" json:"lat"`
	Lon       float64   `bson:"lon" json:"lon"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
