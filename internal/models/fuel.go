package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FuelLog represents a refuelling of a vehicle.
type FuelLog struct {
	ID            primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	VehicleID     primitive.ObjectID  `json:"vehicle_id" bson:"vehicle_id"`
	DriverID      *primitive.ObjectID `json:"driver_id" bson:"driver_id,omitempty"`
	Liters        float64             `json:"liters" bson:"liters"`
	PricePerLiter float64             `json:"price_per_liter" bson:"price_per_liter"`
	TotalCost     float64             `json:"total_cost" bson:"total_cost"` // stored at write time
	Route         *string             `json:"route" bson:"route,omitempty"`
	OdometerKm    *float64            `json:"odometer_km" bson:"odometer_km,omitempty"`
	Date          time.Time           `json:"date" bson:"date"`
	CreatedAt     time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at" bson:"updated_at"`
}

// Cost recomputes the refuelling cost from its source factors.
func (f FuelLog) Cost() float64 {
	return f.Liters * f.PricePerLiter
}
