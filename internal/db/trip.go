package db

import (
	"context"
	"time"

	"github.com/ukydev/fleetdash/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoTripCollection implements TripCollection for MongoDB.
type MongoTripCollection struct {
	Collection *mongo.Collection
}

// InsertTrip inserts a trip record into the collection.
func (c *MongoTripCollection) InsertTrip(ctx context.Context, trip *models.Trip) error {
	now := time.Now()
	trip.ID = primitive.NewObjectID()
	trip.CreatedAt = now
	trip.UpdatedAt = now
	_, err := insertOne(ctx, c.Collection, trip)
	return err
}

// FindTrips queries trip records from the collection.
func (c *MongoTripCollection) FindTrips(ctx context.Context, q Query) ([]models.Trip, error) {
	return findAll[models.Trip](ctx, c.Collection, q)
}

// FindTripDetails queries trips joined with the vehicle plate and the
// driver's profile name.
func (c *MongoTripCollection) FindTripDetails(ctx context.Context, q Query) ([]models.TripDetail, error) {
	pipeline := append(q.pipelineHead(), lookupOne(VehiclesCollection, "vehicle_id", "vehicle")...)
	pipeline = append(pipeline, lookupOne(DriversCollection, "driver_id", "driver")...)
	pipeline = append(pipeline, lookupOne(ProfilesCollection, "driver.profile_id", "driver_profile")...)
	pipeline = append(pipeline,
		bson.D{{Key: "$addFields", Value: bson.D{
			{Key: "license_plate", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$vehicle.license_plate", ""}}}},
			{Key: "driver_name", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$driver_profile.full_name", ""}}}},
		}}},
		bson.D{{Key: "$project", Value: bson.D{
			{Key: "vehicle", Value: 0},
			{Key: "driver", Value: 0},
			{Key: "driver_profile", Value: 0},
		}}},
	)
	return aggregateAll[models.TripDetail](ctx, c.Collection, pipeline)
}

// FindTripByID finds a trip by its ID.
func (c *MongoTripCollection) FindTripByID(ctx context.Context, id string) (*models.Trip, error) {
	return findByID[models.Trip](ctx, c.Collection, id)
}

// UpdateTrip replaces a trip by its ID.
func (c *MongoTripCollection) UpdateTrip(ctx context.Context, id string, trip models.Trip) error {
	return replaceByID(ctx, c.Collection, id, trip)
}

// DeleteTrip deletes a trip by its ID.
func (c *MongoTripCollection) DeleteTrip(ctx context.Context, id string) error {
	return deleteByID(ctx, c.Collection, id)
}
