package db

import (
	"context"
	"time"

	"github.com/ukydev/fleetdash/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoMaintenanceCollection implements MaintenanceLogCollection for MongoDB.
type MongoMaintenanceCollection struct {
	Collection *mongo.Collection
}

// InsertMaintenance inserts a maintenance record into the collection.
func (c *MongoMaintenanceCollection) InsertMaintenance(ctx context.Context, log *models.MaintenanceLog) error {
	now := time.Now()
	log.ID = primitive.NewObjectID()
	log.CreatedAt = now
	log.UpdatedAt = now
	_, err := insertOne(ctx, c.Collection, log)
	return err
}

// FindMaintenance queries maintenance records from the collection.
func (c *MongoMaintenanceCollection) FindMaintenance(ctx context.Context, q Query) ([]models.MaintenanceLog, error) {
	return findAll[models.MaintenanceLog](ctx, c.Collection, q)
}

// FindMaintenanceDetails queries maintenance records joined with the vehicle plate.
func (c *MongoMaintenanceCollection) FindMaintenanceDetails(ctx context.Context, q Query) ([]models.MaintenanceDetail, error) {
	pipeline := append(q.pipelineHead(), lookupOne(VehiclesCollection, "vehicle_id", "vehicle")...)
	pipeline = append(pipeline,
		bson.D{{Key: "$addFields", Value: bson.D{
			{Key: "license_plate", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$vehicle.license_plate", ""}}}},
		}}},
		bson.D{{Key: "$project", Value: bson.D{{Key: "vehicle", Value: 0}}}},
	)
	return aggregateAll[models.MaintenanceDetail](ctx, c.Collection, pipeline)
}

// FindMaintenanceByID finds a maintenance record by its ID.
func (c *MongoMaintenanceCollection) FindMaintenanceByID(ctx context.Context, id string) (*models.MaintenanceLog, error) {
	return findByID[models.MaintenanceLog](ctx, c.Collection, id)
}

// UpdateMaintenance replaces a maintenance record by its ID.
func (c *MongoMaintenanceCollection) UpdateMaintenance(ctx context.Context, id string, log models.MaintenanceLog) error {
	return replaceByID(ctx, c.Collection, id, log)
}

// DeleteMaintenance deletes a maintenance record by its ID.
func (c *MongoMaintenanceCollection) DeleteMaintenance(ctx context.Context, id string) error {
	return deleteByID(ctx, c.Collection, id)
}
