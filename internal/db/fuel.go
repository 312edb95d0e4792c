package db

import (
	"context"
	"time"

	"github.com/ukydev/fleetdash/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoFuelCollection implements FuelLogCollection for MongoDB.
type MongoFuelCollection struct {
	Collection *mongo.Collection
}

// InsertFuelLog inserts a fuel log, storing its total cost.
func (c *MongoFuelCollection) InsertFuelLog(ctx context.Context, log *models.FuelLog) error {
	now := time.Now()
	log.ID = primitive.NewObjectID()
	log.TotalCost = log.Cost()
	log.CreatedAt = now
	log.UpdatedAt = now
	if log.Date.IsZero() {
		log.Date = now
	}
	_, err := insertOne(ctx, c.Collection, log)
	return err
}

// FindFuelLogs queries fuel logs from the collection.
func (c *MongoFuelCollection) FindFuelLogs(ctx context.Context, q Query) ([]models.FuelLog, error) {
	return findAll[models.FuelLog](ctx, c.Collection, q)
}

// FindFuelLogByID finds a fuel log by its ID.
func (c *MongoFuelCollection) FindFuelLogByID(ctx context.Context, id string) (*models.FuelLog, error) {
	return findByID[models.FuelLog](ctx, c.Collection, id)
}

// UpdateFuelLog replaces a fuel log by its ID, restamping its total cost.
func (c *MongoFuelCollection) UpdateFuelLog(ctx context.Context, id string, log models.FuelLog) error {
	log.TotalCost = log.Cost()
	return replaceByID(ctx, c.Collection, id, log)
}

// DeleteFuelLog deletes a fuel log by its ID.
func (c *MongoFuelCollection) DeleteFuelLog(ctx context.Context, id string) error {
	return deleteByID(ctx, c.Collection, id)
}
