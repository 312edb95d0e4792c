package db

import (
	"context"
	"time"

	"github.com/ukydev/fleetdash/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoVehicleCollection implements VehicleCollection for MongoDB.
type MongoVehicleCollection struct {
	Collection *mongo.Collection
}

// InsertVehicle inserts a vehicle and sets its generated ID.
func (c *MongoVehicleCollection) InsertVehicle(ctx context.Context, vehicle *models.Vehicle) error {
	now := time.Now()
	vehicle.ID = primitive.NewObjectID()
	vehicle.CreatedAt = now
	vehicle.UpdatedAt = now
	_, err := insertOne(ctx, c.Collection, vehicle)
	return err
}

// FindVehicles queries vehicle records from the collection.
func (c *MongoVehicleCollection) FindVehicles(ctx context.Context, q Query) ([]models.Vehicle, error) {
	return findAll[models.Vehicle](ctx, c.Collection, q)
}

// FindVehicleByID finds a vehicle by its ID.
func (c *MongoVehicleCollection) FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error) {
	return findByID[models.Vehicle](ctx, c.Collection, id)
}

// UpdateVehicle replaces a vehicle by its ID.
func (c *MongoVehicleCollection) UpdateVehicle(ctx context.Context, id string, vehicle models.Vehicle) error {
	return replaceByID(ctx, c.Collection, id, vehicle)
}

// DeleteVehicle deletes a vehicle by its ID.
func (c *MongoVehicleCollection) DeleteVehicle(ctx context.Context, id string) error {
	return deleteByID(ctx, c.Collection, id)
}

// UpdateVehiclePosition records the last known position of a vehicle.
func (c *MongoVehicleCollection) UpdateVehiclePosition(ctx context.Context, id string, pos models.Position) error {
	return c.set(ctx, id, bson.M{"last_location": pos})
}

// MarkServiced stamps the service dates written by a new maintenance log.
func (c *MongoVehicleCollection) MarkServiced(ctx context.Context, id primitive.ObjectID, performed time.Time, nextDue *time.Time) error {
	fields := bson.M{"last_service_date": performed}
	if nextDue != nil {
		fields["next_service_date"] = *nextDue
	}
	return c.set(ctx, id.Hex(), fields)
}

func (c *MongoVehicleCollection) set(ctx context.Context, id string, fields bson.M) error {
	if c.Collection == nil {
		return ErrNilColl
	}
	oid, err := ParseID(id)
	if err != nil {
		return err
	}
	fields["updated_at"] = time.Now()
	result, err := c.Collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
