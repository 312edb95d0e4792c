package db

import (
	"context"
	"time"

	"github.com/ukydev/fleetdash/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoDriverCollection implements DriverCollection for MongoDB.
type MongoDriverCollection struct {
	Collection *mongo.Collection
}

// InsertDriver inserts a driver and sets its generated ID.
func (c *MongoDriverCollection) InsertDriver(ctx context.Context, driver *models.Driver) error {
	now := time.Now()
	driver.ID = primitive.NewObjectID()
	driver.CreatedAt = now
	driver.UpdatedAt = now
	_, err := insertOne(ctx, c.Collection, driver)
	return err
}

// FindDrivers queries driver rows without joins.
func (c *MongoDriverCollection) FindDrivers(ctx context.Context, q Query) ([]models.Driver, error) {
	return findAll[models.Driver](ctx, c.Collection, q)
}

// FindDriverDetails queries drivers joined with their profile and vehicle.
func (c *MongoDriverCollection) FindDriverDetails(ctx context.Context, q Query) ([]models.DriverDetail, error) {
	pipeline := append(q.pipelineHead(),
		lookupOne(ProfilesCollection, "profile_id", "profile")...)
	pipeline = append(pipeline,
		lookupOne(VehiclesCollection, "assigned_vehicle_id", "vehicle")...)
	return aggregateAll[models.DriverDetail](ctx, c.Collection, pipeline)
}

// FindDriverByID finds a driver by its ID.
func (c *MongoDriverCollection) FindDriverByID(ctx context.Context, id string) (*models.Driver, error) {
	return findByID[models.Driver](ctx, c.Collection, id)
}

// UpdateDriver replaces a driver by its ID.
func (c *MongoDriverCollection) UpdateDriver(ctx context.Context, id string, driver models.Driver) error {
	return replaceByID(ctx, c.Collection, id, driver)
}

// DeleteDriver deletes a driver by its ID.
func (c *MongoDriverCollection) DeleteDriver(ctx context.Context, id string) error {
	return deleteByID(ctx, c.Collection, id)
}

// ReleaseVehicle unassigns vehicleID from every driver except exceptDriver,
// keeping the driver-vehicle assignment one-to-one.
func (c *MongoDriverCollection) ReleaseVehicle(ctx context.Context, vehicleID primitive.ObjectID, exceptDriver primitive.ObjectID) error {
	if c.Collection == nil {
		return ErrNilColl
	}
	_, err := c.Collection.UpdateMany(ctx,
		bson.M{"assigned_vehicle_id": vehicleID, "_id": bson.M{"$ne": exceptDriver}},
		bson.M{"$unset": bson.M{"assigned_vehicle_id": ""}, "$set": bson.M{"updated_at": time.Now()}},
	)
	return err
}

// lookupOne joins at most one document from `from` into field `as`.
func lookupOne(from, localField, as string) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: from},
			{Key: "localField", Value: localField},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: as},
		}}},
		{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$" + as},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
	}
}
