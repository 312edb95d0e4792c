package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrInvalidID = errors.New("invalid id")
	ErrDuplicate = errors.New("duplicate key")
	ErrNilColl   = errors.New("mongo collection is nil")
)

// IsNotFound reports whether err means the row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Collection names.
const (
	VehiclesCollection    = "vehicles"
	DriversCollection     = "drivers"
	TripsCollection       = "trips"
	MaintenanceCollection = "maintenance_logs"
	FuelCollection        = "fuel_logs"
	UsersCollection       = "users"
	ProfilesCollection    = "profiles"
	RolesCollection       = "user_roles"
	SettingsCollection    = "settings"
)

// ConnectMongo connects to MongoDB and verifies the connection with a ping.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo.Ping error: %w", err)
	}
	return client, nil
}

// Store groups the per-entity collections of one database.
type Store struct {
	Vehicles    *MongoVehicleCollection
	Drivers     *MongoDriverCollection
	Trips       *MongoTripCollection
	Maintenance *MongoMaintenanceCollection
	Fuel        *MongoFuelCollection
	Users       *MongoUserCollection
	Profiles    *MongoProfileCollection
	Roles       *MongoRoleCollection
	Settings    *MongoSettingsCollection
}

// NewStore binds every collection to database.
func NewStore(database *mongo.Database) *Store {
	return &Store{
		Vehicles:    &MongoVehicleCollection{Collection: database.Collection(VehiclesCollection)},
		Drivers:     &MongoDriverCollection{Collection: database.Collection(DriversCollection)},
		Trips:       &MongoTripCollection{Collection: database.Collection(TripsCollection)},
		Maintenance: &MongoMaintenanceCollection{Collection: database.Collection(MaintenanceCollection)},
		Fuel:        &MongoFuelCollection{Collection: database.Collection(FuelCollection)},
		Users:       &MongoUserCollection{Collection: database.Collection(UsersCollection)},
		Profiles:    &MongoProfileCollection{Collection: database.Collection(ProfilesCollection)},
		Roles:       &MongoRoleCollection{Collection: database.Collection(RolesCollection)},
		Settings:    &MongoSettingsCollection{Collection: database.Collection(SettingsCollection)},
	}
}

// EnsureIndexes creates the unique and lookup indexes the collections rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []struct {
		coll  *mongo.Collection
		model mongo.IndexModel
	}{
		{s.Vehicles.Collection, mongo.IndexModel{Keys: bson.D{{Key: "license_plate", Value: 1}}, Options: options.Index().SetUnique(true)}},
		{s.Users.Collection, mongo.IndexModel{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)}},
		{s.Drivers.Collection, mongo.IndexModel{Keys: bson.D{{Key: "profile_id", Value: 1}}}},
		{s.Trips.Collection, mongo.IndexModel{Keys: bson.D{{Key: "status", Value: 1}, {Key: "start_time", Value: -1}}}},
		{s.Maintenance.Collection, mongo.IndexModel{Keys: bson.D{{Key: "vehicle_id", Value: 1}, {Key: "date_performed", Value: -1}}}},
		{s.Fuel.Collection, mongo.IndexModel{Keys: bson.D{{Key: "vehicle_id", Value: 1}, {Key: "date", Value: -1}}}},
	}
	for _, idx := range indexes {
		if _, err := idx.coll.Indexes().CreateOne(ctx, idx.model); err != nil {
			return fmt.Errorf("create index on %s: %w", idx.coll.Name(), err)
		}
	}
	return nil
}

// Query is the generic filter/order/limit shape accepted by list methods.
type Query struct {
	Filter     bson.M
	SortField  string
	Descending bool
	Limit      int64
}

func (q Query) filter() bson.M {
	if q.Filter == nil {
		return bson.M{}
	}
	return q.Filter
}

func (q Query) findOptions() *options.FindOptions {
	opts := options.Find()
	if q.SortField != "" {
		dir := 1
		if q.Descending {
			dir = -1
		}
		opts.SetSort(bson.D{{Key: q.SortField, Value: dir}})
	}
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}
	return opts
}

// pipelineHead turns the query into the leading stages of an aggregation.
func (q Query) pipelineHead() mongo.Pipeline {
	p := mongo.Pipeline{{{Key: "$match", Value: q.filter()}}}
	if q.SortField != "" {
		dir := 1
		if q.Descending {
			dir = -1
		}
		p = append(p, bson.D{{Key: "$sort", Value: bson.D{{Key: q.SortField, Value: dir}}}})
	}
	if q.Limit > 0 {
		p = append(p, bson.D{{Key: "$limit", Value: q.Limit}})
	}
	return p
}

// ParseID converts a hex id into an ObjectID.
func ParseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return oid, nil
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, q Query) ([]T, error) {
	if coll == nil {
		return nil, ErrNilColl
	}
	cursor, err := coll.Find(ctx, q.filter(), q.findOptions())
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	out := make([]T, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func aggregateAll[T any](ctx context.Context, coll *mongo.Collection, pipeline mongo.Pipeline) ([]T, error) {
	if coll == nil {
		return nil, ErrNilColl
	}
	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	out := make([]T, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func findByID[T any](ctx context.Context, coll *mongo.Collection, id string) (*T, error) {
	if coll == nil {
		return nil, ErrNilColl
	}
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	var out T
	if err := coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

func insertOne(ctx context.Context, coll *mongo.Collection, doc interface{}) (primitive.ObjectID, error) {
	if coll == nil {
		return primitive.NilObjectID, ErrNilColl
	}
	res, err := coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, ErrDuplicate
		}
		return primitive.NilObjectID, err
	}
	oid, _ := res.InsertedID.(primitive.ObjectID)
	return oid, nil
}

// replaceByID replaces the whole document. Callers carry created_at over
// from the stored row; nil optional fields are removed.
func replaceByID(ctx context.Context, coll *mongo.Collection, id string, doc interface{}) error {
	if coll == nil {
		return ErrNilColl
	}
	oid, err := ParseID(id)
	if err != nil {
		return err
	}
	raw, err := bson.Marshal(doc)
	if err != nil {
		return err
	}
	var replacement bson.M
	if err := bson.Unmarshal(raw, &replacement); err != nil {
		return err
	}
	replacement["_id"] = oid
	replacement["updated_at"] = time.Now()

	result, err := coll.ReplaceOne(ctx, bson.M{"_id": oid}, replacement)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func deleteByID(ctx context.Context, coll *mongo.Collection, id string) error {
	if coll == nil {
		return ErrNilColl
	}
	oid, err := ParseID(id)
	if err != nil {
		return err
	}
	result, err := coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
