package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleetdash/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// testDatabase connects to MONGO_URI and returns a scratch database, or
// skips the test when no server is reachable.
func testDatabase(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set, skipping integration test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := ConnectMongo(ctx, uri)
	if err != nil {
		t.Skipf("failed to connect: %v, skipping integration test", err)
	}
	database := client.Database("test_fleetdash")
	require.NoError(t, database.Drop(context.Background()))
	t.Cleanup(func() {
		database.Drop(context.Background())
		client.Disconnect(context.Background())
	})
	return database
}

func TestConnectMongo_BadURI(t *testing.T) {
	client, err := ConnectMongo(context.Background(), "mongodb://bad:uri")
	if err == nil {
		t.Error("expected error for bad URI, got nil")
	}
	if client != nil {
		t.Error("expected nil client on error")
	}
}

func TestNilCollection(t *testing.T) {
	ctx := context.Background()
	vehicles := &MongoVehicleCollection{}
	assert.ErrorIs(t, vehicles.InsertVehicle(ctx, &models.Vehicle{}), ErrNilColl)
	_, err := vehicles.FindVehicles(ctx, Query{})
	assert.ErrorIs(t, err, ErrNilColl)

	trips := &MongoTripCollection{}
	_, err = trips.FindTripDetails(ctx, Query{})
	assert.ErrorIs(t, err, ErrNilColl)

	settings := &MongoSettingsCollection{}
	assert.ErrorIs(t, settings.SaveSetting(ctx, "k", "v"), ErrNilColl)
}

func TestParseID(t *testing.T) {
	_, err := ParseID("not-hex")
	assert.ErrorIs(t, err, ErrInvalidID)

	oid, err := ParseID("507f1f77bcf86cd799439011")
	require.NoError(t, err)
	assert.Equal(t, "507f1f77bcf86cd799439011", oid.Hex())
}

func TestQuery_Options(t *testing.T) {
	q := Query{Filter: bson.M{"status": "active"}, SortField: "created_at", Descending: true, Limit: 5}
	opts := q.findOptions()
	require.NotNil(t, opts.Limit)
	assert.Equal(t, int64(5), *opts.Limit)
	assert.Equal(t, bson.D{{Key: "created_at", Value: -1}}, opts.Sort)

	head := q.pipelineHead()
	assert.Len(t, head, 3)
	assert.Equal(t, "$match", head[0][0].Key)
	assert.Equal(t, "$sort", head[1][0].Key)
	assert.Equal(t, "$limit", head[2][0].Key)

	assert.Equal(t, bson.M{}, Query{}.filter())
	assert.Len(t, Query{}.pipelineHead(), 1)
}

func TestVehicleRoundTrip_Integration(t *testing.T) {
	store := NewStore(testDatabase(t))
	ctx := context.Background()
	require.NoError(t, store.EnsureIndexes(ctx))

	route := "North Loop"
	v := models.Vehicle{
		LicensePlate:      "KA-01-1234",
		VehicleType:       "truck",
		RouteAssigned:     &route,
		Status:            models.VehicleActive,
		MaintenanceStatus: models.MaintenanceGood,
		FuelEfficiencyKML: 8.5,
	}
	require.NoError(t, store.Vehicles.InsertVehicle(ctx, &v))
	require.False(t, v.ID.IsZero())

	got, err := store.Vehicles.FindVehicleByID(ctx, v.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, v.LicensePlate, got.LicensePlate)
	assert.Equal(t, v.VehicleType, got.VehicleType)
	require.NotNil(t, got.RouteAssigned)
	assert.Equal(t, route, *got.RouteAssigned)
	assert.Equal(t, v.Status, got.Status)
	assert.Equal(t, v.FuelEfficiencyKML, got.FuelEfficiencyKML)

	dup := models.Vehicle{LicensePlate: "KA-01-1234"}
	assert.ErrorIs(t, store.Vehicles.InsertVehicle(ctx, &dup), ErrDuplicate)

	got.RouteAssigned = nil
	require.NoError(t, store.Vehicles.UpdateVehicle(ctx, v.ID.Hex(), *got))
	got, err = store.Vehicles.FindVehicleByID(ctx, v.ID.Hex())
	require.NoError(t, err)
	assert.Nil(t, got.RouteAssigned)

	require.NoError(t, store.Vehicles.DeleteVehicle(ctx, v.ID.Hex()))
	_, err = store.Vehicles.FindVehicleByID(ctx, v.ID.Hex())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTripDetails_Integration(t *testing.T) {
	store := NewStore(testDatabase(t))
	ctx := context.Background()

	v := models.Vehicle{LicensePlate: "TRK-9"}
	require.NoError(t, store.Vehicles.InsertVehicle(ctx, &v))

	user := models.User{Email: "d@example.com"}
	require.NoError(t, store.Users.InsertUser(ctx, &user))
	require.NoError(t, store.Profiles.UpsertProfile(ctx, models.Profile{ID: user.ID, FullName: "Dana Reyes"}))

	d := models.Driver{ProfileID: &user.ID, LicenseNumber: "DL-1", AssignedVehicleID: &v.ID}
	require.NoError(t, store.Drivers.InsertDriver(ctx, &d))

	trip := models.Trip{VehicleID: v.ID, DriverID: &d.ID, RouteName: "Harbor", StartTime: time.Now(), Status: models.TripInProgress}
	require.NoError(t, store.Trips.InsertTrip(ctx, &trip))

	details, err := store.Trips.FindTripDetails(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, "TRK-9", details[0].LicensePlate)
	assert.Equal(t, "Dana Reyes", details[0].DriverName)
	assert.Equal(t, "Harbor", details[0].RouteName)

	drivers, err := store.Drivers.FindDriverDetails(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, drivers, 1)
	assert.Equal(t, "Dana Reyes", drivers[0].FullName())
	require.NotNil(t, drivers[0].Vehicle)
	assert.Equal(t, "TRK-9", drivers[0].Vehicle.LicensePlate)
}
