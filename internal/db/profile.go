package db

import (
	"context"
	"time"

	"github.com/ukydev/fleetdash/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoProfileCollection implements ProfileCollection for MongoDB.
type MongoProfileCollection struct {
	Collection *mongo.Collection
}

// UpsertProfile creates or replaces the profile keyed by the user's ID.
func (c *MongoProfileCollection) UpsertProfile(ctx context.Context, profile models.Profile) error {
	if c.Collection == nil {
		return ErrNilColl
	}
	now := time.Now()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now
	_, err := c.Collection.ReplaceOne(ctx, bson.M{"_id": profile.ID}, profile, options.Replace().SetUpsert(true))
	return err
}

// FindProfileByID finds a profile by its user ID.
func (c *MongoProfileCollection) FindProfileByID(ctx context.Context, id string) (*models.Profile, error) {
	return findByID[models.Profile](ctx, c.Collection, id)
}

// DeleteProfile deletes a profile by its user ID.
func (c *MongoProfileCollection) DeleteProfile(ctx context.Context, id string) error {
	return deleteByID(ctx, c.Collection, id)
}

// MongoRoleCollection implements RoleCollection for MongoDB.
type MongoRoleCollection struct {
	Collection *mongo.Collection
}

// SetRole assigns role to the user, replacing any previous assignment.
func (c *MongoRoleCollection) SetRole(ctx context.Context, userID primitive.ObjectID, role models.Role) error {
	if c.Collection == nil {
		return ErrNilColl
	}
	doc := models.UserRole{UserID: userID, Role: role, UpdatedAt: time.Now()}
	_, err := c.Collection.ReplaceOne(ctx, bson.M{"_id": userID}, doc, options.Replace().SetUpsert(true))
	return err
}

// FindRole returns the role of the user, or ErrNotFound when none is assigned.
func (c *MongoRoleCollection) FindRole(ctx context.Context, userID string) (models.Role, error) {
	ur, err := findByID[models.UserRole](ctx, c.Collection, userID)
	if err != nil {
		return "", err
	}
	return ur.Role, nil
}

// DeleteRole removes the user's role assignment.
func (c *MongoRoleCollection) DeleteRole(ctx context.Context, userID string) error {
	return deleteByID(ctx, c.Collection, userID)
}

// MongoSettingsCollection persists the runtime settings store.
type MongoSettingsCollection struct {
	Collection *mongo.Collection
}

type settingDoc struct {
	Key       string    `bson:"_id"`
	Value     string    `bson:"value"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// LoadSettings returns every stored setting.
func (c *MongoSettingsCollection) LoadSettings(ctx context.Context) (map[string]string, error) {
	docs, err := findAll[settingDoc](ctx, c.Collection, Query{})
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(docs))
	for _, d := range docs {
		out[d.Key] = d.Value
	}
	return out, nil
}

// SaveSetting upserts one setting; an empty value deletes it.
func (c *MongoSettingsCollection) SaveSetting(ctx context.Context, key, value string) error {
	if c.Collection == nil {
		return ErrNilColl
	}
	if value == "" {
		_, err := c.Collection.DeleteOne(ctx, bson.M{"_id": key})
		return err
	}
	doc := settingDoc{Key: key, Value: value, UpdatedAt: time.Now()}
	_, err := c.Collection.ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	return err
}
