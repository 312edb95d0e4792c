package db

import (
	"context"
	"errors"
	"time"

	"github.com/ukydev/fleetdash/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// UserCollection defines the interface for user database operations
type UserCollection interface {
	InsertUser(ctx context.Context, user *models.User) error
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePassword(ctx context.Context, id string, hash string, mustChange bool) error
	DeleteUser(ctx context.Context, id string) error
	UpdateLastLogin(ctx context.Context, id string) error
}

// MongoUserCollection implements UserCollection for MongoDB
type MongoUserCollection struct {
	Collection *mongo.Collection
}

// InsertUser inserts a new user into the database. The caller may preset
// the ID; otherwise Mongo assigns one and it is written back.
func (c *MongoUserCollection) InsertUser(ctx context.Context, user *models.User) error {
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	user.IsActive = true

	oid, err := insertOne(ctx, c.Collection, user)
	if err != nil {
		return err
	}
	if user.ID.IsZero() {
		user.ID = oid
	}
	return nil
}

// FindUserByID finds a user by their ID
func (c *MongoUserCollection) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	return findByID[models.User](ctx, c.Collection, id)
}

// FindUserByEmail finds a user by their email
func (c *MongoUserCollection) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if c.Collection == nil {
		return nil, ErrNilColl
	}
	var user models.User
	err := c.Collection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &user, nil
}

// UpdatePassword stores a new password hash.
func (c *MongoUserCollection) UpdatePassword(ctx context.Context, id string, hash string, mustChange bool) error {
	return c.set(ctx, id, bson.M{"password_hash": hash, "must_change_password": mustChange})
}

// DeleteUser deletes a user from the database
func (c *MongoUserCollection) DeleteUser(ctx context.Context, id string) error {
	return deleteByID(ctx, c.Collection, id)
}

// UpdateLastLogin updates the last login time for a user
func (c *MongoUserCollection) UpdateLastLogin(ctx context.Context, id string) error {
	return c.set(ctx, id, bson.M{"last_login": time.Now()})
}

func (c *MongoUserCollection) set(ctx context.Context, id string, fields bson.M) error {
	if c.Collection == nil {
		return ErrNilColl
	}
	objectID, err := ParseID(id)
	if err != nil {
		return err
	}
	fields["updated_at"] = time.Now()
	result, err := c.Collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
