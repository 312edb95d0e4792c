// Package functions implements the administrative operations exposed under
// /functions/v1: creating a driver login and seeding demo accounts.
package functions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleetdash/internal/auth"
	"github.com/ukydev/fleetdash/internal/db"
	"github.com/ukydev/fleetdash/internal/models"
	"github.com/ukydev/fleetdash/internal/validation"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const temporaryPasswordLength = 12

var ErrEmailTaken = errors.New("a user with this email already exists")

// Service runs the functions against the user, profile, role and driver
// collections.
type Service struct {
	users    db.UserCollection
	profiles db.ProfileCollection
	roles    db.RoleCollection
	drivers  db.DriverCollection
	auth     *auth.Service
	validate *validation.Validator
	now      func() time.Time
}

// NewService creates a functions service.
func NewService(users db.UserCollection, profiles db.ProfileCollection, roles db.RoleCollection,
	drivers db.DriverCollection, authService *auth.Service) *Service {
	return &Service{
		users:    users,
		profiles: profiles,
		roles:    roles,
		drivers:  drivers,
		auth:     authService,
		validate: validation.New(),
		now:      time.Now,
	}
}

// CreateDriverRequest is the body of create-driver.
type CreateDriverRequest struct {
	Email             string   `json:"email" validate:"required,email"`
	FullName          string   `json:"full_name" validate:"required"`
	Phone             string   `json:"phone"`
	LicenseNumber     string   `json:"license_number" validate:"required"`
	AssignedVehicleID string   `json:"assigned_vehicle_id" validate:"omitempty,hexadecimal,len=24"`
	PerformanceScore  *float64 `json:"performance_score" validate:"omitempty,gte=0,lte=100"`
}

// CreateDriverResult is returned once; the temporary password is not stored
// anywhere in clear text and the user must change it on first sign-in.
type CreateDriverResult struct {
	UserID            string `json:"user_id"`
	DriverID          string `json:"driver_id"`
	Email             string `json:"email"`
	TemporaryPassword string `json:"temporary_password"`
}

// CreateDriver creates an auth user with a generated password, its profile,
// the driver role and a driver row linked to the profile. Partially created
// records are removed when a later step fails.
func (s *Service) CreateDriver(ctx context.Context, req CreateDriverRequest) (*CreateDriverResult, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	password, err := auth.GenerateTemporaryPassword(temporaryPasswordLength)
	if err != nil {
		return nil, fmt.Errorf("generate password: %w", err)
	}
	user, err := s.createAccount(ctx, req.Email, password, req.FullName, req.Phone, models.RoleDriver, true)
	if err != nil {
		return nil, err
	}

	score := float64(models.DefaultPerformanceScore)
	if req.PerformanceScore != nil {
		score = *req.PerformanceScore
	}
	driver := &models.Driver{
		ProfileID:        &user.ID,
		LicenseNumber:    req.LicenseNumber,
		PerformanceScore: score,
	}
	if req.AssignedVehicleID != "" {
		vid, err := db.ParseID(req.AssignedVehicleID)
		if err != nil {
			s.rollback(ctx, user.ID)
			return nil, err
		}
		driver.AssignedVehicleID = &vid
	}
	if err := s.drivers.InsertDriver(ctx, driver); err != nil {
		s.rollback(ctx, user.ID)
		return nil, fmt.Errorf("create driver: %w", err)
	}
	if driver.AssignedVehicleID != nil {
		if err := s.drivers.ReleaseVehicle(ctx, *driver.AssignedVehicleID, driver.ID); err != nil {
			log.WithError(err).WithField("driver_id", driver.ID.Hex()).Warn("Failed to release vehicle from other drivers")
		}
	}

	log.WithFields(log.Fields{"user_id": user.ID.Hex(), "driver_id": driver.ID.Hex()}).Info("Driver account created")
	return &CreateDriverResult{
		UserID:            user.ID.Hex(),
		DriverID:          driver.ID.Hex(),
		Email:             user.Email,
		TemporaryPassword: password,
	}, nil
}

// createAccount inserts the user, profile and role of a new login.
func (s *Service) createAccount(ctx context.Context, email, password, fullName, phone string, role models.Role, mustChange bool) (*models.User, error) {
	if _, err := s.users.FindUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !db.IsNotFound(err) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := s.auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := s.now()
	user := &models.User{
		ID:                 primitive.NewObjectID(),
		Email:              email,
		PasswordHash:       hash,
		IsActive:           true,
		MustChangePassword: mustChange,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.users.InsertUser(ctx, user); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	profile := models.Profile{ID: user.ID, Email: email, FullName: fullName, Phone: phone, CreatedAt: now, UpdatedAt: now}
	if err := s.profiles.UpsertProfile(ctx, profile); err != nil {
		s.rollback(ctx, user.ID)
		return nil, fmt.Errorf("create profile: %w", err)
	}
	if err := s.roles.SetRole(ctx, user.ID, role); err != nil {
		s.rollback(ctx, user.ID)
		return nil, fmt.Errorf("assign role: %w", err)
	}
	return user, nil
}

func (s *Service) rollback(ctx context.Context, userID primitive.ObjectID) {
	id := userID.Hex()
	for what, del := range map[string]func(context.Context, string) error{
		"role":    s.roles.DeleteRole,
		"profile": s.profiles.DeleteProfile,
		"user":    s.users.DeleteUser,
	} {
		if err := del(ctx, id); err != nil && !db.IsNotFound(err) {
			log.WithError(err).WithFields(log.Fields{"user_id": id, "record": what}).Error("Rollback failed")
		}
	}
}
