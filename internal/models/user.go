package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role represents the view-gating role assigned to a user.
type Role string

const (
	RoleFleetManager Role = "fleet_manager"
	RoleOperations   Role = "operations"
	RoleDriver       Role = "driver"
	RoleFinance      Role = "finance"
)

// AllRoles lists every assignable role.
var AllRoles = []Role{RoleFleetManager, RoleOperations, RoleDriver, RoleFinance}

// User is an authentication identity.
type User struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email              string             `bson:"email" json:"email"`
	PasswordHash       string             `bson:"password_hash" json:"-"`
	IsActive           bool               `bson:"is_active" json:"is_active"`
	MustChangePassword bool               `bson:"must_change_password" json:"must_change_password"`
	LastLogin          *time.Time         `bson:"last_login,omitempty" json:"last_login,omitempty"`
	CreatedAt          time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt          time.Time          `bson:"updated_at" json:"updated_at"`
}

// Profile holds the display data of a user. Its ID equals the user's ID.
type Profile struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Email     string             `bson:"email" json:"email"`
	FullName  string             `bson:"full_name" json:"full_name"`
	Phone     string             `bson:"phone,omitempty" json:"phone,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// ProfileSummary is the slice of a profile embedded in joined projections.
type ProfileSummary struct {
	ID       primitive.ObjectID `bson:"_id" json:"id"`
	FullName string             `bson:"full_name" json:"full_name"`
	Email    string             `bson:"email" json:"email"`
}

// UserRole maps one user to one role.
type UserRole struct {
	UserID    primitive.ObjectID `bson:"_id" json:"user_id"`
	Role      Role               `bson:"role" json:"role"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// SignInRequest represents a sign-in request
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUpRequest represents a self-service registration request
type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}

// Session is returned on sign-in and by the session endpoint.
type Session struct {
	Token        string   `json:"token,omitempty"`
	RefreshToken string   `json:"refresh_token,omitempty"`
	ExpiresAt    int64    `json:"expires_at"`
	User         User     `json:"user"`
	Profile      *Profile `json:"profile,omitempty"`
	Role         Role     `json:"role,omitempty"`
}

// Claims represents JWT claims
type Claims struct {
	TokenID string `json:"jti"`
	UserID  string `json:"user_id"`
	Email   string `json:"email"`
	Role    Role   `json:"role"`
	Exp     int64  `json:"exp"`
}

// IsValidRole checks if a role is valid
func IsValidRole(role Role) bool {
	switch role {
	case RoleFleetManager, RoleOperations, RoleDriver, RoleFinance:
		return true
	default:
		return false
	}
}

// View names a role-gated area of the dashboard.
type View string

const (
	ViewDashboard   View = "dashboard"
	ViewVehicles    View = "vehicles"
	ViewDrivers     View = "drivers"
	ViewTrips       View = "trips"
	ViewMaintenance View = "maintenance"
	ViewFuel        View = "fuel"
	ViewAnalytics   View = "analytics"
	ViewReports     View = "reports"
	ViewAlerts      View = "alerts"
	ViewSettings    View = "settings"
	ViewUsers       View = "users"
)

var viewRoles = map[View][]Role{
	ViewDashboard:   AllRoles,
	ViewVehicles:    {RoleFleetManager, RoleOperations},
	ViewDrivers:     {RoleFleetManager, RoleOperations},
	ViewTrips:       {RoleFleetManager, RoleOperations, RoleDriver},
	ViewMaintenance: {RoleFleetManager, RoleOperations},
	ViewFuel:        {RoleFleetManager, RoleOperations, RoleFinance},
	ViewAnalytics:   {RoleFleetManager, RoleOperations, RoleFinance},
	ViewReports:     {RoleFleetManager, RoleFinance},
	ViewAlerts:      {RoleFleetManager, RoleOperations},
	ViewSettings:    {RoleFleetManager},
	ViewUsers:       {RoleFleetManager},
}

// RolesFor returns the roles allowed to open a view.
func RolesFor(v View) []Role {
	return viewRoles[v]
}

// CanAccess reports whether the role may open the given view.
func (r Role) CanAccess(v View) bool {
	for _, allowed := range viewRoles[v] {
		if allowed == r {
			return true
		}
	}
	return false
}
