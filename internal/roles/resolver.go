// Package roles resolves the profile and role assignment behind a session.
package roles

import (
	"context"
	"errors"
	"fmt"

	"github.com/ukydev/fleetdash/internal/db"
	"github.com/ukydev/fleetdash/internal/models"
)

// Identity is the resolved profile and role of an authenticated user. Role is
// empty when no role has been assigned yet.
type Identity struct {
	UserID  string
	Profile *models.Profile
	Role    models.Role
}

// HasRole reports whether the identity holds role.
func (i Identity) HasRole(role models.Role) bool {
	return i.Role != "" && i.Role == role
}

// HasAnyRole reports whether the identity holds one of roles.
func (i Identity) HasAnyRole(roles ...models.Role) bool {
	for _, r := range roles {
		if i.HasRole(r) {
			return true
		}
	}
	return false
}

// Resolver reads profiles and role assignments.
type Resolver struct {
	profiles db.ProfileCollection
	roles    db.RoleCollection
}

// NewResolver creates a resolver over the given collections.
func NewResolver(profiles db.ProfileCollection, roles db.RoleCollection) *Resolver {
	return &Resolver{profiles: profiles, roles: roles}
}

// Resolve loads the identity of userID. Missing profiles or roles are not
// errors; lookup failures are.
func (r *Resolver) Resolve(ctx context.Context, userID string) (Identity, error) {
	id := Identity{UserID: userID}

	profile, err := r.profiles.FindProfileByID(ctx, userID)
	switch {
	case err == nil:
		id.Profile = profile
	case errors.Is(err, db.ErrNotFound):
	default:
		return id, fmt.Errorf("resolve profile: %w", err)
	}

	role, err := r.roles.FindRole(ctx, userID)
	switch {
	case err == nil:
		id.Role = role
	case errors.Is(err, db.ErrNotFound):
	default:
		return id, fmt.Errorf("resolve role: %w", err)
	}
	return id, nil
}
