package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleetdash/internal/alerts"
	"github.com/ukydev/fleetdash/internal/auth"
	"github.com/ukydev/fleetdash/internal/db"
	"github.com/ukydev/fleetdash/internal/middleware"
	"github.com/ukydev/fleetdash/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	authService *auth.Service
	users       db.UserCollection
	profiles    db.ProfileCollection
	roles       db.RoleCollection
	resolver    middleware.IdentityResolver
	sessions    *alerts.Sessions
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(authService *auth.Service, users db.UserCollection, profiles db.ProfileCollection,
	roles db.RoleCollection, resolver middleware.IdentityResolver, sessions *alerts.Sessions) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		users:       users,
		profiles:    profiles,
		roles:       roles,
		resolver:    resolver,
		sessions:    sessions,
	}
}

// SignUp registers a user. No role is assigned; a fleet manager grants one
// later.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req models.SignUpRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	// Validate input
	if err := h.authService.ValidateEmail(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.authService.ValidatePassword(req.Password); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Check if email already exists
	if _, err := h.users.FindUserByEmail(r.Context(), req.Email); err == nil {
		writeError(w, http.StatusConflict, "Email already exists")
		return
	} else if !db.IsNotFound(err) {
		writeStoreError(w, r, err, "user")
		return
	}

	hash, err := h.authService.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	now := time.Now()
	user := models.User{
		ID:           primitive.NewObjectID(),
		Email:        req.Email,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := h.users.InsertUser(r.Context(), &user); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			writeError(w, http.StatusConflict, "Email already exists")
			return
		}
		writeStoreError(w, r, err, "user")
		return
	}

	profile := models.Profile{ID: user.ID, Email: user.Email, FullName: req.FullName, Phone: req.Phone, CreatedAt: now, UpdatedAt: now}
	if err := h.profiles.UpsertProfile(r.Context(), profile); err != nil {
		log.WithError(err).WithField("user_id", user.ID.Hex()).Error("Failed to create profile")
		_ = h.users.DeleteUser(r.Context(), user.ID.Hex())
		writeError(w, http.StatusInternalServerError, "Failed to create profile")
		return
	}

	session, err := h.issue(&user, &profile, "")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	log.WithField("user_id", user.ID.Hex()).Info("User signed up")
	writeJSON(w, http.StatusCreated, session)
}

// SignIn exchanges credentials for a session.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req models.SignInRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := h.users.FindUserByEmail(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if !db.IsNotFound(err) {
			log.WithError(err).Error("Failed to look up user")
		}
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if !user.IsActive {
		writeError(w, http.StatusUnauthorized, "Account is deactivated")
		return
	}
	if !h.authService.CheckPassword(req.Password, user.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	identity, err := h.resolver.Resolve(r.Context(), user.ID.Hex())
	if err != nil {
		log.WithError(err).WithField("user_id", user.ID.Hex()).Error("Failed to resolve identity")
		writeError(w, http.StatusInternalServerError, "Failed to resolve role")
		return
	}

	session, err := h.issue(user, identity.Profile, identity.Role)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	if err := h.users.UpdateLastLogin(r.Context(), user.ID.Hex()); err != nil {
		log.WithError(err).WithField("user_id", user.ID.Hex()).Warn("Failed to update last login")
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *AuthHandler) issue(user *models.User, profile *models.Profile, role models.Role) (models.Session, error) {
	token, exp, err := h.authService.GenerateToken(user, role)
	if err != nil {
		return models.Session{}, err
	}
	refresh, err := h.authService.GenerateRefreshToken(user.ID.Hex())
	if err != nil {
		return models.Session{}, err
	}
	return models.Session{
		Token:        token,
		RefreshToken: refresh,
		ExpiresAt:    exp.Unix(),
		User:         *user,
		Profile:      profile,
		Role:         role,
	}, nil
}

// Refresh exchanges a refresh token for a new session. The presented token
// is consumed and a new one is returned.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "Refresh token is required")
		return
	}

	userID, err := h.authService.RedeemRefreshToken(req.RefreshToken)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid or expired refresh token")
		return
	}
	user, err := h.users.FindUserByID(r.Context(), userID)
	if err != nil {
		if db.IsNotFound(err) {
			writeError(w, http.StatusUnauthorized, "Invalid or expired refresh token")
			return
		}
		writeStoreError(w, r, err, "user")
		return
	}
	if !user.IsActive {
		writeError(w, http.StatusUnauthorized, "Account is deactivated")
		return
	}

	identity, err := h.resolver.Resolve(r.Context(), userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Failed to resolve identity")
		writeError(w, http.StatusInternalServerError, "Failed to resolve role")
		return
	}
	session, err := h.issue(user, identity.Profile, identity.Role)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// SignOut revokes the current token and forgets the caller's alert state.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "User context not found")
		return
	}
	h.authService.Revoke(claims)
	h.authService.RevokeRefreshTokens(claims.UserID)
	if h.sessions != nil {
		h.sessions.Drop(claims.UserID)
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Signed out"})
}

// Session returns the current user with a freshly resolved profile and role.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "User context not found")
		return
	}
	user, err := h.users.FindUserByID(r.Context(), claims.UserID)
	if err != nil {
		writeStoreError(w, r, err, "user")
		return
	}
	identity, err := h.resolver.Resolve(r.Context(), claims.UserID)
	if err != nil {
		log.WithError(err).WithField("user_id", claims.UserID).Error("Failed to resolve identity")
		writeError(w, http.StatusInternalServerError, "Failed to resolve role")
		return
	}
	writeJSON(w, http.StatusOK, models.Session{
		ExpiresAt: claims.Exp,
		User:      *user,
		Profile:   identity.Profile,
		Role:      identity.Role,
	})
}

// ChangePassword changes the current user's password and clears the
// must-change flag set on generated accounts.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "User context not found")
		return
	}

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "Current password and new password are required")
		return
	}
	if err := h.authService.ValidatePassword(req.NewPassword); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.users.FindUserByID(r.Context(), claims.UserID)
	if err != nil {
		writeStoreError(w, r, err, "user")
		return
	}
	if !h.authService.CheckPassword(req.CurrentPassword, user.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "Current password is incorrect")
		return
	}

	hash, err := h.authService.HashPassword(req.NewPassword)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to hash password")
		return
	}
	if err := h.users.UpdatePassword(r.Context(), claims.UserID, hash, false); err != nil {
		writeStoreError(w, r, err, "user")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password changed successfully"})
}

// SetRole assigns a role to a user.
func (h *AuthHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	var req struct {
		Role models.Role `json:"role"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !models.IsValidRole(req.Role) {
		writeError(w, http.StatusBadRequest, "Invalid role")
		return
	}
	user, err := h.users.FindUserByID(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, err, "user")
		return
	}
	if err := h.roles.SetRole(r.Context(), user.ID, req.Role); err != nil {
		writeStoreError(w, r, err, "user")
		return
	}
	log.WithFields(log.Fields{"user_id": id, "role": req.Role}).Info("Role assigned")
	writeJSON(w, http.StatusOK, models.UserRole{UserID: user.ID, Role: req.Role, UpdatedAt: time.Now()})
}
