package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleetdash/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNewService(t *testing.T) {
	service := NewService("", 0)
	assert.NotNil(t, service)
	assert.NotEmpty(t, service.jwtSecret)
	assert.Equal(t, 24*time.Hour, service.tokenExp)
	assert.True(t, service.UsesDefaultSecret())

	service = NewService("s3cret", time.Hour)
	assert.Equal(t, time.Hour, service.tokenExp)
	assert.False(t, service.UsesDefaultSecret())
}

func TestService_HashPassword(t *testing.T) {
	service := NewService("", 0)

	password := "testpassword123"
	hash, err := service.HashPassword(password)

	assert.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, password, hash)

	assert.True(t, service.CheckPassword(password, hash))
	assert.False(t, service.CheckPassword("wrongpassword", hash))
}

func TestService_ValidateToken(t *testing.T) {
	service := NewService("", 0)

	user := &models.User{
		ID:    primitive.NewObjectID(),
		Email: "fm@example.com",
	}

	token, exp, err := service.GenerateToken(user, models.RoleFleetManager)
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))

	claims, err := service.ValidateToken("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.Hex(), claims.UserID)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, models.RoleFleetManager, claims.Role)
	assert.NotEmpty(t, claims.TokenID)

	_, err = service.ValidateToken("invalid-token")
	assert.Equal(t, ErrInvalidToken, err)

	other := NewService("another-secret", 0)
	_, err = other.ValidateToken(token)
	assert.Equal(t, ErrInvalidToken, err)
}

func TestService_ValidateToken_Expired(t *testing.T) {
	service := NewService("", 0)
	claims := jwt.MapClaims{
		"jti":     "abc",
		"user_id": primitive.NewObjectID().Hex(),
		"role":    "driver",
		"exp":     time.Now().Add(-time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(service.jwtSecret)
	require.NoError(t, err)

	_, err = service.ValidateToken(token)
	assert.Equal(t, ErrExpiredToken, err)
}

func TestService_Revoke(t *testing.T) {
	service := NewService("", 0)
	user := &models.User{ID: primitive.NewObjectID(), Email: "x@example.com"}
	token, _, err := service.GenerateToken(user, models.RoleDriver)
	require.NoError(t, err)

	claims, err := service.ValidateToken(token)
	require.NoError(t, err)

	service.Revoke(claims)
	_, err = service.ValidateToken(token)
	assert.Equal(t, ErrRevokedToken, err)

	fresh, _, err := service.GenerateToken(user, models.RoleDriver)
	require.NoError(t, err)
	_, err = service.ValidateToken(fresh)
	assert.NoError(t, err, "revocation is per token, not per user")
}

func TestService_ExtractTokenFromHeader(t *testing.T) {
	service := NewService("", 0)

	token, err := service.ExtractTokenFromHeader("Bearer abc")
	assert.NoError(t, err)
	assert.Equal(t, "abc", token)

	for _, header := range []string{"", "Bearer", "Basic abc", "Bearer "} {
		_, err := service.ExtractTokenFromHeader(header)
		assert.Equal(t, ErrInvalidToken, err, "header %q", header)
	}
}

func TestService_Validators(t *testing.T) {
	service := NewService("", 0)

	assert.NoError(t, service.ValidatePassword("longenough"))
	assert.Error(t, service.ValidatePassword("short"))

	assert.NoError(t, service.ValidateEmail("a@b.co"))
	assert.Error(t, service.ValidateEmail("not-an-email"))
}

func TestGenerateTemporaryPassword(t *testing.T) {
	p1, err := GenerateTemporaryPassword(12)
	require.NoError(t, err)
	p2, err := GenerateTemporaryPassword(12)
	require.NoError(t, err)

	assert.Len(t, p1, 12)
	assert.NotEqual(t, p1, p2)
	for _, c := range p1 {
		assert.True(t, strings.ContainsRune(passwordAlphabet, c))
	}

	short, err := GenerateTemporaryPassword(3)
	require.NoError(t, err)
	assert.Len(t, short, 8)
}

func TestService_RefreshToken(t *testing.T) {
	service := NewService("secret", time.Hour)
	userID := primitive.NewObjectID().Hex()

	token, err := service.GenerateRefreshToken(userID)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	for key := range service.refresh {
		assert.NotEqual(t, token, key, "only the hash is kept")
	}

	got, err := service.RedeemRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, got)

	_, err = service.RedeemRefreshToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken, "tokens are single use")

	_, err = service.RedeemRefreshToken("")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_RefreshToken_Expired(t *testing.T) {
	service := NewService("secret", time.Hour)
	issued := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return issued }

	token, err := service.GenerateRefreshToken("u1")
	require.NoError(t, err)

	service.now = func() time.Time { return issued.Add(refreshTokenExp + time.Second) }
	_, err = service.RedeemRefreshToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestService_RevokeRefreshTokens(t *testing.T) {
	service := NewService("secret", time.Hour)
	a1, err := service.GenerateRefreshToken("a")
	require.NoError(t, err)
	a2, err := service.GenerateRefreshToken("a")
	require.NoError(t, err)
	b, err := service.GenerateRefreshToken("b")
	require.NoError(t, err)

	service.RevokeRefreshTokens("a")

	_, err = service.RedeemRefreshToken(a1)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = service.RedeemRefreshToken(a2)
	assert.ErrorIs(t, err, ErrInvalidToken)
	got, err := service.RedeemRefreshToken(b)
	require.NoError(t, err)
	assert.Equal(t, "b", got)
}
