package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/ukydev/fleetdash/internal/models"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token expired")
	ErrRevokedToken       = errors.New("token revoked")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserInactive       = errors.New("user is inactive")
)

const (
	defaultSecret   = "default-secret-key-change-in-production"
	refreshTokenExp = 7 * 24 * time.Hour
)

type refreshGrant struct {
	userID string
	exp    time.Time
}

// Service handles authentication operations
type Service struct {
	jwtSecret []byte
	tokenExp  time.Duration

	mu      sync.Mutex
	revoked map[string]time.Time    // token id -> token expiry
	refresh map[string]refreshGrant // sha256(refresh token) -> grant
	now     func() time.Time
}

// NewService creates a new authentication service. An empty secret or a
// non-positive expiry falls back to development defaults.
func NewService(secret string, exp time.Duration) *Service {
	if secret == "" {
		secret = defaultSecret
	}
	if exp <= 0 {
		exp = 24 * time.Hour
	}
	return &Service{
		jwtSecret: []byte(secret),
		tokenExp:  exp,
		revoked:   make(map[string]time.Time),
		refresh:   make(map[string]refreshGrant),
		now:       time.Now,
	}
}

// UsesDefaultSecret reports whether the development secret is in effect.
func (s *Service) UsesDefaultSecret() bool {
	return string(s.jwtSecret) == defaultSecret
}

// HashPassword hashes a password using bcrypt
func (s *Service) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(bytes), nil
}

// CheckPassword checks if a password matches a hash
func (s *Service) CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// GenerateToken generates a JWT for a user and the role assigned to them.
// It returns the token and its expiry.
func (s *Service) GenerateToken(user *models.User, role models.Role) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(s.tokenExp)
	claims := jwt.MapClaims{
		"jti":     uuid.NewString(),
		"user_id": user.ID.Hex(),
		"email":   user.Email,
		"role":    string(role),
		"exp":     exp.Unix(),
		"iat":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// GenerateRefreshToken issues a single-use refresh token for userID. Only
// its hash is kept.
func (s *Service) GenerateRefreshToken(userID string) (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate refresh token: %w", err)
	}
	token := base64.URLEncoding.EncodeToString(bytes)

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for h, g := range s.refresh {
		if !g.exp.After(now) {
			delete(s.refresh, h)
		}
	}
	s.refresh[hashToken(token)] = refreshGrant{userID: userID, exp: now.Add(refreshTokenExp)}
	return token, nil
}

// RedeemRefreshToken consumes a refresh token and returns the user it was
// issued to. A token can be redeemed once.
func (s *Service) RedeemRefreshToken(token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}
	key := hashToken(token)

	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.refresh[key]
	if !ok {
		return "", ErrInvalidToken
	}
	delete(s.refresh, key)
	if !g.exp.After(s.now()) {
		return "", ErrExpiredToken
	}
	return g.userID, nil
}

// RevokeRefreshTokens drops every outstanding refresh token of userID.
func (s *Service) RevokeRefreshTokens(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for h, g := range s.refresh {
		if g.userID == userID {
			delete(s.refresh, h)
		}
	}
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// ValidateToken validates a JWT token and returns the claims
func (s *Service) ValidateToken(tokenString string) (*models.Claims, error) {
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	tokenID, _ := claims["jti"].(string)
	userID, ok := claims["user_id"].(string)
	if !ok || tokenID == "" {
		return nil, ErrInvalidToken
	}
	email, _ := claims["email"].(string)
	roleStr, _ := claims["role"].(string)
	exp, ok := claims["exp"].(float64)
	if !ok {
		return nil, ErrInvalidToken
	}

	if s.isRevoked(tokenID) {
		return nil, ErrRevokedToken
	}

	return &models.Claims{
		TokenID: tokenID,
		UserID:  userID,
		Email:   email,
		Role:    models.Role(roleStr),
		Exp:     int64(exp),
	}, nil
}

// Revoke invalidates a token until it would have expired anyway.
func (s *Service) Revoke(claims *models.Claims) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[claims.TokenID] = time.Unix(claims.Exp, 0)

	now := time.Now()
	for id, exp := range s.revoked {
		if exp.Before(now) {
			delete(s.revoked, id)
		}
	}
}

func (s *Service) isRevoked(tokenID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.revoked[tokenID]
	return ok
}

// ExtractTokenFromHeader extracts token from Authorization header
func (s *Service) ExtractTokenFromHeader(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrInvalidToken
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", ErrInvalidToken
	}

	return parts[1], nil
}

// ValidatePassword validates password strength
func (s *Service) ValidatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters long")
	}
	return nil
}

// ValidateEmail validates email format
func (s *Service) ValidateEmail(email string) error {
	if !strings.Contains(email, "@") || !strings.Contains(email, ".") {
		return errors.New("invalid email format")
	}
	return nil
}

const passwordAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnpqrstuvwxyz23456789!@#$%"

// GenerateTemporaryPassword returns a random password of length n drawn
// from an alphabet without look-alike characters.
func GenerateTemporaryPassword(n int) (string, error) {
	if n < 8 {
		n = 8
	}
	var b strings.Builder
	max := big.NewInt(int64(len(passwordAlphabet)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate password: %w", err)
		}
		b.WriteByte(passwordAlphabet[idx.Int64()])
	}
	return b.String(), nil
}
