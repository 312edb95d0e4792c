package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleetdash/internal/auth"
	"github.com/ukydev/fleetdash/internal/models"
	"github.com/ukydev/fleetdash/internal/roles"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	UserContextKey     contextKey = "user"
	IdentityContextKey contextKey = "identity"
)

// IdentityResolver loads the current profile and role of a user.
type IdentityResolver interface {
	Resolve(ctx context.Context, userID string) (roles.Identity, error)
}

// AuthMiddleware provides JWT authentication and role guards
type AuthMiddleware struct {
	authService *auth.Service
	resolver    IdentityResolver
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(authService *auth.Service, resolver IdentityResolver) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		resolver:    resolver,
	}
}

// Authenticate validates JWT tokens and adds user context. Websocket
// clients that cannot set headers may pass the token as access_token.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip authentication for certain endpoints
		if shouldSkipAuth(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token := r.URL.Query().Get("access_token")
		if authHeader := r.Header.Get("Authorization"); authHeader != "" {
			var err error
			token, err = m.authService.ExtractTokenFromHeader(authHeader)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Invalid authorization header")
				return
			}
		}
		if token == "" {
			writeError(w, http.StatusUnauthorized, "Authorization header required")
			return
		}

		claims, err := m.authService.ValidateToken(token)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrExpiredToken):
				writeError(w, http.StatusUnauthorized, "Token expired")
			case errors.Is(err, auth.ErrRevokedToken):
				writeError(w, http.StatusUnauthorized, "Token revoked")
			default:
				writeError(w, http.StatusUnauthorized, "Invalid token")
			}
			return
		}

		// Add user context to request
		ctx := context.WithValue(r.Context(), UserContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Guard lets the request through only when the caller's current role is
// one of allowed. The role is read from storage on every request so that
// reassignments apply without a new sign-in.
func (m *AuthMiddleware) Guard(allowed ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetUserFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "User context not found")
				return
			}

			identity, err := m.resolver.Resolve(r.Context(), claims.UserID)
			if err != nil {
				log.WithError(err).WithField("user_id", claims.UserID).Error("Failed to resolve identity")
				writeError(w, http.StatusInternalServerError, "Failed to resolve role")
				return
			}

			if len(allowed) > 0 && !identity.HasAnyRole(allowed...) {
				writeError(w, http.StatusForbidden, "Insufficient permissions")
				return
			}

			ctx := context.WithValue(r.Context(), IdentityContextKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireView guards a route with the role set of a dashboard view.
func (m *AuthMiddleware) RequireView(view models.View) func(http.Handler) http.Handler {
	return m.Guard(models.RolesFor(view)...)
}

// GetUserFromContext extracts user claims from request context
func GetUserFromContext(ctx context.Context) (*models.Claims, bool) {
	claims, ok := ctx.Value(UserContextKey).(*models.Claims)
	return claims, ok
}

// GetIdentityFromContext returns the identity resolved by Guard.
func GetIdentityFromContext(ctx context.Context) (roles.Identity, bool) {
	identity, ok := ctx.Value(IdentityContextKey).(roles.Identity)
	return identity, ok
}

// shouldSkipAuth determines if authentication should be skipped for a given path
func shouldSkipAuth(path string) bool {
	skipPaths := []string{
		"/api/auth/signin",
		"/api/auth/signup",
		"/api/auth/refresh",
		"/health",
	}

	for _, skipPath := range skipPaths {
		if strings.HasPrefix(path, skipPath) {
			return true
		}
	}
	return false
}

// RateLimitMiddleware provides basic rate limiting
type RateLimitMiddleware struct {
	requests  map[string][]int64 // IP -> timestamps
	mu        sync.RWMutex       // Mutex for thread-safe access
	lastSweep int64
	now       func() time.Time
}

// NewRateLimitMiddleware creates a new rate limiting middleware
func NewRateLimitMiddleware() *RateLimitMiddleware {
	return &RateLimitMiddleware{
		requests: make(map[string][]int64),
		now:      time.Now,
	}
}

// RateLimit applies rate limiting based on IP address
func (m *RateLimitMiddleware) RateLimit(maxRequests int, windowSeconds int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := getClientIP(r)

			now := m.now().Unix()
			windowStart := now - int64(windowSeconds)

			m.mu.Lock()

			// Drop clients that went quiet, at most once per window.
			if now-m.lastSweep >= int64(windowSeconds) {
				for ip := range m.requests {
					m.prune(ip, windowStart)
				}
				m.lastSweep = now
			} else {
				m.prune(clientIP, windowStart)
			}

			if len(m.requests[clientIP]) >= maxRequests {
				m.mu.Unlock()
				log.WithField("client_ip", clientIP).Warn("Rate limit exceeded")
				writeError(w, http.StatusTooManyRequests, "Rate limit exceeded")
				return
			}

			m.requests[clientIP] = append(m.requests[clientIP], now)
			m.mu.Unlock()

			next.ServeHTTP(w, r)
		})
	}
}

// prune keeps the timestamps of ip inside the window and forgets ip when
// none remain. Callers hold m.mu.
func (m *RateLimitMiddleware) prune(ip string, windowStart int64) {
	timestamps, ok := m.requests[ip]
	if !ok {
		return
	}
	valid := timestamps[:0]
	for _, ts := range timestamps {
		if ts >= windowStart {
			valid = append(valid, ts)
		}
	}
	if len(valid) == 0 {
		delete(m.requests, ip)
		return
	}
	m.requests[ip] = valid
}

// getClientIP extracts the client IP from the request
func getClientIP(r *http.Request) string {
	// Check for forwarded headers first
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return strings.TrimSpace(strings.Split(ip, ",")[0])
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}

	// Fall back to remote address
	ip := r.RemoteAddr
	if colonIndex := strings.LastIndex(ip, ":"); colonIndex != -1 {
		ip = ip[:colonIndex]
	}
	return ip
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
