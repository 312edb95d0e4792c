package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleetdash/internal/auth"
	"github.com/ukydev/fleetdash/internal/db"
	"github.com/ukydev/fleetdash/internal/middleware"
	"github.com/ukydev/fleetdash/internal/models"
	"github.com/ukydev/fleetdash/internal/realtime"
	"github.com/ukydev/fleetdash/internal/roles"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// stubResolver hands out fixed roles per user id.
type stubResolver struct {
	mu    sync.Mutex
	roles map[string]models.Role
}

func newStubResolver() *stubResolver {
	return &stubResolver{roles: map[string]models.Role{}}
}

func (s *stubResolver) Resolve(_ context.Context, userID string) (roles.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return roles.Identity{UserID: userID, Role: s.roles[userID]}, nil
}

// signIn registers a user with role and returns a bearer header value.
func (s *stubResolver) signIn(t *testing.T, svc *auth.Service, role models.Role) (string, primitive.ObjectID) {
	t.Helper()
	user := &models.User{ID: primitive.NewObjectID(), Email: string(role) + "@example.com"}
	token, _, err := svc.GenerateToken(user, role)
	require.NoError(t, err)
	s.mu.Lock()
	s.roles[user.ID.Hex()] = role
	s.mu.Unlock()
	return "Bearer " + token, user.ID
}

// changeLog records published changes.
type changeLog struct {
	mu      sync.Mutex
	changes []realtime.Change
}

func (c *changeLog) Publish(ch realtime.Change) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.changes = append(c.changes, ch)
}

func (c *changeLog) all() []realtime.Change {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]realtime.Change(nil), c.changes...)
}

// memVehicles is an in-memory VehicleCollection.
type memVehicles struct {
	mu   sync.Mutex
	rows map[primitive.ObjectID]models.Vehicle
	err  error
}

func newMemVehicles(vs ...models.Vehicle) *memVehicles {
	m := &memVehicles{rows: map[primitive.ObjectID]models.Vehicle{}}
	for _, v := range vs {
		m.rows[v.ID] = v
	}
	return m
}

func (m *memVehicles) InsertVehicle(_ context.Context, v *models.Vehicle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.rows {
		if existing.LicensePlate == v.LicensePlate {
			return db.ErrDuplicate
		}
	}
	now := time.Now()
	v.ID = primitive.NewObjectID()
	v.CreatedAt, v.UpdatedAt = now, now
	m.rows[v.ID] = *v
	return nil
}

func (m *memVehicles) FindVehicles(context.Context, db.Query) ([]models.Vehicle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]models.Vehicle, 0, len(m.rows))
	for _, v := range m.rows {
		out = append(out, v)
	}
	return out, nil
}

func (m *memVehicles) FindVehicleByID(_ context.Context, id string) (*models.Vehicle, error) {
	oid, err := db.ParseID(id)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.rows[oid]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &v, nil
}

func (m *memVehicles) UpdateVehicle(_ context.Context, id string, v models.Vehicle) error {
	oid, err := db.ParseID(id)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[oid]; !ok {
		return db.ErrNotFound
	}
	v.ID = oid
	v.UpdatedAt = time.Now()
	m.rows[oid] = v
	return nil
}

func (m *memVehicles) DeleteVehicle(_ context.Context, id string) error {
	oid, err := db.ParseID(id)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[oid]; !ok {
		return db.ErrNotFound
	}
	delete(m.rows, oid)
	return nil
}

func (m *memVehicles) UpdateVehiclePosition(_ context.Context, id string, pos models.Position) error {
	oid, err := db.ParseID(id)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.rows[oid]
	if !ok {
		return db.ErrNotFound
	}
	v.LastLocation = &pos
	m.rows[oid] = v
	return nil
}

func (m *memVehicles) MarkServiced(_ context.Context, id primitive.ObjectID, performed time.Time, nextDue *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.rows[id]
	if !ok {
		return db.ErrNotFound
	}
	v.LastServiceDate = &performed
	if nextDue != nil {
		v.NextServiceDate = nextDue
	}
	m.rows[id] = v
	return nil
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func withClaims(r *http.Request, userID string) *http.Request {
	ctx := context.WithValue(r.Context(), middleware.UserContextKey, &models.Claims{UserID: userID, Exp: time.Now().Add(time.Hour).Unix()})
	return r.WithContext(ctx)
}

func withIdentity(r *http.Request, role models.Role) *http.Request {
	ctx := context.WithValue(r.Context(), middleware.IdentityContextKey, roles.Identity{Role: role})
	return r.WithContext(ctx)
}
