package functions

import (
	"context"
	"sync"

	"github.com/ukydev/fleetdash/internal/db"
	"github.com/ukydev/fleetdash/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memStore is an in-memory stand-in for the four collections the functions
// write to.
type memStore struct {
	db.DriverCollection

	mu       sync.Mutex
	users    map[string]*models.User
	profiles map[string]models.Profile
	roles    map[string]models.Role
	drivers  []models.Driver
	released []primitive.ObjectID

	failProfile error
	failDriver  error
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[string]*models.User),
		profiles: make(map[string]models.Profile),
		roles:    make(map[string]models.Role),
	}
}

func (m *memStore) InsertUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return db.ErrDuplicate
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	cp := *u
	m.users[u.ID.Hex()] = &cp
	return nil
}

func (m *memStore) FindUserByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, db.ErrNotFound
}

func (m *memStore) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, db.ErrNotFound
}

func (m *memStore) UpdatePassword(_ context.Context, id, hash string, mustChange bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return db.ErrNotFound
	}
	u.PasswordHash, u.MustChangePassword = hash, mustChange
	return nil
}

func (m *memStore) DeleteUser(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
	return nil
}

func (m *memStore) UpdateLastLogin(context.Context, string) error { return nil }

func (m *memStore) UpsertProfile(_ context.Context, p models.Profile) error {
	if m.failProfile != nil {
		return m.failProfile
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.ID.Hex()] = p
	return nil
}

func (m *memStore) FindProfileByID(_ context.Context, id string) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.profiles[id]; ok {
		return &p, nil
	}
	return nil, db.ErrNotFound
}

func (m *memStore) DeleteProfile(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.profiles, id)
	return nil
}

func (m *memStore) SetRole(_ context.Context, id primitive.ObjectID, role models.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roles[id.Hex()] = role
	return nil
}

func (m *memStore) FindRole(_ context.Context, id string) (models.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.roles[id]; ok {
		return r, nil
	}
	return "", db.ErrNotFound
}

func (m *memStore) DeleteRole(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.roles, id)
	return nil
}

func (m *memStore) InsertDriver(_ context.Context, d *models.Driver) error {
	if m.failDriver != nil {
		return m.failDriver
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	d.ID = primitive.NewObjectID()
	m.drivers = append(m.drivers, *d)
	return nil
}

func (m *memStore) ReleaseVehicle(_ context.Context, vehicleID, _ primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.released = append(m.released, vehicleID)
	return nil
}
