package alerts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ukydev/fleetdash/internal/models"
)

func TestSession_DismissDoesNotSurviveRecompute(t *testing.T) {
	v := vehicle("S-1")
	v.MaintenanceStatus = models.MaintenanceCritical
	derived := Derive([]models.Vehicle{v}, nil, now)

	sessions := NewSessions()
	s := sessions.For("user-1")
	s.Replace(derived)

	id := derived[0].ID
	assert.True(t, s.Acknowledge(id))
	assert.True(t, s.List()[0].Acknowledged)

	assert.True(t, s.Dismiss(id))
	assert.Empty(t, s.List())
	assert.False(t, s.Dismiss(id))

	s.Replace(Derive([]models.Vehicle{v}, nil, now))
	list := s.List()
	assert.Len(t, list, 1, "dismissed alert reappears after recomputation")
	assert.False(t, list[0].Acknowledged)
}

func TestSessions_PerUser(t *testing.T) {
	sessions := NewSessions()
	a := sessions.For("a")
	assert.Same(t, a, sessions.For("a"))
	assert.NotSame(t, a, sessions.For("b"))

	a.Replace([]models.Alert{{ID: "x"}})
	sessions.Drop("a")
	assert.Empty(t, sessions.For("a").List())
}

func TestSession_ListIsACopy(t *testing.T) {
	s := &Session{}
	s.Replace([]models.Alert{{ID: "x"}})
	list := s.List()
	list[0].Acknowledged = true
	assert.False(t, s.List()[0].Acknowledged)
}
