package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleetdash/internal/alerts"
	"github.com/ukydev/fleetdash/internal/models"
)

type mockAlertSource struct {
	mock.Mock
}

func (m *mockAlertSource) Refresh(ctx context.Context) ([]models.Alert, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]models.Alert)
	return list, args.Error(1)
}

func (m *mockAlertSource) Snapshot() []models.Alert {
	args := m.Called()
	list, _ := args.Get(0).([]models.Alert)
	return list
}

func alertRequest(method, target, userID, alertID string) *http.Request {
	req := withClaims(httptest.NewRequest(method, target, nil), userID)
	if alertID != "" {
		req = mux.SetURLVars(req, map[string]string{"id": alertID})
	}
	return req
}

func TestAlertHandler_DismissReappearsOnNextList(t *testing.T) {
	source := &mockAlertSource{}
	derived := []models.Alert{
		{ID: "critical-1", Type: models.AlertCritical, Title: "Critical Maintenance Required"},
		{ID: "schedule-2", Type: models.AlertSchedule, Title: "Schedule Deviation"},
	}
	source.On("Refresh", mock.Anything).Return(derived, nil)
	h := NewAlertHandler(source, alerts.NewSessions())

	w := httptest.NewRecorder()
	h.List(w, alertRequest(http.MethodGet, "/api/alerts", "u1", ""))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Alert](t, w), 2)

	w = httptest.NewRecorder()
	h.Acknowledge(w, alertRequest(http.MethodPost, "/api/alerts/critical-1/acknowledge", "u1", "critical-1"))
	require.Equal(t, http.StatusOK, w.Code)
	acked := decode[[]models.Alert](t, w)
	assert.True(t, acked[0].Acknowledged)

	w = httptest.NewRecorder()
	h.Dismiss(w, alertRequest(http.MethodDelete, "/api/alerts/schedule-2", "u1", "schedule-2"))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	h.Dismiss(w, alertRequest(http.MethodDelete, "/api/alerts/schedule-2", "u1", "schedule-2"))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	h.List(w, alertRequest(http.MethodGet, "/api/alerts", "u1", ""))
	again := decode[[]models.Alert](t, w)
	require.Len(t, again, 2)
	assert.False(t, again[0].Acknowledged)
}

func TestAlertHandler_SessionsArePerUser(t *testing.T) {
	source := &mockAlertSource{}
	source.On("Refresh", mock.Anything).Return([]models.Alert{{ID: "a"}}, nil)
	h := NewAlertHandler(source, alerts.NewSessions())

	for _, u := range []string{"u1", "u2"} {
		h.List(httptest.NewRecorder(), alertRequest(http.MethodGet, "/api/alerts", u, ""))
	}
	h.Dismiss(httptest.NewRecorder(), alertRequest(http.MethodDelete, "/api/alerts/a", "u1", "a"))

	w := httptest.NewRecorder()
	h.Acknowledge(w, alertRequest(http.MethodPost, "/api/alerts/a/acknowledge", "u2", "a"))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAlertHandler_FallsBackToSnapshot(t *testing.T) {
	source := &mockAlertSource{}
	source.On("Refresh", mock.Anything).Return(nil, errors.New("mongo down"))
	source.On("Snapshot").Return([]models.Alert{{ID: "stale"}})
	h := NewAlertHandler(source, alerts.NewSessions())

	w := httptest.NewRecorder()
	h.List(w, alertRequest(http.MethodGet, "/api/alerts", "u1", ""))
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]models.Alert](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, "stale", list[0].ID)
	source.AssertExpectations(t)
}

func TestAlertHandler_RequiresUser(t *testing.T) {
	h := NewAlertHandler(&mockAlertSource{}, alerts.NewSessions())
	w := httptest.NewRecorder()
	h.List(w, httptest.NewRequest(http.MethodGet, "/api/alerts", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
