package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleetdash/internal/alerts"
	"github.com/ukydev/fleetdash/internal/middleware"
	"github.com/ukydev/fleetdash/internal/models"
)

// AlertSource derives the current alert list.
type AlertSource interface {
	Refresh(ctx context.Context) ([]models.Alert, error)
	Snapshot() []models.Alert
}

// AlertHandler serves /api/alerts. Acknowledge and dismiss state lives in
// the caller's session and is reset by the next list.
type AlertHandler struct {
	source   AlertSource
	sessions *alerts.Sessions
}

// NewAlertHandler creates an alert handler.
func NewAlertHandler(source AlertSource, sessions *alerts.Sessions) *AlertHandler {
	return &AlertHandler{source: source, sessions: sessions}
}

func (h *AlertHandler) session(r *http.Request) (*alerts.Session, bool) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		return nil, false
	}
	return h.sessions.For(claims.UserID), true
}

// List derives alerts from current rows. When derivation fails the last
// good snapshot is served instead.
func (h *AlertHandler) List(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User context not found")
		return
	}
	list, err := h.source.Refresh(r.Context())
	if err != nil {
		log.WithError(err).Warn("Serving last alert snapshot")
		list = h.source.Snapshot()
	}
	s.Replace(list)
	writeJSON(w, http.StatusOK, s.List())
}

// Acknowledge marks one alert as seen.
func (h *AlertHandler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User context not found")
		return
	}
	if !s.Acknowledge(mux.Vars(r)["id"]) {
		writeError(w, http.StatusNotFound, "Alert not found")
		return
	}
	writeJSON(w, http.StatusOK, s.List())
}

// Dismiss hides one alert until the next list.
func (h *AlertHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User context not found")
		return
	}
	if !s.Dismiss(mux.Vars(r)["id"]) {
		writeError(w, http.StatusNotFound, "Alert not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
