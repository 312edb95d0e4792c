package handlers

import (
	"errors"
	"net/http"
	"sort"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleetdash/internal/config"
	"github.com/ukydev/fleetdash/internal/middleware"
	"github.com/ukydev/fleetdash/internal/models"
	"github.com/ukydev/fleetdash/internal/realtime"
	"github.com/ukydev/fleetdash/internal/validation"
)

// SettingsHandler serves /api/settings.
type SettingsHandler struct {
	store   *config.Store
	publish realtime.Publisher
}

// NewSettingsHandler creates a settings handler.
func NewSettingsHandler(store *config.Store, publisher realtime.Publisher) *SettingsHandler {
	if publisher == nil {
		publisher = realtime.Discard
	}
	return &SettingsHandler{store: store, publish: publisher}
}

// Get returns the settings. Callers outside the settings view only see the
// public map token.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	values := h.store.Snapshot()
	identity, _ := middleware.GetIdentityFromContext(r.Context())
	if !identity.Role.CanAccess(models.ViewSettings) {
		public := map[string]string{}
		if v, ok := values[config.KeyMapboxToken]; ok {
			public[config.KeyMapboxToken] = v
		}
		values = public
	}
	writeJSON(w, http.StatusOK, values)
}

// Update sets every key in the body. An empty value clears a key. Keys are
// applied in name order and the first invalid one stops the update.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var body map[string]string
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	keys := make([]string, 0, len(body))
	for k := range body {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		err := h.store.Set(r.Context(), k, body[k])
		switch {
		case err == nil:
		case errors.Is(err, config.ErrInvalidMapToken), errors.Is(err, config.ErrUnknownSetting):
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "Invalid settings", Fields: validation.Errors{k: err.Error()}})
			return
		default:
			log.WithError(err).WithField("key", k).Error("Failed to save setting")
			writeError(w, http.StatusInternalServerError, "Failed to save settings")
			return
		}
		h.publish.Publish(realtime.NewChange(realtime.TableSettings, realtime.OpUpdate, k))
	}
	writeJSON(w, http.StatusOK, h.store.Snapshot())
}
