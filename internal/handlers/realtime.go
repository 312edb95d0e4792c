package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleetdash/internal/realtime"
)

// RealtimeHandler upgrades /api/realtime to a websocket subscribed to the
// tables named in ?tables=. No tables means every table.
type RealtimeHandler struct {
	hub      *realtime.Hub
	upgrader websocket.Upgrader
}

// NewRealtimeHandler creates a realtime handler on hub.
func NewRealtimeHandler(hub *realtime.Hub) *RealtimeHandler {
	return &RealtimeHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (h *RealtimeHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("ws: upgrade failed")
		return
	}
	h.hub.Attach(conn, realtime.ParseTables(r.URL.Query().Get("tables")))
}
