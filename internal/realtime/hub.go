package realtime

import (
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const writeWait = 5 * time.Second

// wsConn wraps a websocket connection with a write mutex to serialize writes.
type wsConn struct {
	conn   *websocket.Conn
	mu     sync.Mutex
	tables map[string]bool
}

func (c *wsConn) wants(table string) bool {
	return len(c.tables) == 0 || c.tables[table]
}

func (c *wsConn) send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

type listener struct {
	tables map[string]bool
	fn     func(Change)
}

// Hub delivers changes to websocket connections subscribed to the changed
// table and to in-process listeners.
type Hub struct {
	mu        sync.RWMutex
	conns     map[*wsConn]struct{}
	listeners map[int]listener
	nextID    int
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[*wsConn]struct{}), listeners: make(map[int]listener)}
}

// Message is the envelope written to websocket clients.
type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// ParseTables splits a comma separated table list. An empty list subscribes
// to every table.
func ParseTables(raw string) []string {
	var out []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func tableSet(tables []string) map[string]bool {
	set := make(map[string]bool, len(tables))
	for _, t := range tables {
		set[t] = true
	}
	return set
}

// Subscribe registers fn for changes of the given tables (all tables when
// none are given) and returns a function that removes it. fn runs on the
// publishing goroutine.
func (h *Hub) Subscribe(fn func(Change), tables ...string) func() {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.listeners[id] = listener{tables: tableSet(tables), fn: fn}
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.listeners, id)
		h.mu.Unlock()
	}
}

// Publish delivers c to every interested connection and listener.
func (h *Hub) Publish(c Change) {
	h.mu.RLock()
	conns := make([]*wsConn, 0, len(h.conns))
	for wc := range h.conns {
		if wc.wants(c.Table) {
			conns = append(conns, wc)
		}
	}
	fns := make([]func(Change), 0, len(h.listeners))
	for _, l := range h.listeners {
		if len(l.tables) == 0 || l.tables[c.Table] {
			fns = append(fns, l.fn)
		}
	}
	h.mu.RUnlock()

	msg := Message{Event: "change", Data: c}
	for _, wc := range conns {
		if err := wc.send(msg); err != nil {
			log.WithError(err).WithField("table", c.Table).Warn("ws: write failed, dropping connection")
			h.unregister(wc)
		}
	}
	for _, fn := range fns {
		fn(c)
	}
}

// Connections returns the number of attached websocket connections.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *Hub) register(conn *websocket.Conn, tables []string) *wsConn {
	wc := &wsConn{conn: conn, tables: tableSet(tables)}
	h.mu.Lock()
	h.conns[wc] = struct{}{}
	h.mu.Unlock()
	return wc
}

func (h *Hub) unregister(wc *wsConn) {
	h.mu.Lock()
	_, ok := h.conns[wc]
	delete(h.conns, wc)
	h.mu.Unlock()
	if ok {
		wc.conn.Close()
	}
}

// Attach registers conn for the given tables and blocks reading from it
// until the client goes away. Inbound messages are ignored.
func (h *Hub) Attach(conn *websocket.Conn, tables []string) {
	wc := h.register(conn, tables)
	defer h.unregister(wc)

	if err := wc.send(Message{Event: "subscribed", Data: map[string]any{"tables": tables}}); err != nil {
		return
	}
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
