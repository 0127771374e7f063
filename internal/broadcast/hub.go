// Package broadcast delivers live attendance counts to connected clients.
// This file implements the websocket fan-out hub.
package broadcast

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// subKey scopes a subscription: clients only receive updates for their own
// tenant and church. Super admins subscribe with an empty church id and
// receive every church in the tenant.
type subKey struct {
	tenantID string
	churchID string
}

// client is one connected websocket with a small outbound buffer. A client
// that cannot keep up is disconnected rather than allowed to backpressure
// the hub. send is never closed; the read goroutine signals shutdown through
// done instead, so Deliver can never race a close.
type client struct {
	conn *websocket.Conn
	send chan AttendanceUpdate
	done chan struct{}
}

// Hub fans attendance updates out to websocket subscribers. It implements
// Sink, so it plugs directly under an Outbox. Safe for concurrent use.
type Hub struct {
	mu      sync.RWMutex
	clients map[subKey]map[*client]struct{}

	upgrader websocket.Upgrader
}

// NewHub constructs an empty Hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[subKey]map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Cross-origin policy is enforced by the CORS middleware.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Subscribe upgrades the HTTP request to a websocket and registers it for
// updates scoped to (tenantID, churchID). It blocks until the peer closes
// the connection or falls behind.
func (h *Hub) Subscribe(w http.ResponseWriter, r *http.Request, tenantID, churchID string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := &client{
		conn: conn,
		send: make(chan AttendanceUpdate, 16),
		done: make(chan struct{}),
	}
	key := subKey{tenantID: tenantID, churchID: churchID}

	h.mu.Lock()
	if h.clients[key] == nil {
		h.clients[key] = make(map[*client]struct{})
	}
	h.clients[key][c] = struct{}{}
	h.mu.Unlock()

	// Unregister under the hub lock before the channel can be abandoned;
	// Deliver holds the read lock while sending, so once the client is out
	// of the map no further send can target it.
	defer func() {
		h.mu.Lock()
		delete(h.clients[key], c)
		if len(h.clients[key]) == 0 {
			delete(h.clients, key)
		}
		h.mu.Unlock()
		_ = conn.Close()
	}()

	// Discard inbound frames; the attendance feed is one-way. The read loop
	// also surfaces the peer's close frame.
	go func() {
		defer close(c.done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case u := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(u); err != nil {
				return err
			}
		case <-c.done:
			return nil
		}
	}
}

// Deliver implements Sink: it routes the update to church-scoped
// subscribers and to tenant-wide (empty church) subscribers. Slow clients
// have the update dropped rather than blocking the delivery goroutine.
func (h *Hub) Deliver(update AttendanceUpdate) {
	keys := []subKey{
		{tenantID: update.TenantID, churchID: update.ChurchID},
		{tenantID: update.TenantID, churchID: ""},
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, key := range keys {
		for c := range h.clients[key] {
			select {
			case c.send <- update:
			default:
				log.Debug().
					Str("service_id", update.ServiceID).
					Msg("slow attendance subscriber, update dropped")
			}
		}
	}
}

// Subscribers returns the current connection count (diagnostics and tests).
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}
