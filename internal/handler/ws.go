package handler

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"srcds-admin/internal/logger"
	"srcds-admin/internal/restriction"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS for WebSocket is handled at the HTTP layer already.
		return true
	},
}

// Hub fans restriction events and admin notices out to connected
// frontend pages, so open review/lift screens update without polling.
// It implements restriction.Notifier.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*wsClient
}

type wsClient struct {
	conn *websocket.Conn
	send chan interface{}
}

func NewHub() *Hub {
	return &Hub{clients: map[string]*wsClient{}}
}

// ServeWS upgrades the connection and registers it with the hub
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warningf("WebSocket upgrade failed: %v", err)
		return
	}

	id := uuid.NewString()
	client := &wsClient{conn: conn, send: make(chan interface{}, 16)}

	h.mu.Lock()
	h.clients[id] = client
	h.mu.Unlock()

	logger.Debugf("WebSocket client %s connected", id)

	// Writer: forward queued messages to this connection
	go func() {
		for msg := range client.send {
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(msg); err != nil {
				break
			}
		}
		conn.Close()
	}()

	// Reader: we push only; reads just detect the close
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.remove(id)
	logger.Debugf("WebSocket client %s disconnected", id)
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[id]; ok {
		close(client.send)
		delete(h.clients, id)
	}
}

// Broadcast queues a message to every connected client. Clients with a
// full queue are dropped instead of blocking a mutation goroutine.
func (h *Hub) Broadcast(msg interface{}) {
	h.mu.RLock()
	var stale []string
	for id, client := range h.clients {
		select {
		case client.send <- msg:
		default:
			stale = append(stale, id)
		}
	}
	h.mu.RUnlock()

	for _, id := range stale {
		logger.Warningf("Dropping slow WebSocket client %s", id)
		h.remove(id)
	}
}

// BroadcastEvent pushes a completed mutation to open pages
func (h *Hub) BroadcastEvent(event restriction.Event) {
	h.Broadcast(event)
}

// Notify pushes a background outcome to the issuing admin's sessions.
// Sessions filter on admin_id client-side; the hub has no auth notion.
func (h *Hub) Notify(notice restriction.Notice) {
	h.Broadcast(map[string]interface{}{
		"action": "notice",
		"notice": notice,
	})
}
