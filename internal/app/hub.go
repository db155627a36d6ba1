package app

import (
	"LoraReport/internal/model"
	"LoraReport/internal/parser"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

const writeWait = 2 * time.Second

// Hub broadcasts every published record to its websocket subscribers.
type Hub struct {
	format parser.Formatter

	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

// NewHub returns a hub rendering records with f.
func NewHub(f parser.Formatter) *Hub {
	return &Hub{format: f, clients: map[*websocket.Conn]bool{}}
}

// ServeWS upgrades the request and registers the subscriber.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.L().Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()
	zap.L().Info("subscriber connected", zap.String("remote", conn.RemoteAddr().String()))

	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Publish sends rec to all subscribers. Subscribers that fail to accept it
// are disconnected.
func (h *Hub) Publish(rec model.Record) {
	line, err := h.format.Format(rec)
	if err != nil {
		zap.L().Warn("record not formatted", zap.Uint64("seq", rec.Seq), zap.Error(err))
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		_ = c.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
			delete(h.clients, c)
			_ = c.Close()
		}
	}
}

// Subscribers returns the number of connected subscribers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		_ = c.Close()
		delete(h.clients, c)
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	_, ok := h.clients[conn]
	delete(h.clients, conn)
	h.mu.Unlock()
	if ok {
		if err := conn.Close(); err != nil {
			zap.L().Debug("failed to close websocket", zap.Error(err))
		}
	}
}
