// Package feed broadcasts prediction summaries to websocket subscribers.
package feed

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	sendBuffer = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub fans messages out to every connected subscriber. A subscriber that
// falls behind is dropped rather than blocking the broadcaster.
type Hub struct {
	mu          sync.Mutex
	subscribers map[*subscriber]struct{}
	log         *zap.SugaredLogger
}

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

func NewHub(log *zap.SugaredLogger) *Hub {
	return &Hub{subscribers: make(map[*subscriber]struct{}), log: log}
}

// ProvideHub provides the process-wide hub.
func ProvideHub(log *zap.SugaredLogger) *Hub {
	return NewHub(log)
}

var Options = ProvideHub

// Broadcast sends v as JSON to every subscriber.
func (h *Hub) Broadcast(v any) {
	msg, err := json.Marshal(v)
	if err != nil {
		h.log.Errorw("Error encoding feed message", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subscribers {
		select {
		case s.send <- msg:
		default:
			h.log.Warn("Dropping slow feed subscriber")
			h.remove(s)
		}
	}
}

// Subscribers returns the number of connected subscribers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// Serve upgrades the request to a websocket and streams messages until the
// client goes away.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Errorw("Error upgrading connection to WebSocket", "error", err)
		return
	}

	s := &subscriber{conn: conn, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.subscribers[s] = struct{}{}
	h.mu.Unlock()
	h.log.Info("WebSocket client connected")

	go h.writeLoop(s)

	// Reads only detect the close; clients send nothing.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.mu.Lock()
	h.remove(s)
	h.mu.Unlock()
	h.log.Info("WebSocket client disconnected")
}

func (h *Hub) writeLoop(s *subscriber) {
	defer s.conn.Close()
	for msg := range s.send {
		s.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.log.Errorw("Error sending WebSocket message", "error", err)
			return
		}
	}
	s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
}

// remove must be called with mu held.
func (h *Hub) remove(s *subscriber) {
	if _, ok := h.subscribers[s]; !ok {
		return
	}
	delete(h.subscribers, s)
	close(s.send)
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subscribers {
		h.remove(s)
	}
}
