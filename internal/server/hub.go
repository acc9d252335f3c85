package server

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/secretarylab/relayd/internal/domain"
)

// Event is one envelope on the /events feed.
type Event struct {
	Type    string    `json:"type"` // "incoming_message" or "reply_status"
	Sender  string    `json:"sender,omitempty"`
	Content string    `json:"content,omitempty"`
	RunID   string    `json:"run_id,omitempty"`
	Code    string    `json:"code,omitempty"`
	Time    time.Time `json:"time"`
}

// Hub broadcasts pipeline and automation events to every connected
// decision-maker. It is the process's domain.AgentLink: fire-and-forget, a
// slow or dead subscriber is dropped, never waited on.
type Hub struct {
	logger *zap.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

var _ domain.AgentLink = (*Hub)(nil)

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger:  logger,
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// IncomingMessage implements domain.AgentLink.
func (h *Hub) IncomingMessage(sender, content string) {
	h.broadcast(Event{
		Type:    "incoming_message",
		Sender:  sender,
		Content: content,
		Time:    time.Now().UTC(),
	})
}

// ReplyStatus implements domain.AgentLink.
func (h *Hub) ReplyStatus(runID string, code domain.AutomationStatus) {
	h.broadcast(Event{
		Type:  "reply_status",
		RunID: runID,
		Code:  string(code),
		Time:  time.Now().UTC(),
	})
}

// Serve registers the subscriber and blocks until it disconnects. Inbound
// frames are discarded; the feed is one-way.
func (h *Hub) Serve(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("event subscriber connected", zap.Int("subscribers", n))

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.drop(conn)
}

func (h *Hub) broadcast(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteJSON(ev); err != nil {
			h.logger.Debug("dropping event subscriber", zap.Error(err))
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	if _, ok := h.clients[conn]; ok {
		conn.Close()
		delete(h.clients, conn)
	}
	h.mu.Unlock()
	h.logger.Info("event subscriber disconnected")
}
