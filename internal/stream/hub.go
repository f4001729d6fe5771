package stream

import (
	"errors"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/example/saferides/internal/observability"
)

var ErrNoSession = errors.New("no ws session")

// Event is one live update pushed to a rider's connected client.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// session wraps a single rider connection; writes are serialized.
type session struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *session) send(e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(e)
}

// Hub holds one live connection per rider and pushes workflow and
// scheduled-ride changes as they happen.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

func NewHub() *Hub { return &Hub{sessions: make(map[string]*session)} }

// Add registers a rider connection, replacing any previous one.
func (h *Hub) Add(riderID string, conn *websocket.Conn) {
	h.mu.Lock()
	prev := h.sessions[riderID]
	h.sessions[riderID] = &session{conn: conn}
	h.mu.Unlock()
	if prev != nil {
		_ = prev.conn.Close()
	} else {
		observability.WSClients.Inc()
	}
}

// Remove drops the rider's session regardless of which connection backs it.
// Used on sign-out.
func (h *Hub) Remove(riderID string) {
	h.mu.Lock()
	s, ok := h.sessions[riderID]
	if ok {
		delete(h.sessions, riderID)
	}
	h.mu.Unlock()
	if ok {
		_ = s.conn.Close()
		observability.WSClients.Dec()
	}
}

// Detach drops the rider's session only while it still wraps conn. A read
// loop dying after its connection was replaced must not tear down the
// replacement.
func (h *Hub) Detach(riderID string, conn *websocket.Conn) {
	h.mu.Lock()
	s, ok := h.sessions[riderID]
	if ok && s.conn == conn {
		delete(h.sessions, riderID)
	} else {
		ok = false
	}
	h.mu.Unlock()
	if ok {
		_ = conn.Close()
		observability.WSClients.Dec()
	}
}

// Publish sends an event to the rider's session if one is connected.
func (h *Hub) Publish(riderID string, e Event) error {
	h.mu.RLock()
	s, ok := h.sessions[riderID]
	h.mu.RUnlock()
	if !ok {
		return ErrNoSession
	}
	if err := s.send(e); err != nil {
		h.Detach(riderID, s.conn)
		return err
	}
	return nil
}
