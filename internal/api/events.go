package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Event types pushed to watchers
const (
	EventSettingsSaved = "settings_saved"
	EventSaveFailed    = "save_failed"
	EventSettingsReset = "settings_reset"
	EventPing          = "ping"
)

// Event is a message on the /api/events stream
type Event struct {
	Type         string    `json:"type"`
	ID           string    `json:"id,omitempty"`
	UserName     string    `json:"user_name,omitempty"`
	SidekickName string    `json:"sidekick_name,omitempty"`
	Error        string    `json:"error,omitempty"`
	Time         time.Time `json:"time"`
}

// Hub fans events out to websocket subscribers
type Hub struct {
	upgrader     websocket.Upgrader
	pingInterval time.Duration

	mu      sync.Mutex
	clients map[*subscriber]struct{}
	closed  bool
}

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() { close(s.done) })
}

// NewHub creates a hub that pings subscribers every pingInterval
func NewHub(pingInterval time.Duration) *Hub {
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	return &Hub{
		// The setup page is served from the device itself
		upgrader:     websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024},
		pingInterval: pingInterval,
		clients:      make(map[*subscriber]struct{}),
	}
}

// Broadcast queues ev for every subscriber, dropping it for slow ones
func (h *Hub) Broadcast(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("Failed to marshal event: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for s := range h.clients {
		select {
		case s.send <- data:
		default:
			log.Println("WARN: event subscriber too slow, dropping event")
		}
	}
}

// Count returns the number of connected subscribers
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every subscriber and refuses new ones
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for s := range h.clients {
		s.close()
		delete(h.clients, s)
	}
}

// ServeHTTP upgrades the request and streams events until the peer leaves
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Event stream upgrade failed: %v", err)
		return
	}

	s := &subscriber{
		conn: conn,
		send: make(chan []byte, 16),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[s] = struct{}{}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, s)
		h.mu.Unlock()
		conn.Close()
	}()

	// Read loop only notices the peer going away
	go func() {
		defer s.close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("Event stream read error: %v", err)
				}
				return
			}
		}
	}()

	h.writeLoop(s)
}

// writeLoop handles outgoing events and pings
func (h *Hub) writeLoop(s *subscriber) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return

		case message := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("Event stream write error: %v", err)
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			data, _ := json.Marshal(Event{Type: EventPing, Time: time.Now()})
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Printf("Event stream ping error: %v", err)
				return
			}
		}
	}
}
