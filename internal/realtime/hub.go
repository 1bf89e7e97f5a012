package realtime

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/skladhub/sklad-backend/internal/model"
)

// conn is the slice of a websocket connection the hub needs. Satisfied by
// *websocket.Conn.
type conn interface {
	SetWriteDeadline(t time.Time) error
	WriteJSON(v interface{}) error
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Subscriber is one live realtime connection. Owned by the hub from
// Subscribe until Unsubscribe. The websocket transport allows a single
// writer at a time, so every write to the connection, event delivery and
// keepalive alike, goes through writeMu.
type Subscriber struct {
	conn      conn
	writeMu   sync.Mutex
	Principal string
	Since     time.Time
}

func (s *Subscriber) writeEvent(ev model.ChangeEvent, timeout time.Duration) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(timeout))
	return s.conn.WriteJSON(ev)
}

// Ping sends a transport keepalive. It takes the same write lock as event
// delivery, so a keepalive never interleaves with an in-flight publish.
func (s *Subscriber) Ping(timeout time.Duration) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(timeout))
	return s.conn.WriteMessage(websocket.PingMessage, nil)
}

// Hub fans ChangeEvents out to every registered subscriber. A single mutex
// guards the registry, so add/remove never interleaves with an in-progress
// publish iteration and two concurrent publishes reach subscribers in a
// consistent order.
type Hub struct {
	mu           sync.Mutex
	subscribers  map[*Subscriber]struct{}
	writeTimeout time.Duration
}

func NewHub(writeTimeout time.Duration) *Hub {
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}
	return &Hub{
		subscribers:  make(map[*Subscriber]struct{}),
		writeTimeout: writeTimeout,
	}
}

func (h *Hub) Subscribe(c conn, principal string) *Subscriber {
	sub := &Subscriber{conn: c, Principal: principal, Since: time.Now()}
	h.mu.Lock()
	h.subscribers[sub] = struct{}{}
	count := len(h.subscribers)
	h.mu.Unlock()
	log.WithFields(log.Fields{"principal": principal, "subscribers": count}).
		Debug("Realtime subscriber registered")
	return sub
}

// Unsubscribe removes the subscriber. Safe to call more than once; only the
// first call does anything.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	_, ok := h.subscribers[sub]
	if ok {
		delete(h.subscribers, sub)
	}
	count := len(h.subscribers)
	h.mu.Unlock()
	if ok {
		log.WithFields(log.Fields{"principal": sub.Principal, "subscribers": count}).
			Debug("Realtime subscriber removed")
	}
}

// Publish delivers the event to every subscriber registered at the time of
// the call. Delivery is best-effort, at-most-once: a subscriber whose write
// fails or exceeds the write timeout is closed and dropped without affecting
// the others. Publishing to zero subscribers is a no-op.
func (h *Hub) Publish(ev model.ChangeEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subscribers {
		if err := sub.writeEvent(ev, h.writeTimeout); err != nil {
			log.WithFields(log.Fields{"principal": sub.Principal, "err": err}).
				Warn("Dropping realtime subscriber after failed delivery")
			_ = sub.conn.Close()
			delete(h.subscribers, sub)
		}
	}
}

// Len reports the current number of subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}
