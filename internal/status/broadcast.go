package status

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/musicord/musicord/internal/track"
)

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func newClient(conn *websocket.Conn) *client {
	c := &client{
		conn: conn,
		send: make(chan []byte, 16),
	}
	go c.writePump()
	return c
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (c *client) close() {
	close(c.send)
}

// Broadcaster fans presence transitions out to connected observers. New
// clients get the current presence immediately; slow clients are dropped
// rather than allowed to back up the loop.
type Broadcaster struct {
	mu       sync.RWMutex
	clients  map[*client]bool
	snapshot func() track.Presence
}

func NewBroadcaster(snapshot func() track.Presence) *Broadcaster {
	return &Broadcaster{
		clients:  make(map[*client]bool),
		snapshot: snapshot,
	}
}

func (b *Broadcaster) AddClient(conn *websocket.Conn) *client {
	c := newClient(conn)

	b.mu.Lock()
	b.clients[c] = true
	b.mu.Unlock()

	data, _ := json.Marshal(Message{
		Type:    MsgPresence,
		Payload: PresencePayload{Presence: b.snapshot()},
	})
	select {
	case c.send <- data:
	default:
		// Client too slow, drop the snapshot
	}

	return c
}

func (b *Broadcaster) RemoveClient(c *client) {
	b.mu.Lock()
	if _, ok := b.clients[c]; ok {
		delete(b.clients, c)
		c.close()
	}
	b.mu.Unlock()
}

// PresenceChanged is the poll loop's change hook.
func (b *Broadcaster) PresenceChanged(p track.Presence) {
	b.broadcast(Message{
		Type:    MsgPresence,
		Payload: PresencePayload{Presence: p},
	})
}

func (b *Broadcaster) broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("broadcast marshal error: %v", err)
		return
	}

	b.mu.RLock()
	clients := make([]*client, 0, len(b.clients))
	for c := range b.clients {
		clients = append(clients, c)
	}
	b.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.send <- data:
		default:
			// Client can't keep up, disconnect it
			log.Printf("ws client too slow, disconnecting")
			b.RemoveClient(c)
		}
	}
}

func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}
