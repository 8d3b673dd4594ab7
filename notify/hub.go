// Package notify pushes per-user events to connected WebSocket clients and
// runs search-as-you-type sessions over the same connection.
package notify

import (
	"sync"
)

// Client is one WebSocket connection. Room is the signed-in user id, or
// empty for anonymous connections.
type Client struct {
	Send chan []byte
	Room string
}

type broadcastMsg struct {
	Room string
	Data []byte
}

type directMsg struct {
	Client *Client
	Data   []byte
}

// Hub owns every client's Send channel. Only Run closes them.
type Hub struct {
	rooms      map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan broadcastMsg
	direct     chan directMsg
	quit       chan struct{}
	done       chan struct{}
	stopOnce   sync.Once
	mu         sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan broadcastMsg, 64),
		direct:     make(chan directMsg, 64),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	defer close(h.done)
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			if h.rooms[c.Room] == nil {
				h.rooms[c.Room] = make(map[*Client]bool)
			}
			h.rooms[c.Room][c] = true
			h.mu.Unlock()

		case c := <-h.unregister:
			h.mu.Lock()
			h.drop(c)
			h.mu.Unlock()

		case m := <-h.broadcast:
			h.mu.Lock()
			for c := range h.rooms[m.Room] {
				h.deliver(c, m.Data)
			}
			h.mu.Unlock()

		case m := <-h.direct:
			h.mu.Lock()
			if h.rooms[m.Client.Room][m.Client] {
				h.deliver(m.Client, m.Data)
			}
			h.mu.Unlock()

		case <-h.quit:
			h.mu.Lock()
			for _, conns := range h.rooms {
				for c := range conns {
					h.drop(c)
				}
			}
			h.mu.Unlock()
			return
		}
	}
}

// Stop closes every client and ends Run.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.quit) })
	<-h.done
}

func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.quit:
		return false
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.quit:
	}
}

// Broadcast sends data to every client in room.
func (h *Hub) Broadcast(room string, data []byte) {
	select {
	case h.broadcast <- broadcastMsg{Room: room, Data: data}:
	case <-h.quit:
	}
}

// SendTo sends data to a single registered client.
func (h *Hub) SendTo(c *Client, data []byte) {
	select {
	case h.direct <- directMsg{Client: c, Data: data}:
	case <-h.quit:
	}
}

// Count reports how many clients are connected to room.
func (h *Hub) Count(room string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[room])
}

// deliver drops clients whose buffer is full. mu must be held.
func (h *Hub) deliver(c *Client, data []byte) {
	select {
	case c.Send <- data:
	default:
		h.drop(c)
	}
}

// drop closes c.Send once, however many times it is called. mu must be held.
func (h *Hub) drop(c *Client) {
	conns := h.rooms[c.Room]
	if !conns[c] {
		return
	}
	delete(conns, c)
	if len(conns) == 0 {
		delete(h.rooms, c.Room)
	}
	close(c.Send)
}
