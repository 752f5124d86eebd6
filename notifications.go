package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

// The push channel: a websocket hub that tells connected clients a player
// record changed so they can refetch the leaderboard. Delivery is
// best-effort; clients that miss events fall back to polling.

// PlayerUpdatedEvent is the only message type the hub emits.
type PlayerUpdatedEvent struct {
	Type     string `json:"type"`
	PlayerID string `json:"playerId"`
	Reason   string `json:"reason"`
}

type hubClient struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub keeps the registry of connected clients and fans broadcast messages
// out to them.
type Hub struct {
	clients    map[*hubClient]bool
	broadcast  chan []byte
	register   chan *hubClient
	unregister chan *hubClient
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*hubClient]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *hubClient),
		unregister: make(chan *hubClient),
	}
}

// Run is the hub event loop; it exits when ctx is done.
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			return ctx.Err()

		case client := <-h.register:
			h.clients[client] = true

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow consumer; drop the connection rather than
					// block the hub.
					close(client.send)
					delete(h.clients, client)
				}
			}
		}
	}
}

// NotifyPlayerUpdated queues a player_updated event. Never blocks: when the
// broadcast buffer is full the event is dropped, which is fine because the
// channel is only a refetch hint.
func (h *Hub) NotifyPlayerUpdated(playerID, reason string) {
	if h == nil {
		return
	}
	payload, err := json.Marshal(PlayerUpdatedEvent{
		Type:     "player_updated",
		PlayerID: playerID,
		Reason:   reason,
	})
	if err != nil {
		return
	}
	select {
	case h.broadcast <- payload:
	default:
	}
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWs upgrades the request and attaches the connection to the hub.
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("ws upgrade failed:", err)
		return
	}

	client := &hubClient{conn: conn, send: make(chan []byte, 64)}
	h.register <- client

	go client.writePump()
	go client.readPump(h)
}

// readPump discards inbound frames; the channel is one-way. Its only job is
// detecting disconnects.
func (c *hubClient) readPump(h *Hub) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *hubClient) writePump() {
	defer c.conn.Close()
	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}
