package web

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"football-trends/logger"
	"football-trends/services"
)

// ErrHubBusy is returned by Publish when the broadcast queue is full.
var ErrHubBusy = errors.New("websocket hub queue is full")

// WSMessage is the envelope pushed to dashboard clients.
type WSMessage struct {
	Type      string      `json:"type"`
	Kind      string      `json:"kind,omitempty"`
	FixtureID int         `json:"fixture_id,omitempty"`
	Teams     []int       `json:"teams,omitempty"`
	Timestamp int64       `json:"timestamp,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	mu      sync.RWMutex
	kinds   map[string]bool
	teamIDs map[int]bool
}

func newClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, 256),
		kinds:   make(map[string]bool),
		teamIDs: make(map[int]bool),
	}
}

type Hub struct {
	clients    map[*Client]bool
	broadcast  chan *WSMessage
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
	log        *logrus.Entry
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan *WSMessage, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        logger.With("ws"),
	}
}

// Run serves registrations and broadcasts until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			n := len(h.clients)
			h.mu.Unlock()
			h.log.WithField("clients", n).Debug("client registered")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			h.log.WithField("clients", n).Debug("client unregistered")

		case message := <-h.broadcast:
			h.deliver(message)
		}
	}
}

func (h *Hub) deliver(message *WSMessage) {
	data := marshalMessage(message)

	var slow []*Client
	h.mu.RLock()
	for client := range h.clients {
		if !client.shouldReceive(message) {
			continue
		}
		select {
		case client.send <- data:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	if len(slow) == 0 {
		return
	}
	h.mu.Lock()
	for _, client := range slow {
		if _, ok := h.clients[client]; ok {
			delete(h.clients, client)
			close(client.send)
		}
	}
	h.mu.Unlock()
	h.log.WithField("dropped", len(slow)).Warn("dropped slow clients")
}

// add registers c. It reports false once the hub has stopped.
func (h *Hub) add(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// remove unregisters c unless the hub has already stopped.
func (h *Hub) remove(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish implements services.PredictionSink.
func (h *Hub) Publish(ctx context.Context, ev services.PredictionEvent) error {
	msg := &WSMessage{
		Type:      "prediction",
		Kind:      ev.Kind,
		FixtureID: ev.FixtureID,
		Teams:     []int{ev.Home.ID, ev.Away.ID},
		Timestamp: ev.CreatedAt.Unix(),
		Data:      ev,
	}
	select {
	case h.broadcast <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrHubBusy
	}
}

func marshalMessage(message *WSMessage) []byte {
	data, err := json.Marshal(message)
	if err != nil {
		logger.Errorf("Failed to marshal websocket message: %v", err)
		return []byte("{}")
	}
	return data
}

// shouldReceive applies the client's kind and team filters. Empty filters
// accept everything.
func (c *Client) shouldReceive(message *WSMessage) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.kinds) > 0 && !c.kinds[message.Kind] {
		return false
	}
	if len(c.teamIDs) > 0 {
		for _, id := range message.Teams {
			if c.teamIDs[id] {
				return true
			}
		}
		return false
	}
	return true
}

func (c *Client) readPump() {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
	}()

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.WithError(err).Warn("read failed")
			}
			break
		}
		c.handleMessage(message)
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// clientMessage is what dashboards send to change their subscription.
type clientMessage struct {
	Type    string   `json:"type"`
	Kinds   []string `json:"kinds"`
	TeamIDs []int    `json:"team_ids"`
}

func (c *Client) handleMessage(message []byte) {
	var msg clientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		c.hub.log.WithError(err).Debug("ignoring malformed client message")
		return
	}

	c.mu.Lock()
	switch msg.Type {
	case "subscribe":
		c.kinds = make(map[string]bool, len(msg.Kinds))
		for _, k := range msg.Kinds {
			c.kinds[k] = true
		}
		c.teamIDs = make(map[int]bool, len(msg.TeamIDs))
		for _, id := range msg.TeamIDs {
			c.teamIDs[id] = true
		}
	case "unsubscribe":
		c.kinds = make(map[string]bool)
		c.teamIDs = make(map[int]bool)
	default:
		c.mu.Unlock()
		return
	}
	ack := &WSMessage{
		Type:      msg.Type + "d",
		Timestamp: time.Now().Unix(),
		Data: map[string]interface{}{
			"kinds":    msg.Kinds,
			"team_ids": msg.TeamIDs,
		},
	}
	c.mu.Unlock()

	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if c.hub.clients[c] {
		select {
		case c.send <- marshalMessage(ack):
		default:
		}
	}
}
