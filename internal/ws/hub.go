// Package ws pushes proactive persona messages to connected browsers.
// Clients subscribe to a persona id on connect; every message the scheduler
// appends on its own initiative is fanned out here so the UI never polls.
package ws

import (
	"net/http"
	"sync"
	"time"

	"ai-persona-chat/backend/internal/models"
	"ai-persona-chat/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4 * 1024
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in development
	},
	HandshakeTimeout: 10 * time.Second,
	ReadBufferSize:   1024,
	WriteBufferSize:  1024,
}

// Event is the envelope pushed to subscribed clients.
type Event struct {
	Type      string         `json:"type"`
	PersonaID string         `json:"persona_id"`
	Message   models.Message `json:"message"`
}

// Client is one browser connection subscribed to a single persona.
type Client struct {
	ID        string
	PersonaID string
	Conn      *websocket.Conn
	Send      chan Event
	Hub       *Hub
}

// Hub tracks subscriptions and fans out persona events.
type Hub struct {
	clients    map[*Client]bool
	events     chan Event
	register   chan *Client
	unregister chan *Client
	log        *logger.Logger
	mu         sync.Mutex
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		events:     make(chan Event, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		log:        log,
	}
}

// MessageAppended implements the scheduler's notifier. It never blocks the
// caller: events queue on a buffered channel and slow clients are dropped.
func (h *Hub) MessageAppended(personaID string, msg models.Message) {
	select {
	case h.events <- Event{Type: "message", PersonaID: personaID, Message: msg}:
	default:
		h.log.Warn("event queue full, dropping push", "persona_id", personaID)
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.log.Debug("client registered", "client_id", client.ID, "persona_id", client.PersonaID)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mu.Unlock()
			h.log.Debug("client unregistered", "client_id", client.ID)

		case event := <-h.events:
			h.mu.Lock()
			for client := range h.clients {
				if client.PersonaID != event.PersonaID {
					continue
				}
				select {
				case client.Send <- event:
				default:
					close(client.Send)
					delete(h.clients, client)
					h.log.Warn("client removed due to blocked channel", "client_id", client.ID)
				}
			}
			h.mu.Unlock()
		}
	}
}

// HandleConnection upgrades a request and subscribes it to the persona
// named in the persona_id query parameter.
func (h *Hub) HandleConnection(c *gin.Context) {
	personaID := c.Query("persona_id")
	if personaID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "persona_id query parameter is required"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.LogError(err, "websocket upgrade failed")
		return
	}

	client := &Client{
		ID:        uuid.New().String(),
		PersonaID: personaID,
		Conn:      conn,
		Send:      make(chan Event, 16),
		Hub:       h,
	}
	h.register <- client

	go client.writePump()
	go client.readPump()
}

// readPump drains the connection so close frames and pongs are processed.
// Clients talk to the server over HTTP; the socket is push-only.
func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.log.Debug("websocket read error", "client_id", c.ID, "error", err.Error())
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteJSON(event); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
