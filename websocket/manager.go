package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"learnerslogue/middleware"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second

	maxMessageSize = 512
	sendBuffer     = 256
	broadcastQueue = 1024
)

// Envelope is the frame sent to clients.
type Envelope struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// TokenParser validates the token a client connects with.
type TokenParser interface {
	ParseToken(token string) (*middleware.Claims, error)
}

// Manager fans feed events out to every connected client. A client that
// subscribed to specific event types only receives those.
type Manager struct {
	clients    map[*Client]bool
	broadcast  chan outbound
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
}

type outbound struct {
	eventType string
	data      []byte
}

type Client struct {
	conn    *websocket.Conn
	userID  string
	send    chan []byte
	manager *Manager

	mu     sync.Mutex
	topics map[string]bool
}

func NewManager() *Manager {
	return &Manager{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan outbound, broadcastQueue),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Start runs the hub until ctx is done, then disconnects every client.
func (m *Manager) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(m.done)
			m.mu.Lock()
			for client := range m.clients {
				delete(m.clients, client)
				close(client.send)
			}
			m.mu.Unlock()
			return

		case client := <-m.register:
			m.mu.Lock()
			m.clients[client] = true
			n := len(m.clients)
			m.mu.Unlock()
			log.Printf("✅ WebSocket client registered. Total clients: %d", n)

		case client := <-m.unregister:
			m.mu.Lock()
			if _, ok := m.clients[client]; ok {
				delete(m.clients, client)
				close(client.send)
			}
			n := len(m.clients)
			m.mu.Unlock()
			log.Printf("❌ WebSocket client unregistered. Total clients: %d", n)

		case msg := <-m.broadcast:
			m.mu.Lock()
			for client := range m.clients {
				if !client.wants(msg.eventType) {
					continue
				}
				select {
				case client.send <- msg.data:
				default:
					// slow consumer
					close(client.send)
					delete(m.clients, client)
				}
			}
			m.mu.Unlock()
		}
	}
}

// Broadcast queues an event for every interested client. It never blocks;
// events are dropped when the queue is full.
func (m *Manager) Broadcast(eventType string, payload interface{}) {
	data, err := json.Marshal(Envelope{Type: eventType, Payload: payload})
	if err != nil {
		log.Printf("❌ Error marshaling WebSocket message: %v", err)
		return
	}
	select {
	case m.broadcast <- outbound{eventType: eventType, data: data}:
	default:
		log.Printf("⚠️  WebSocket queue full, dropping %s", eventType)
	}
}

func (m *Manager) GetConnectedUsers() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// deliver sends directly to one client if it is still registered.
func (m *Manager) deliver(c *Client, env Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		log.Printf("❌ Error marshaling WebSocket message: %v", err)
		return
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.clients[c] {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func WebSocketHandler(manager *Manager, tokens TokenParser) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			log.Printf("❌ WebSocket connection rejected: no token provided")
			http.Error(w, "Token required", http.StatusUnauthorized)
			return
		}
		claims, err := tokens.ParseToken(token)
		if err != nil {
			log.Printf("❌ WebSocket connection rejected: %v", err)
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("❌ WebSocket upgrade failed: %v", err)
			return
		}

		client := &Client{
			conn:    conn,
			userID:  claims.ID,
			send:    make(chan []byte, sendBuffer),
			manager: manager,
			topics:  make(map[string]bool),
		}
		welcome, _ := json.Marshal(Envelope{Type: "connected", Payload: map[string]interface{}{
			"userId":  client.userID,
			"message": "WebSocket connected successfully",
			"time":    time.Now().Unix(),
		}})
		client.send <- welcome

		select {
		case manager.register <- client:
		case <-manager.done:
			conn.Close()
			return
		}

		go client.writePump()
		go client.readPump()
	}
}

type inbound struct {
	Type   string   `json:"type"`
	Events []string `json:"events"`
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.manager.unregister <- c:
		case <-c.manager.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("❌ WebSocket read error: %v", err)
			}
			return
		}

		var msg inbound
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("❌ WebSocket message unmarshal error: %v", err)
			continue
		}

		switch msg.Type {
		case "subscribe":
			c.subscribe(msg.Events)
			c.manager.deliver(c, Envelope{Type: "subscribed", Payload: map[string]interface{}{"events": msg.Events}})
		case "ping":
			c.manager.deliver(c, Envelope{Type: "pong", Payload: map[string]interface{}{"time": time.Now().Unix()}})
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) subscribe(events []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range events {
		c.topics[e] = true
	}
}

// wants reports whether the client receives eventType. Clients without
// subscriptions receive everything.
func (c *Client) wants(eventType string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.topics) == 0 || c.topics[eventType]
}
