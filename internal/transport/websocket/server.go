package websocket

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	// clients authenticate with a bearer token, not cookies
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub fans notifications out to every open connection of a ledger user.
type Hub struct {
	connections map[string]map[*Connection]bool

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *Message
	done       chan struct{}

	logger *slog.Logger
	mu     sync.RWMutex
}

type Connection struct {
	ws   *websocket.Conn
	user string
	send chan *Message
	hub  *Hub
}

type Message struct {
	User    string `json:"user,omitempty"`
	Type    string `json:"type"`
	Channel string `json:"channel,omitempty"`
	Data    any    `json:"data"`
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		connections: make(map[string]map[*Connection]bool),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		broadcast:   make(chan *Message, 256),
		done:        make(chan struct{}),
		logger:      logger.With("component", "ws_hub"),
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.RLock()
			var conns []*Connection
			for _, m := range h.connections {
				for c := range m {
					conns = append(conns, c)
				}
			}
			h.mu.RUnlock()

			// closing the sockets makes both pumps exit
			for _, c := range conns {
				_ = c.ws.Close()
			}
			return

		case conn := <-h.register:
			h.mu.Lock()
			if h.connections[conn.user] == nil {
				h.connections[conn.user] = make(map[*Connection]bool)
			}
			h.connections[conn.user][conn] = true
			h.mu.Unlock()

		case conn := <-h.unregister:
			h.mu.Lock()
			h.remove(conn)
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			for conn := range h.connections[message.User] {
				select {
				case conn.send <- message:
				default:
					h.logger.Warn("dropping slow websocket connection", "user", conn.user)
					h.remove(conn)
				}
			}
			h.mu.Unlock()
		}
	}
}

// remove must be called with mu held.
func (h *Hub) remove(conn *Connection) {
	connections, ok := h.connections[conn.user]
	if !ok {
		return
	}
	if _, exists := connections[conn]; !exists {
		return
	}
	delete(connections, conn)
	close(conn.send)
	if len(connections) == 0 {
		delete(h.connections, conn.user)
	}
}

// Broadcast queues message for user. It never blocks; a full queue drops the message.
func (h *Hub) Broadcast(user string, message *Message) {
	message.User = user
	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("hub broadcast channel is full, dropping message", "user", user, "type", message.Type)
	}
}

// ConnectionCount reports the open connections of user.
func (h *Hub) ConnectionCount(user string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections[user])
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request, user string) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "err", err)
		return
	}

	conn := &Connection{
		ws:   ws,
		user: user,
		send: make(chan *Message, 256),
		hub:  h,
	}

	select {
	case h.register <- conn:
	case <-h.done:
		_ = ws.Close()
		return
	}

	go conn.writePump()
	go conn.readPump()
}

const (
	writeWait = 10 * time.Second

	pongWait = 60 * time.Second

	pingPeriod = (pongWait * 9) / 10
)

func (c *Connection) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.ws.Close()
	}()

	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("websocket read error", "user", c.user, "err", err)
			}
			return
		}
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.ws.WriteJSON(message); err != nil {
				c.hub.logger.Warn("websocket write error", "user", c.user, "err", err)
				return
			}

		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
