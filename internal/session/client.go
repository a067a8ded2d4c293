package session

import (
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"documind/internal/models"
)

// Client wraps one collaboration WebSocket connection.
type Client struct {
	ID   string
	Conn *websocket.Conn
	mu   sync.Mutex
	hook func(models.Frame)
}

func NewClient(conn *websocket.Conn) *Client {
	return &Client{ID: uuid.New().String(), Conn: conn}
}

// SetSendHook replaces the default WebSocket sender (used in tests).
func (c *Client) SetSendHook(fn func(models.Frame)) {
	c.mu.Lock()
	c.hook = fn
	c.mu.Unlock()
}

func (c *Client) Send(frame models.Frame) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hook != nil {
		c.hook(frame)
		return
	}
	if c.Conn == nil {
		return
	}
	_ = c.Conn.WriteJSON(frame)
}

// SendError emits a scoped error event to this connection only.
func (c *Client) SendError(message string) {
	c.Send(models.Frame{Event: models.EventError, Data: models.ErrorPayload{Message: message}})
}
