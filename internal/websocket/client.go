package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait = 10 * time.Second

	// A connection that misses pong for this long is treated as dead
	pongWait = 60 * time.Second

	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 64 * 1024
)

// EventHandler reacts to domain events read off a connection.
type EventHandler interface {
	HandleEvent(client *Client, event *Event) error
}

// Client is one live connection. The hub only ever touches Send; the
// underlying conn belongs to the pumps.
type Client struct {
	ID     uuid.UUID
	UserID uint
	Conn   *websocket.Conn
	Send   chan []byte
	Hub    *Hub

	mu       sync.RWMutex
	courseID string
}

func NewClient(hub *Hub, conn *websocket.Conn, userID uint) *Client {
	return &Client{
		ID:     uuid.New(),
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, 256),
		Hub:    hub,
	}
}

// CourseID returns the room the client currently views, or "".
func (c *Client) CourseID() string {
	return c.course()
}

func (c *Client) course() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.courseID
}

func (c *Client) setCourse(courseID string) {
	c.mu.Lock()
	c.courseID = courseID
	c.mu.Unlock()
}

// ReadPump reads events from the connection and passes them to the
// handler. Exiting the loop (error, close, missed pong) unregisters
// the client, which also removes it from its room.
func (c *Client) ReadPump(handler EventHandler) {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var event Event
		err := c.Conn.ReadJSON(&event)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket error: %v", err)
			}
			break
		}

		if handler == nil {
			continue
		}

		if err := handler.HandleEvent(c, &event); err != nil {
			log.Printf("event %s from client %s: %v", event.Type, c.ID, err)
			c.SendError(err.Error())
		}
	}
}

// WritePump drains the send queue onto the connection and keeps the
// transport alive with ping frames.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, payload); err != nil {
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

// SendEvent marshals and enqueues an event for this client only.
func (c *Client) SendEvent(eventType EventType, courseID string, data interface{}) error {
	event := Event{
		Type:      eventType,
		CourseID:  courseID,
		Timestamp: time.Now(),
	}

	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return err
		}
		event.Data = raw
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	select {
	case c.Send <- payload:
		return nil
	default:
		return ErrClientQueueFull
	}
}

func (c *Client) SendError(errorMsg string) {
	c.SendEvent(TypeError, "", map[string]string{"error": errorMsg})
}
