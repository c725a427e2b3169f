// Package chatclient is the Go client for the course chat: one relay
// connection per client, join/leave as the viewed course changes,
// history from the HTTP API, live messages from the socket, merged and
// deduplicated by the store-assigned message id.
package chatclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
	StateClosed       State = "closed"
)

var (
	ErrNotConnected = errors.New("not connected")
	ErrClosed       = errors.New("client is closed")
)

// ChatMessage mirrors the persisted row as it appears on the wire.
type ChatMessage struct {
	ID          uint      `json:"id"`
	CourseID    string    `json:"courseId"`
	SenderID    uint      `json:"senderId"`
	SenderName  string    `json:"senderName"`
	SenderImage string    `json:"senderImage,omitempty"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"createdAt"`
	IsRead      bool      `json:"isRead"`
}

type event struct {
	Type      string          `json:"type"`
	CourseID  string          `json:"courseId,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Client is one browser-tab equivalent: a single relay connection and
// the ordered message list for the course currently viewed.
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client

	OnMessage func(ChatMessage)
	OnError   func(error)
	OnState   func(State)

	mu       sync.Mutex
	conn     *websocket.Conn
	state    State
	courseID string
	messages []ChatMessage
	closed   bool
	genID    int
}

func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpc:   &http.Client{Timeout: 10 * time.Second},
		state:   StateDisconnected,
	}
}

// State returns the connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Messages returns a copy of the merged, id-ascending message list.
func (c *Client) Messages() []ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ChatMessage, len(c.messages))
	copy(out, c.messages)
	return out
}

// Connect dials the relay and starts the read loop. One connection per
// client; calling Connect on a live client is a no-op.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.conn != nil {
		c.mu.Unlock()
		return nil
	}
	c.setStateLocked(StateConnecting)
	c.mu.Unlock()

	conn, err := c.dial(ctx)
	if err != nil {
		c.mu.Lock()
		c.setStateLocked(StateDisconnected)
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	c.conn = conn
	gen := c.genID
	c.setStateLocked(StateConnected)
	c.mu.Unlock()

	go c.readLoop(conn, gen)
	return nil
}

// Close tears the connection down for good. Terminal.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	c.setStateLocked(StateClosed)

	if c.conn != nil {
		if c.courseID != "" {
			c.writeEventLocked(event{Type: "leave-course", CourseID: c.courseID, Timestamp: time.Now()})
		}
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.conn.Close()
		c.conn = nil
	}
	return nil
}

// JoinCourse switches the viewed course: leaves the previous room on
// the same connection, joins the new one and replaces the local list
// with fetched history.
func (c *Client) JoinCourse(ctx context.Context, courseID string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.conn == nil {
		c.mu.Unlock()
		return ErrNotConnected
	}

	if c.courseID != "" && c.courseID != courseID {
		c.writeEventLocked(event{Type: "leave-course", CourseID: c.courseID, Timestamp: time.Now()})
	}

	if err := c.writeEventLocked(event{Type: "join-course", CourseID: courseID, Timestamp: time.Now()}); err != nil {
		c.mu.Unlock()
		return err
	}
	c.courseID = courseID
	c.messages = nil
	c.mu.Unlock()

	return c.refreshHistory(ctx, courseID)
}

// LeaveCourse leaves the current room without dropping the connection.
func (c *Client) LeaveCourse() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil || c.courseID == "" {
		return nil
	}

	err := c.writeEventLocked(event{Type: "leave-course", CourseID: c.courseID, Timestamp: time.Now()})
	c.courseID = ""
	c.messages = nil
	return err
}

// Send emits the message for durable append and fan-out. The rendered
// copy arrives as the echoed new-message event; a store failure comes
// back as an error event, and nothing is rendered.
func (c *Client) Send(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.conn == nil || c.courseID == "" {
		return ErrNotConnected
	}

	data, err := json.Marshal(map[string]string{"message": text})
	if err != nil {
		return err
	}

	return c.writeEventLocked(event{
		Type:      "send-message",
		CourseID:  c.courseID,
		Data:      data,
		Timestamp: time.Now(),
	})
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = "/ws"
	u.RawQuery = "token=" + url.QueryEscape(c.token)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", u.String(), err, resp.StatusCode)
		}
		return nil, err
	}
	return conn, nil
}

func (c *Client) writeEventLocked(ev event) error {
	return c.conn.WriteJSON(ev)
}

func (c *Client) setStateLocked(s State) {
	if c.state == s {
		return
	}
	c.state = s
	if c.OnState != nil {
		go c.OnState(s)
	}
}

func (c *Client) readLoop(conn *websocket.Conn, gen int) {
	for {
		var ev event
		if err := conn.ReadJSON(&ev); err != nil {
			c.handleDisconnect(conn, gen)
			return
		}

		switch ev.Type {
		case "new-message":
			var msg ChatMessage
			if err := json.Unmarshal(ev.Data, &msg); err != nil {
				continue
			}
			c.mu.Lock()
			if msg.CourseID == c.courseID {
				c.messages = mergeMessages(c.messages, msg)
			}
			c.mu.Unlock()
			if c.OnMessage != nil {
				c.OnMessage(msg)
			}

		case "error":
			var payload struct {
				Error string `json:"error"`
			}
			json.Unmarshal(ev.Data, &payload)
			if c.OnError != nil {
				c.OnError(errors.New(payload.Error))
			}
		}
	}
}

// handleDisconnect starts the reconnect cycle: exponential backoff,
// re-join the current course, refetch history to close the gap. The
// relay keeps no backlog, so recovery is always store-based.
func (c *Client) handleDisconnect(conn *websocket.Conn, gen int) {
	conn.Close()

	c.mu.Lock()
	if c.closed || c.genID != gen {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.genID++
	gen = c.genID
	c.setStateLocked(StateReconnecting)
	c.mu.Unlock()

	backoff := time.Second
	for {
		time.Sleep(backoff)

		c.mu.Lock()
		if c.closed || c.genID != gen {
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()

		conn, err := c.dial(context.Background())
		if err != nil {
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}

		c.mu.Lock()
		c.conn = conn
		courseID := c.courseID
		c.setStateLocked(StateConnected)
		if courseID != "" {
			c.writeEventLocked(event{Type: "join-course", CourseID: courseID, Timestamp: time.Now()})
		}
		c.mu.Unlock()

		go c.readLoop(conn, gen)

		if courseID != "" {
			c.refreshHistory(context.Background(), courseID)
		}
		return
	}
}

// refreshHistory fetches the recent page and merges it into the local
// list, deduplicating by id against live-received messages.
func (c *Client) refreshHistory(ctx context.Context, courseID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/chat/messages?courseId="+url.QueryEscape(courseID), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch history: status %d", resp.StatusCode)
	}

	var body struct {
		Messages []ChatMessage `json:"messages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return err
	}

	c.mu.Lock()
	if c.courseID == courseID {
		c.messages = mergeMessages(c.messages, body.Messages...)
	}
	c.mu.Unlock()
	return nil
}
