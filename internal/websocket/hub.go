package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType names the wire events exchanged with chat clients.
type EventType string

const (
	// Client -> relay
	TypeJoinCourse  EventType = "join-course"
	TypeLeaveCourse EventType = "leave-course"
	TypeSendMessage EventType = "send-message"

	// Relay -> room
	TypeNewMessage EventType = "new-message"
	TypeUserJoined EventType = "user-joined"
	TypeError      EventType = "error"

	// Courtesy presence events, not required for correctness
	TypeUserTyping     EventType = "user-typing"
	TypeUserStopTyping EventType = "user-stop-typing"
)

// Event is the envelope carried over the socket. Data is event-specific.
type Event struct {
	Type      EventType       `json:"type"`
	CourseID  string          `json:"courseId,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Hub is the room registry and relay. Rooms are keyed by the public
// course id; membership lives only in this process's memory and dies
// with the connection.
type Hub struct {
	clients map[uuid.UUID]*Client

	// Connections currently viewing each course
	rooms map[string]map[uuid.UUID]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[uuid.UUID]*Client),
		rooms:      make(map[string]map[uuid.UUID]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Run drains the registration channels until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case <-h.ctx.Done():
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)
		}
	}
}

func (h *Hub) Stop() {
	h.cancel()

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		close(client.Send)
		if client.Conn != nil {
			client.Conn.Close()
		}
	}
	h.clients = make(map[uuid.UUID]*Client)
	h.rooms = make(map[string]map[uuid.UUID]*Client)
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client

	log.Printf("client connected: %s (user %d)", client.ID, client.UserID)
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}

	if course := client.course(); course != "" {
		h.removeFromRoomUnsafe(client, course)
	}

	delete(h.clients, client.ID)
	close(client.Send)

	log.Printf("client disconnected: %s (user %d)", client.ID, client.UserID)
}

// JoinCourse adds the client to a course room. Idempotent; a client is
// in at most one room, so joining a new course leaves the old one.
func (h *Hub) JoinCourse(client *Client, courseID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	current := client.course()
	if current == courseID {
		return
	}
	if current != "" {
		h.removeFromRoomUnsafe(client, current)
	}

	if _, ok := h.rooms[courseID]; !ok {
		h.rooms[courseID] = make(map[uuid.UUID]*Client)
	}
	h.rooms[courseID][client.ID] = client
	client.setCourse(courseID)

	joined := Event{
		Type:      TypeUserJoined,
		CourseID:  courseID,
		Timestamp: time.Now(),
	}
	if data, err := json.Marshal(map[string]uint{"userId": client.UserID}); err == nil {
		joined.Data = data
		if payload, err := json.Marshal(joined); err == nil {
			h.deliverUnsafe(courseID, payload, client.ID)
		}
	}
}

// LeaveCourse removes the client from the room. No-op when the client
// is not a member.
func (h *Hub) LeaveCourse(client *Client, courseID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeFromRoomUnsafe(client, courseID)
}

func (h *Hub) removeFromRoomUnsafe(client *Client, courseID string) {
	room, ok := h.rooms[courseID]
	if !ok {
		return
	}
	if _, ok := room[client.ID]; !ok {
		return
	}

	delete(room, client.ID)
	client.setCourse("")

	if len(room) == 0 {
		delete(h.rooms, courseID)
	}
}

// Publish delivers the payload to every connection in the course room,
// including the origin. Best effort per recipient: a dead or slow
// connection is skipped, never reported to the caller.
func (h *Hub) Publish(courseID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	h.deliverUnsafe(courseID, payload, uuid.Nil)
}

// PublishExcept delivers to the room minus one connection; used for
// presence and typing events where the origin needs no echo.
func (h *Hub) PublishExcept(courseID string, payload []byte, excludeID uuid.UUID) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	h.deliverUnsafe(courseID, payload, excludeID)
}

func (h *Hub) deliverUnsafe(courseID string, payload []byte, excludeID uuid.UUID) {
	room, ok := h.rooms[courseID]
	if !ok {
		return
	}

	for _, client := range room {
		if client.ID == excludeID {
			continue
		}
		select {
		case client.Send <- payload:
		default:
			log.Printf("client %s send queue full, dropping event", client.ID)
		}
	}
}

// RoomSize returns the number of live connections viewing a course.
func (h *Hub) RoomSize(courseID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.rooms[courseID])
}

// RoomUsers returns the distinct user ids connected to a course room.
func (h *Hub) RoomUsers(courseID string) []uint {
	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := make(map[uint]bool)
	users := make([]uint, 0)
	for _, client := range h.rooms[courseID] {
		if !seen[client.UserID] {
			seen[client.UserID] = true
			users = append(users, client.UserID)
		}
	}
	return users
}
