package handlers

import (
	"encoding/json"
	"log"
	"time"

	"github.com/learnloop/coursechat/internal/database"
	"github.com/learnloop/coursechat/internal/handlers/dto"
	"github.com/learnloop/coursechat/internal/websocket"
)

// MessageHandler reacts to events read off chat connections. Sends are
// two-phase: the message is durably appended first, and only a
// successful append is fanned out — a message that failed to persist is
// never seen by the room.
type MessageHandler struct {
	db  *database.Database
	hub *websocket.Hub
}

func NewMessageHandler(db *database.Database, hub *websocket.Hub) *MessageHandler {
	return &MessageHandler{
		db:  db,
		hub: hub,
	}
}

func (h *MessageHandler) HandleEvent(client *websocket.Client, event *websocket.Event) error {
	switch event.Type {
	case websocket.TypeJoinCourse:
		return h.handleJoin(client, event)

	case websocket.TypeLeaveCourse:
		h.hub.LeaveCourse(client, event.CourseID)
		return nil

	case websocket.TypeSendMessage:
		return h.handleSend(client, event)

	case websocket.TypeUserTyping, websocket.TypeUserStopTyping:
		return h.handleTyping(client, event)

	default:
		log.Printf("unknown event type: %s", event.Type)
		return nil
	}
}

// handleJoin authorizes the join once; after that the relay trusts the
// membership and does not re-check per message.
func (h *MessageHandler) handleJoin(client *websocket.Client, event *websocket.Event) error {
	if event.CourseID == "" {
		return websocket.ErrInvalidEvent
	}

	ok, err := h.db.CanAccessCourse(client.UserID, event.CourseID)
	if err != nil {
		return err
	}
	if !ok {
		return websocket.ErrAccessDenied
	}

	h.hub.JoinCourse(client, event.CourseID)
	return nil
}

func (h *MessageHandler) handleSend(client *websocket.Client, event *websocket.Event) error {
	if event.CourseID == "" || client.CourseID() != event.CourseID {
		return websocket.ErrNotInCourse
	}

	var payload dto.SendMessagePayload
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		return websocket.ErrInvalidEvent
	}

	// Phase one: durable append. Assigns the authoritative id and
	// timestamp. On failure the sender gets an error event and the
	// room sees nothing.
	message, err := h.db.AppendMessage(event.CourseID, client.UserID, payload.Message)
	if err != nil {
		return err
	}

	// Phase two: fan out the stored row to the room, origin included.
	response := dto.NewMessageResponse(message)
	out := websocket.Event{
		Type:      websocket.TypeNewMessage,
		CourseID:  event.CourseID,
		Timestamp: time.Now(),
	}

	data, err := json.Marshal(response)
	if err != nil {
		return err
	}
	out.Data = data

	raw, err := json.Marshal(out)
	if err != nil {
		return err
	}

	h.hub.Publish(event.CourseID, raw)

	go h.db.UpdateLastSeen(client.UserID)

	return nil
}

func (h *MessageHandler) handleTyping(client *websocket.Client, event *websocket.Event) error {
	if event.CourseID == "" || client.CourseID() != event.CourseID {
		return websocket.ErrNotInCourse
	}

	out := websocket.Event{
		Type:      event.Type,
		CourseID:  event.CourseID,
		Timestamp: time.Now(),
	}

	data, err := json.Marshal(dto.TypingPayload{UserID: client.UserID})
	if err != nil {
		return err
	}
	out.Data = data

	raw, err := json.Marshal(out)
	if err != nil {
		return err
	}

	h.hub.PublishExcept(event.CourseID, raw, client.ID)
	return nil
}
