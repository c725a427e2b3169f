package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/learnloop/coursechat/internal/database"
	"github.com/learnloop/coursechat/internal/handlers/dto"
	"github.com/learnloop/coursechat/internal/middleware"
	"github.com/learnloop/coursechat/internal/websocket"
)

const historyLimit = 100

// ChatHandler serves the durable side of the course chat: history
// reads and HTTP sends. HTTP sends share the relay's two-phase path,
// so a message posted here still reaches the live room.
type ChatHandler struct {
	db  *database.Database
	hub *websocket.Hub
}

func NewChatHandler(db *database.Database, hub *websocket.Hub) *ChatHandler {
	return &ChatHandler{db: db, hub: hub}
}

// GetMessages returns the last 100 messages of a course, oldest first.
func (h *ChatHandler) GetMessages(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uint)

	courseID := c.Query("courseId")
	if courseID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "courseId is required"})
		return
	}

	if !h.requireAccess(c, userID, courseID) {
		return
	}

	messages, err := h.db.RecentMessages(courseID, historyLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch messages"})
		return
	}

	result := make([]dto.MessageResponse, len(messages))
	for i := range messages {
		result[i] = dto.NewMessageResponse(&messages[i])
	}

	c.JSON(http.StatusOK, gin.H{"messages": result})
}

// SendMessage persists a message and broadcasts it to the live room.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uint)

	var req struct {
		CourseID string `json:"courseId" binding:"required"`
		Message  string `json:"message" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !h.requireAccess(c, userID, req.CourseID) {
		return
	}

	message, err := h.db.AppendMessage(req.CourseID, userID, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrEmptyMessage):
			c.JSON(http.StatusBadRequest, gin.H{"error": "message is empty"})
		case errors.Is(err, database.ErrCourseNotFound), errors.Is(err, database.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send message"})
		}
		return
	}

	h.broadcast(message.CourseID, dto.NewMessageResponse(message))

	c.JSON(http.StatusCreated, dto.NewMessageResponse(message))
}

// MarkRead flips the unread flag on the course's messages for this reader.
func (h *ChatHandler) MarkRead(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uint)

	var req struct {
		CourseID string `json:"courseId" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !h.requireAccess(c, userID, req.CourseID) {
		return
	}

	if err := h.db.MarkMessagesRead(req.CourseID, userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark messages read"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "messages marked read"})
}

// requireAccess enforces the chat access rule: owning teacher or
// enrolled student. Writes the error response itself.
func (h *ChatHandler) requireAccess(c *gin.Context, userID uint, courseID string) bool {
	ok, err := h.db.CanAccessCourse(userID, courseID)
	if err != nil {
		if errors.Is(err, database.ErrCourseNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "course not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check course access"})
		}
		return false
	}
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "you must be enrolled in this course to access chat"})
		return false
	}
	return true
}

func (h *ChatHandler) broadcast(courseID string, response dto.MessageResponse) {
	event := websocket.Event{
		Type:      websocket.TypeNewMessage,
		CourseID:  courseID,
		Timestamp: time.Now(),
	}

	data, err := json.Marshal(response)
	if err != nil {
		return
	}
	event.Data = data

	raw, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.hub.Publish(courseID, raw)
}
