package dto

import (
	"time"

	"github.com/learnloop/coursechat/internal/models"
)

// SendMessagePayload is the data of a send-message event. Sender
// identity comes from the authenticated connection, never the payload.
type SendMessagePayload struct {
	Message string `json:"message"`
}

// MessageResponse mirrors the persisted row; the id and createdAt are
// the store-assigned ones, so live echoes and history pages agree.
type MessageResponse struct {
	ID          uint      `json:"id"`
	CourseID    string    `json:"courseId"`
	SenderID    uint      `json:"senderId"`
	SenderName  string    `json:"senderName"`
	SenderImage string    `json:"senderImage,omitempty"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"createdAt"`
	IsRead      bool      `json:"isRead"`
}

func NewMessageResponse(m *models.ChatMessage) MessageResponse {
	return MessageResponse{
		ID:          m.ID,
		CourseID:    m.CourseID,
		SenderID:    m.SenderID,
		SenderName:  m.SenderName,
		SenderImage: m.SenderImage,
		Message:     m.Message,
		CreatedAt:   m.CreatedAt,
		IsRead:      m.IsRead,
	}
}

// TypingPayload carries the courtesy typing indicator.
type TypingPayload struct {
	UserID   uint   `json:"userId"`
	UserName string `json:"userName,omitempty"`
}
