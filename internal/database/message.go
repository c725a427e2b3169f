package database

import (
	"strings"
	"time"

	"github.com/learnloop/coursechat/internal/models"
)

// AppendMessage durably persists one chat message and returns the row
// with its assigned ID and CreatedAt. The sender's display profile is
// snapshotted at send time. Callers must not fan out before this
// returns nil.
func (d *Database) AppendMessage(courseID string, senderID uint, text string) (*models.ChatMessage, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}

	if _, err := d.GetCourse(courseID); err != nil {
		return nil, err
	}

	sender, err := d.GetUser(senderID)
	if err != nil {
		return nil, err
	}

	message := &models.ChatMessage{
		CourseID:    courseID,
		SenderID:    sender.ID,
		SenderName:  sender.FullName,
		SenderImage: sender.ProfileImage,
		Message:     text,
		CreatedAt:   time.Now(),
	}

	if err := d.db.Create(message).Error; err != nil {
		return nil, err
	}

	return message, nil
}

// RecentMessages returns at most limit newest messages for the course,
// ascending by creation time. Each call is a fresh snapshot.
func (d *Database) RecentMessages(courseID string, limit int) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage

	err := d.db.
		Where("course_id = ?", courseID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	// Oldest first
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

// MarkMessagesRead flips the unread flag on messages the reader did
// not send. Not load-bearing for delivery.
func (d *Database) MarkMessagesRead(courseID string, readerID uint) error {
	return d.db.Model(&models.ChatMessage{}).
		Where("course_id = ? AND sender_id != ? AND is_read = ?", courseID, readerID, false).
		Update("is_read", true).Error
}
