package models

import (
	"time"
)

// ChatMessage is one persisted course-chat row. ID is the authoritative
// sort and dedup key; sender name/image are snapshotted at send time.
type ChatMessage struct {
	ID          uint   `gorm:"primaryKey"`
	CourseID    string `gorm:"index;not null"`
	SenderID    uint   `gorm:"not null"`
	SenderName  string
	SenderImage string
	Message     string `gorm:"not null"`
	CreatedAt   time.Time
	IsRead      bool `gorm:"default:false"`
}
