package models

import (
	"time"
)

type Course struct {
	ID          uint   `gorm:"primaryKey"`
	CourseID    string `gorm:"uniqueIndex;not null"` // public identifier, used as the chat room key
	Name        string `gorm:"not null"`
	Level       string
	CreatorID   uint `gorm:"not null"`
	IsPublished bool `gorm:"default:false"`
	CreatedAt   time.Time

	Creator User `gorm:"foreignKey:CreatorID"`
}

type Enrollment struct {
	ID         uint   `gorm:"primaryKey"`
	CourseID   string `gorm:"not null;uniqueIndex:idx_course_student"`
	StudentID  uint   `gorm:"not null;uniqueIndex:idx_course_student"`
	EnrolledAt time.Time

	Student User `gorm:"foreignKey:StudentID"`
}
