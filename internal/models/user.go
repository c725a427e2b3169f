package models

import (
	"time"
)

const (
	RoleStudent = "STUDENT"
	RoleTeacher = "TEACHER"
)

type User struct {
	ID           uint   `gorm:"primaryKey"`
	FullName     string `gorm:"not null"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	ProfileImage string
	Role         string `gorm:"not null;default:'STUDENT';check:role IN ('STUDENT','TEACHER')"`
	LastSeenAt   time.Time
	CreatedAt    time.Time
}
