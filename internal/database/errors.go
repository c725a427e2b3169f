package database

import "errors"

var (
	ErrEmptyMessage   = errors.New("message text is empty")
	ErrCourseNotFound = errors.New("course not found")
	ErrUserNotFound   = errors.New("user not found")
)
