package websocket

import "errors"

var (
	ErrClientQueueFull = errors.New("client message queue is full")
	ErrInvalidEvent    = errors.New("invalid event format")
	ErrNotInCourse     = errors.New("not joined to this course")
	ErrAccessDenied    = errors.New("no access to this course")
)
