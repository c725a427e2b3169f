// Package sessions holds short-lived assistant-chat state: the
// conversation transcript and any uploaded document text, keyed by
// session id. Every entry carries a sliding TTL so abandoned sessions
// expire instead of accumulating for the life of the process.
package sessions

import (
	"context"
	"errors"
	"time"
)

const DefaultTTL = time.Hour

var ErrSessionNotFound = errors.New("session not found")

// Turn is one exchange in an assistant conversation.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Store keeps per-session transcript and document state. Any read or
// write refreshes the session's TTL.
type Store interface {
	AppendTurn(ctx context.Context, sessionID string, turn Turn) error
	Transcript(ctx context.Context, sessionID string) ([]Turn, error)
	SetDocument(ctx context.Context, sessionID, text string) error
	Document(ctx context.Context, sessionID string) (string, error)
	Delete(ctx context.Context, sessionID string) error
}
