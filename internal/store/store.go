package store

import (
	"context"
	"errors"

	"github.com/voicerelay/backend/internal/model/conversation"
)

// ErrNotFound reports that no durable record exists for the requested id.
var ErrNotFound = errors.New("record not found")

// Artifact describes one persisted audio blob inside a session's namespace.
type Artifact struct {
	Name string `json:"filename"`
	Role string `json:"role"`
	Size int64  `json:"size"`
}

// Store is the conversation persistence contract the session core depends
// on. SaveSession atomically replaces any prior record for the same id; a
// concurrent LoadSession never observes a partially written record. Audio
// artifacts are write-once and listed in creation order.
type Store interface {
	SaveSession(ctx context.Context, session conversation.Session) error
	LoadSession(ctx context.Context, sessionID string) (conversation.Session, error)
	ListSessions(ctx context.Context) ([]conversation.Summary, error)
	SaveAudio(ctx context.Context, sessionID, role string, data []byte) (Artifact, error)
	ListAudio(ctx context.Context, sessionID string) ([]Artifact, error)
	LoadAudio(ctx context.Context, sessionID, name string) ([]byte, error)
}
