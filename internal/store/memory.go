package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/voicerelay/backend/internal/model/conversation"
)

// MemoryStore keeps sessions and artifacts in process memory. It honors the
// same overwrite and ordering semantics as FileStore and backs tests plus
// deployments that do not need durability.
type MemoryStore struct {
	mu        sync.RWMutex
	sessions  map[string]conversation.Session
	audio     map[string][]memoryArtifact
	lastStamp int64
}

type memoryArtifact struct {
	artifact Artifact
	data     []byte
}

// NewMemoryStore bootstraps an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]conversation.Session),
		audio:    make(map[string][]memoryArtifact),
	}
}

// SaveSession replaces the stored record for the session id.
func (s *MemoryStore) SaveSession(_ context.Context, session conversation.Session) error {
	if session.ID == "" {
		return fmt.Errorf("session id is empty")
	}

	copied := session
	copied.Messages = make([]conversation.Message, len(session.Messages))
	copy(copied.Messages, session.Messages)

	s.mu.Lock()
	s.sessions[session.ID] = copied
	s.mu.Unlock()
	return nil
}

// LoadSession returns the stored record for the session id.
func (s *MemoryStore) LoadSession(_ context.Context, sessionID string) (conversation.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return conversation.Session{}, ErrNotFound
	}

	copied := session
	copied.Messages = make([]conversation.Message, len(session.Messages))
	copy(copied.Messages, session.Messages)
	return copied, nil
}

// ListSessions summarizes every stored record.
func (s *MemoryStore) ListSessions(_ context.Context) ([]conversation.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]conversation.Summary, 0, len(s.sessions))
	for _, session := range s.sessions {
		summaries = append(summaries, conversation.Summary{
			SessionID:    session.ID,
			StartTime:    session.StartTime,
			EndTime:      session.EndTime,
			MessageCount: len(session.Messages),
		})
	}
	return summaries, nil
}

// SaveAudio appends one artifact to the session's namespace.
func (s *MemoryStore) SaveAudio(_ context.Context, sessionID, role string, data []byte) (Artifact, error) {
	copied := make([]byte, len(data))
	copy(copied, data)

	s.mu.Lock()
	defer s.mu.Unlock()

	stamp := time.Now().UnixNano()
	if stamp <= s.lastStamp {
		stamp = s.lastStamp + 1
	}
	s.lastStamp = stamp

	name := fmt.Sprintf("%d_%s.mp3", stamp, role)
	artifact := Artifact{Name: name, Role: role, Size: int64(len(data))}
	s.audio[sessionID] = append(s.audio[sessionID], memoryArtifact{artifact: artifact, data: copied})
	return artifact, nil
}

// ListAudio returns the session's artifacts in creation order.
func (s *MemoryStore) ListAudio(_ context.Context, sessionID string) ([]Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.audio[sessionID]
	if !ok {
		return nil, ErrNotFound
	}

	artifacts := make([]Artifact, 0, len(stored))
	for _, entry := range stored {
		artifacts = append(artifacts, entry.artifact)
	}
	return artifacts, nil
}

// LoadAudio reads one artifact by name.
func (s *MemoryStore) LoadAudio(_ context.Context, sessionID, name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, entry := range s.audio[sessionID] {
		if entry.artifact.Name == name {
			data := make([]byte, len(entry.data))
			copy(data, entry.data)
			return data, nil
		}
	}
	return nil, ErrNotFound
}
