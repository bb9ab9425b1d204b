package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/voicerelay/backend/internal/model/conversation"
)

// FileStore persists one JSON record per session plus raw audio blobs under
// a per-session directory. Records are written to a temp file and renamed
// into place so readers never see a partial write.
type FileStore struct {
	conversationDir string
	audioDir        string

	stampMu   sync.Mutex
	lastStamp int64
}

// nextStamp returns a strictly increasing nanosecond stamp so artifact names
// stay unique and chronologically ordered even under same-tick writes.
func (s *FileStore) nextStamp() int64 {
	s.stampMu.Lock()
	defer s.stampMu.Unlock()
	stamp := time.Now().UnixNano()
	if stamp <= s.lastStamp {
		stamp = s.lastStamp + 1
	}
	s.lastStamp = stamp
	return stamp
}

// NewFileStore creates both directories if needed.
func NewFileStore(conversationDir, audioDir string) (*FileStore, error) {
	for _, dir := range []string{conversationDir, audioDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return &FileStore{conversationDir: conversationDir, audioDir: audioDir}, nil
}

func (s *FileStore) sessionPath(sessionID string) string {
	return filepath.Join(s.conversationDir, filepath.Base(sessionID)+".json")
}

// SaveSession replaces the durable record for the session id.
func (s *FileStore) SaveSession(_ context.Context, session conversation.Session) error {
	if session.ID == "" {
		return fmt.Errorf("session id is empty")
	}

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session %s: %w", session.ID, err)
	}

	path := s.sessionPath(session.ID)
	tmp, err := os.CreateTemp(s.conversationDir, session.ID+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp record: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write record %s: %w", session.ID, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close record %s: %w", session.ID, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace record %s: %w", session.ID, err)
	}
	return nil
}

// LoadSession reads the durable record for the session id.
func (s *FileStore) LoadSession(_ context.Context, sessionID string) (conversation.Session, error) {
	data, err := os.ReadFile(s.sessionPath(sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			return conversation.Session{}, ErrNotFound
		}
		return conversation.Session{}, fmt.Errorf("read record %s: %w", sessionID, err)
	}

	var session conversation.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return conversation.Session{}, fmt.Errorf("decode record %s: %w", sessionID, err)
	}
	return session, nil
}

// ListSessions summarizes every persisted record, newest start first.
func (s *FileStore) ListSessions(ctx context.Context) ([]conversation.Summary, error) {
	entries, err := os.ReadDir(s.conversationDir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.conversationDir, err)
	}

	summaries := make([]conversation.Summary, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		session, err := s.LoadSession(ctx, strings.TrimSuffix(name, ".json"))
		if err != nil {
			// Skip unreadable records rather than failing the listing.
			continue
		}
		summaries = append(summaries, conversation.Summary{
			SessionID:    session.ID,
			StartTime:    session.StartTime,
			EndTime:      session.EndTime,
			MessageCount: len(session.Messages),
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].StartTime.After(summaries[j].StartTime)
	})
	return summaries, nil
}

// SaveAudio writes one audio blob under the session's directory. The name
// carries a nanosecond timestamp so lexical order equals creation order.
func (s *FileStore) SaveAudio(_ context.Context, sessionID, role string, data []byte) (Artifact, error) {
	dir := filepath.Join(s.audioDir, filepath.Base(sessionID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Artifact{}, fmt.Errorf("create audio dir for %s: %w", sessionID, err)
	}

	name := fmt.Sprintf("%d_%s.mp3", s.nextStamp(), role)
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return Artifact{}, fmt.Errorf("write audio %s/%s: %w", sessionID, name, err)
	}
	return Artifact{Name: name, Role: role, Size: int64(len(data))}, nil
}

// ListAudio returns the session's artifacts in creation order.
func (s *FileStore) ListAudio(_ context.Context, sessionID string) ([]Artifact, error) {
	dir := filepath.Join(s.audioDir, filepath.Base(sessionID))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read audio dir for %s: %w", sessionID, err)
	}

	artifacts := make([]Artifact, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".mp3") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		artifacts = append(artifacts, Artifact{
			Name: name,
			Role: roleFromArtifactName(name),
			Size: info.Size(),
		})
	}

	sort.Slice(artifacts, func(i, j int) bool { return artifacts[i].Name < artifacts[j].Name })
	return artifacts, nil
}

// LoadAudio reads one artifact by name.
func (s *FileStore) LoadAudio(_ context.Context, sessionID, name string) ([]byte, error) {
	path := filepath.Join(s.audioDir, filepath.Base(sessionID), filepath.Base(name))
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read audio %s/%s: %w", sessionID, name, err)
	}
	return data, nil
}

func roleFromArtifactName(name string) string {
	trimmed := strings.TrimSuffix(name, ".mp3")
	if idx := strings.IndexByte(trimmed, '_'); idx >= 0 {
		return trimmed[idx+1:]
	}
	return ""
}
