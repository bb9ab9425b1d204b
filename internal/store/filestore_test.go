package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/voicerelay/backend/internal/model/conversation"
)

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	base := t.TempDir()
	st, err := NewFileStore(filepath.Join(base, "conversations"), filepath.Join(base, "audio"))
	if err != nil {
		t.Fatalf("NewFileStore err: %v", err)
	}
	return st
}

func sampleSession(id string) conversation.Session {
	return conversation.Session{
		ID:        id,
		StartTime: time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
		Messages: []conversation.Message{
			{Role: conversation.RoleAssistant, Content: "welcome!", Type: conversation.TypeWelcome},
			{Role: conversation.RoleUser, Content: "hello"},
		},
	}
}

func TestFileStoreSaveLoadRoundTrip(t *testing.T) {
	st := newTestFileStore(t)
	ctx := context.Background()

	want := sampleSession("sess-1")
	if err := st.SaveSession(ctx, want); err != nil {
		t.Fatalf("SaveSession err: %v", err)
	}

	got, err := st.LoadSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("LoadSession err: %v", err)
	}
	if got.ID != want.ID || !got.StartTime.Equal(want.StartTime) {
		t.Fatalf("header mismatch: %+v", got)
	}
	if got.EndTime != nil {
		t.Fatalf("expected no end time, got %v", got.EndTime)
	}
	if len(got.Messages) != 2 || got.Messages[0] != want.Messages[0] || got.Messages[1] != want.Messages[1] {
		t.Fatalf("messages mismatch: %+v", got.Messages)
	}
}

func TestFileStoreLoadMissing(t *testing.T) {
	st := newTestFileStore(t)
	if _, err := st.LoadSession(context.Background(), "nope"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFileStoreSaveOverwritesAndLeavesNoTempFiles(t *testing.T) {
	st := newTestFileStore(t)
	ctx := context.Background()

	session := sampleSession("sess-1")
	if err := st.SaveSession(ctx, session); err != nil {
		t.Fatalf("SaveSession err: %v", err)
	}

	end := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	session.EndTime = &end
	session.Messages = append(session.Messages, conversation.Message{Role: conversation.RoleAssistant, Content: "bye"})
	if err := st.SaveSession(ctx, session); err != nil {
		t.Fatalf("second SaveSession err: %v", err)
	}

	got, err := st.LoadSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("LoadSession err: %v", err)
	}
	if got.EndTime == nil || !got.EndTime.Equal(end) {
		t.Fatalf("expected overwritten end time, got %v", got.EndTime)
	}
	if len(got.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(got.Messages))
	}

	entries, err := os.ReadDir(st.conversationDir)
	if err != nil {
		t.Fatalf("ReadDir err: %v", err)
	}
	if len(entries) != 1 {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		t.Fatalf("expected exactly one record file, got %v", names)
	}
}

func TestFileStorePersistedShape(t *testing.T) {
	st := newTestFileStore(t)
	ctx := context.Background()

	if err := st.SaveSession(ctx, sampleSession("sess-1")); err != nil {
		t.Fatalf("SaveSession err: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(st.conversationDir, "sess-1.json"))
	if err != nil {
		t.Fatalf("ReadFile err: %v", err)
	}
	body := string(raw)
	for _, want := range []string{
		`"session_id": "sess-1"`,
		`"start_time": "2026-03-14T09:26:53Z"`,
		`"role": "user"`,
		`"type": "welcome"`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("record missing %q:\n%s", want, body)
		}
	}
	if strings.Contains(body, "end_time") {
		t.Fatalf("open session must not carry end_time:\n%s", body)
	}
}

func TestFileStoreListSessions(t *testing.T) {
	st := newTestFileStore(t)
	ctx := context.Background()

	older := sampleSession("older")
	newer := sampleSession("newer")
	newer.StartTime = older.StartTime.Add(time.Hour)
	for _, s := range []conversation.Session{older, newer} {
		if err := st.SaveSession(ctx, s); err != nil {
			t.Fatalf("SaveSession err: %v", err)
		}
	}

	summaries, err := st.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions err: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(summaries))
	}
	if summaries[0].SessionID != "newer" || summaries[1].SessionID != "older" {
		t.Fatalf("expected newest first, got %+v", summaries)
	}
	if summaries[0].MessageCount != 2 {
		t.Fatalf("expected message count 2, got %d", summaries[0].MessageCount)
	}
}

func TestFileStoreAudioOrderAndContent(t *testing.T) {
	st := newTestFileStore(t)
	ctx := context.Background()

	roles := []string{conversation.RoleAssistant, conversation.RoleUser, conversation.RoleAssistant}
	for i, role := range roles {
		if _, err := st.SaveAudio(ctx, "sess-1", role, []byte{byte(i)}); err != nil {
			t.Fatalf("SaveAudio err: %v", err)
		}
	}

	artifacts, err := st.ListAudio(ctx, "sess-1")
	if err != nil {
		t.Fatalf("ListAudio err: %v", err)
	}
	if len(artifacts) != 3 {
		t.Fatalf("expected 3 artifacts, got %d", len(artifacts))
	}
	for i, artifact := range artifacts {
		if artifact.Role != roles[i] {
			t.Fatalf("artifact %d: expected role %s, got %s", i, roles[i], artifact.Role)
		}
		data, err := st.LoadAudio(ctx, "sess-1", artifact.Name)
		if err != nil {
			t.Fatalf("LoadAudio err: %v", err)
		}
		if len(data) != 1 || data[0] != byte(i) {
			t.Fatalf("artifact %d: wrong content %v", i, data)
		}
	}
}

func TestFileStoreAudioMissingSession(t *testing.T) {
	st := newTestFileStore(t)
	if _, err := st.ListAudio(context.Background(), "nope"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := st.LoadAudio(context.Background(), "nope", "x.mp3"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
