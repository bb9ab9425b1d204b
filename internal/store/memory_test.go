package store

import (
	"context"
	"testing"
	"time"

	"github.com/voicerelay/backend/internal/model/conversation"
)

func TestMemoryStoreOverwriteSemantics(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	session := sampleSession("sess-1")
	if err := st.SaveSession(ctx, session); err != nil {
		t.Fatalf("SaveSession err: %v", err)
	}

	end := session.StartTime.Add(time.Minute)
	session.EndTime = &end
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

	summaries, err := st.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions err: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("expected one record, got %d", len(summaries))
	}
}

func TestMemoryStoreLoadReturnsCopy(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	if err := st.SaveSession(ctx, sampleSession("sess-1")); err != nil {
		t.Fatalf("SaveSession err: %v", err)
	}

	first, _ := st.LoadSession(ctx, "sess-1")
	first.Messages[0].Content = "tampered"

	second, _ := st.LoadSession(ctx, "sess-1")
	if second.Messages[0].Content != "welcome!" {
		t.Fatalf("stored record was mutated through a loaded copy: %+v", second.Messages[0])
	}
}

func TestMemoryStoreAudioRoundTrip(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	artifact, err := st.SaveAudio(ctx, "sess-1", conversation.RoleUser, []byte("pcm"))
	if err != nil {
		t.Fatalf("SaveAudio err: %v", err)
	}
	if artifact.Role != conversation.RoleUser || artifact.Size != 3 {
		t.Fatalf("unexpected artifact: %+v", artifact)
	}

	data, err := st.LoadAudio(ctx, "sess-1", artifact.Name)
	if err != nil {
		t.Fatalf("LoadAudio err: %v", err)
	}
	if string(data) != "pcm" {
		t.Fatalf("unexpected audio content %q", data)
	}

	if _, err := st.ListAudio(ctx, "other"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
