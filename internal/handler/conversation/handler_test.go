package conversation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/voicerelay/backend/internal/model/conversation"
	"github.com/voicerelay/backend/internal/store"
)

func setupRouter(t *testing.T) (*chi.Mux, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	handler := New(st)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, st
}

func seedSession(t *testing.T, st *store.MemoryStore, id string) conversation.Session {
	t.Helper()
	session := conversation.Session{
		ID:        id,
		StartTime: time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
		Messages: []conversation.Message{
			{Role: conversation.RoleAssistant, Content: "welcome!", Type: conversation.TypeWelcome},
			{Role: conversation.RoleUser, Content: "hello"},
		},
	}
	if err := st.SaveSession(context.Background(), session); err != nil {
		t.Fatalf("SaveSession err: %v", err)
	}
	return session
}

func TestListConversations(t *testing.T) {
	r, st := setupRouter(t)
	seedSession(t, st, "sess-1")

	req := httptest.NewRequest(http.MethodGet, "/conversations", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var summaries []conversation.Summary
	if err := json.Unmarshal(resp.Body.Bytes(), &summaries); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if len(summaries) != 1 || summaries[0].SessionID != "sess-1" || summaries[0].MessageCount != 2 {
		t.Fatalf("unexpected summaries: %+v", summaries)
	}
}

func TestGetConversation(t *testing.T) {
	r, st := setupRouter(t)
	seedSession(t, st, "sess-1")

	req := httptest.NewRequest(http.MethodGet, "/conversation/sess-1", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var session conversation.Session
	if err := json.Unmarshal(resp.Body.Bytes(), &session); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if session.ID != "sess-1" || len(session.Messages) != 2 {
		t.Fatalf("unexpected session: %+v", session)
	}
}

func TestGetConversationNotFound(t *testing.T) {
	r, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/conversation/missing", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestDownloadConversation(t *testing.T) {
	r, st := setupRouter(t)
	seedSession(t, st, "sess-1")

	req := httptest.NewRequest(http.MethodGet, "/download/sess-1", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if got := resp.Header().Get("Content-Disposition"); got != `attachment; filename="conversation_sess-1.json"` {
		t.Fatalf("unexpected disposition %q", got)
	}

	var session conversation.Session
	if err := json.Unmarshal(resp.Body.Bytes(), &session); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if session.ID != "sess-1" {
		t.Fatalf("unexpected download body: %+v", session)
	}
}

func TestListAudioFiles(t *testing.T) {
	r, st := setupRouter(t)
	seedSession(t, st, "sess-1")
	if _, err := st.SaveAudio(context.Background(), "sess-1", conversation.RoleUser, []byte("pcm")); err != nil {
		t.Fatalf("SaveAudio err: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/audio/sess-1", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var listing []audioListing
	if err := json.Unmarshal(resp.Body.Bytes(), &listing); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if len(listing) != 1 {
		t.Fatalf("expected one entry, got %+v", listing)
	}
	if listing[0].URL != "/api/audio/sess-1/"+listing[0].Filename {
		t.Fatalf("unexpected url %q", listing[0].URL)
	}
}

func TestGetAudioFile(t *testing.T) {
	r, st := setupRouter(t)
	artifact, err := st.SaveAudio(context.Background(), "sess-1", conversation.RoleUser, []byte("pcm"))
	if err != nil {
		t.Fatalf("SaveAudio err: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/audio/sess-1/"+artifact.Name, nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if got := resp.Header().Get("Content-Type"); got != "audio/mpeg" {
		t.Fatalf("unexpected content type %q", got)
	}
	if resp.Body.String() != "pcm" {
		t.Fatalf("unexpected body %q", resp.Body.String())
	}
}

func TestGetAudioFileNotFound(t *testing.T) {
	r, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/audio/sess-1/missing.mp3", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}
