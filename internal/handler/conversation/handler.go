package conversation

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/voicerelay/backend/internal/store"
)

// Handler serves read-only views over the conversation store.
type Handler struct {
	store store.Store
}

// New creates the conversation read handler.
func New(st store.Store) *Handler {
	return &Handler{store: st}
}

// RegisterRoutes mounts the conversation routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/conversations", h.handleList)
	r.Get("/conversation/{sessionID}", h.handleGet)
	r.Get("/download/{sessionID}", h.handleDownload)
	r.Get("/audio/{sessionID}", h.handleListAudio)
	r.Get("/audio/{sessionID}/{filename}", h.handleGetAudio)
}

// handleList lists all persisted sessions.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.store.ListSessions(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list conversations")
		return
	}
	respondJSON(w, http.StatusOK, summaries)
}

// handleGet returns one full transcript.
func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.store.LoadSession(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "conversation not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to load conversation")
		return
	}
	respondJSON(w, http.StatusOK, session)
}

// handleDownload returns the transcript as a file attachment.
func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.store.LoadSession(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "conversation not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to load conversation")
		return
	}

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to encode conversation")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "conversation_"+sessionID+".json"))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

type audioListing struct {
	Filename string `json:"filename"`
	Role     string `json:"role,omitempty"`
	Size     int64  `json:"size"`
	URL      string `json:"url"`
}

// handleListAudio lists the session's audio artifacts in creation order.
func (h *Handler) handleListAudio(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	artifacts, err := h.store.ListAudio(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "no audio files found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to list audio files")
		return
	}

	listing := make([]audioListing, 0, len(artifacts))
	for _, artifact := range artifacts {
		listing = append(listing, audioListing{
			Filename: artifact.Name,
			Role:     artifact.Role,
			Size:     artifact.Size,
			URL:      "/api/audio/" + sessionID + "/" + artifact.Name,
		})
	}
	respondJSON(w, http.StatusOK, listing)
}

// handleGetAudio serves one artifact.
func (h *Handler) handleGetAudio(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	filename := chi.URLParam(r, "filename")

	data, err := h.store.LoadAudio(r.Context(), sessionID, filename)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "audio file not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to load audio file")
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
