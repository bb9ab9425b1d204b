package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/voicerelay/backend/internal/model/conversation"
	"github.com/voicerelay/backend/internal/store"
)

// Registry is the process-wide table of live sessions. It is the only
// structure shared across session goroutines; creation, lookup, and removal
// of unrelated sessions never interfere. Gateway clients are shared
// read-only across every machine the registry creates.
type Registry struct {
	store store.Store
	stt   Transcriber
	llm   Responder
	tts   Synthesizer

	mu       sync.RWMutex
	sessions map[string]*Machine
}

// NewRegistry wires the shared collaborators every session depends on.
func NewRegistry(st store.Store, stt Transcriber, llm Responder, tts Synthesizer) *Registry {
	return &Registry{
		store:    st,
		stt:      stt,
		llm:      llm,
		tts:      tts,
		sessions: make(map[string]*Machine),
	}
}

// Create allocates a unique session id, builds the machine with the welcome
// message already appended, and inserts the live entry. The caller owns
// running the machine and removing the entry when it terminates.
func (r *Registry) Create(transport Transport) *Machine {
	m := &Machine{
		id:        uuid.NewString(),
		store:     r.store,
		stt:       r.stt,
		llm:       r.llm,
		tts:       r.tts,
		transport: transport,
	}
	m.session = conversation.Session{
		ID:        m.id,
		StartTime: time.Now().UTC(),
		Messages: []conversation.Message{{
			Role:    conversation.RoleAssistant,
			Content: WelcomeMessage,
			Type:    conversation.TypeWelcome,
		}},
	}
	m.setState(StateStarting)

	r.mu.Lock()
	r.sessions[m.id] = m
	r.mu.Unlock()
	return m
}

// Get returns the live machine for the id, if any.
func (r *Registry) Get(sessionID string) (*Machine, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.sessions[sessionID]
	return m, ok
}

// Remove drops the live entry. The durable record is untouched.
func (r *Registry) Remove(sessionID string) {
	r.mu.Lock()
	delete(r.sessions, sessionID)
	r.mu.Unlock()
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
