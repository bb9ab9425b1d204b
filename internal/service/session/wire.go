package session

import (
	"context"
	"errors"
)

// Server-to-client event types.
const (
	EventSessionStart  = "session_start"
	EventAudio         = "audio"
	EventTranscription = "transcription"
	EventError         = "error"
)

// Client-to-server input types.
const (
	InputAudio      = "audio"
	InputEndSession = "end_session"
)

// Event is one server-to-client message. Field usage by type:
// session_start carries SessionID; audio carries Data (base64) and Text;
// transcription carries Role and Text; error carries Message.
type Event struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id,omitempty"`
	Data      string `json:"data,omitempty"`
	Text      string `json:"text,omitempty"`
	Role      string `json:"role,omitempty"`
	Message   string `json:"message,omitempty"`
}

// Input is one client-to-server message. Data is base64-encoded audio for
// type "audio" and empty for "end_session".
type Input struct {
	Type string `json:"type"`
	Data string `json:"data,omitempty"`
}

// ErrTransportClosed reports that the client channel is gone, cleanly or
// not. It is fatal to the session and triggers finalization.
var ErrTransportClosed = errors.New("transport closed")

// Transport is the bidirectional channel one session pushes events to and
// receives client input from. Receive blocks until the next inbound unit
// arrives, the channel closes (ErrTransportClosed), or ctx is done; units
// queue in arrival order and are never dropped. Implementations are used by
// a single session goroutine.
type Transport interface {
	Send(ctx context.Context, event Event) error
	Receive(ctx context.Context) (Input, error)
}
