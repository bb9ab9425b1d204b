package session

import (
	"context"
	"encoding/base64"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/voicerelay/backend/internal/model/conversation"
	"github.com/voicerelay/backend/internal/store"
)

// State is a session's lifecycle position. Transitions only move forward:
// Starting → Active → Ending → Terminated.
type State int32

const (
	StateStarting State = iota
	StateActive
	StateEnding
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateActive:
		return "active"
	case StateEnding:
		return "ending"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Transcriber converts one audio buffer to text. An empty string with a nil
// error means silence or noise: the turn is skipped without any client event.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// Responder produces the next assistant utterance from the full ordered turn
// history, ending with the newest user message.
type Responder interface {
	Reply(ctx context.Context, history []conversation.Message) (string, error)
}

// Synthesizer converts text to an encoded audio buffer.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Machine owns one session: its lifecycle, its transcript, and the turn
// protocol against the three gateways. All session state is mutated only by
// the goroutine running Run; the registry is the only structure shared
// across sessions.
type Machine struct {
	id        string
	store     store.Store
	stt       Transcriber
	llm       Responder
	tts       Synthesizer
	transport Transport

	state   atomic.Int32
	session conversation.Session

	finalMu sync.Mutex
}

// ID returns the session identifier.
func (m *Machine) ID() string { return m.id }

// State reports the current lifecycle state.
func (m *Machine) State() State { return State(m.state.Load()) }

func (m *Machine) setState(s State) { m.state.Store(int32(s)) }

// Run drives the session to completion: welcome sequence, then one turn per
// inbound audio unit in strict arrival order, then finalization. It returns
// after the client sends end_session, the transport closes, or ctx is done.
// Finalization runs exactly once per call and is itself idempotent.
func (m *Machine) Run(ctx context.Context) {
	m.start(ctx)
	m.setState(StateActive)

	for {
		input, err := m.transport.Receive(ctx)
		if err != nil {
			if !errors.Is(err, ErrTransportClosed) && !errors.Is(err, context.Canceled) {
				log.Printf("[session] transport error session=%s err=%v", m.id, err)
			}
			break
		}

		if done := m.handleInput(ctx, input); done {
			break
		}
	}

	// The durable flush must survive request-scoped cancellation.
	m.Finalize(context.WithoutCancel(ctx))
}

// start runs the STARTING phase: session_start event, welcome synthesis and
// artifact, first durable flush. A welcome synthesis failure is logged and
// non-fatal; the session still becomes active.
func (m *Machine) start(ctx context.Context) {
	m.push(ctx, Event{Type: EventSessionStart, SessionID: m.id})

	audio, err := m.tts.Synthesize(ctx, WelcomeMessage)
	if err != nil {
		log.Printf("[session] welcome synthesis failed session=%s err=%v", m.id, err)
	} else {
		if _, err := m.store.SaveAudio(ctx, m.id, conversation.RoleAssistant, audio); err != nil {
			log.Printf("[session] save welcome audio failed session=%s err=%v", m.id, err)
		}
		m.push(ctx, Event{
			Type: EventAudio,
			Data: base64.StdEncoding.EncodeToString(audio),
			Text: WelcomeMessage,
		})
	}

	if err := m.store.SaveSession(ctx, m.session); err != nil {
		log.Printf("[session] initial flush failed session=%s err=%v", m.id, err)
	}
}

// handleInput dispatches one inbound unit. It reports whether the session
// should end.
func (m *Machine) handleInput(ctx context.Context, input Input) bool {
	switch input.Type {
	case InputAudio:
		m.runTurn(ctx, input.Data)
		return false
	case InputEndSession:
		log.Printf("[session] end requested session=%s", m.id)
		return true
	default:
		m.push(ctx, Event{Type: EventError, Message: "unsupported message type: " + input.Type})
		return false
	}
}

// runTurn executes the turn protocol for one audio unit. Failures are caught
// here, logged with their taxonomy kind, and reported to the client as a
// single generic error event; they never terminate the session.
func (m *Machine) runTurn(ctx context.Context, payload string) {
	// Termination must not cancel a downstream call mid-flight; the turn
	// finishes on a detached context.
	turnCtx := context.WithoutCancel(ctx)

	if err := m.executeTurn(turnCtx, payload); err != nil {
		kind := FailureKind("internal")
		var turnErr *TurnError
		if errors.As(err, &turnErr) {
			kind = turnErr.Kind
		}
		log.Printf("[session] turn failed session=%s kind=%s err=%v", m.id, kind, err)
		m.push(turnCtx, Event{Type: EventError, Message: ProcessingErrorMessage})
	}
}

func (m *Machine) executeTurn(ctx context.Context, payload string) error {
	audio, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return turnFailure(FailureDecode, err)
	}

	text, err := m.stt.Transcribe(ctx, audio)
	if err != nil {
		return turnFailure(FailureTranscription, err)
	}
	if text == "" {
		// Silence or noise: no message, no event, no model turn.
		log.Printf("[session] empty transcription session=%s bytes=%d", m.id, len(audio))
		return nil
	}

	userMsg := conversation.Message{Role: conversation.RoleUser, Content: text}
	if _, err := m.store.SaveAudio(ctx, m.id, conversation.RoleUser, audio); err != nil {
		log.Printf("[session] save user audio failed session=%s err=%v", m.id, err)
	}
	m.push(ctx, Event{Type: EventTranscription, Role: conversation.RoleUser, Text: text})

	history := make([]conversation.Message, 0, len(m.session.Messages)+1)
	history = append(history, m.session.Messages...)
	history = append(history, userMsg)

	reply, err := m.llm.Reply(ctx, history)
	if err != nil {
		return turnFailure(FailureGeneration, err)
	}

	speech, err := m.tts.Synthesize(ctx, reply)
	if err != nil {
		return turnFailure(FailureSynthesis, err)
	}

	// Commit point: messages join the transcript only once the whole turn
	// succeeded, so a failed turn leaves the committed sequence untouched.
	m.session.Messages = append(m.session.Messages,
		userMsg,
		conversation.Message{Role: conversation.RoleAssistant, Content: reply},
	)

	if _, err := m.store.SaveAudio(ctx, m.id, conversation.RoleAssistant, speech); err != nil {
		log.Printf("[session] save assistant audio failed session=%s err=%v", m.id, err)
	}
	if err := m.store.SaveSession(ctx, m.session); err != nil {
		log.Printf("[session] flush failed session=%s err=%v", m.id, err)
	}

	m.push(ctx, Event{
		Type: EventAudio,
		Data: base64.StdEncoding.EncodeToString(speech),
		Text: reply,
	})
	return nil
}

// Finalize stamps the end time and flushes the durable record. Safe to call
// more than once: each call overwrites the record, the last end time wins.
func (m *Machine) Finalize(ctx context.Context) {
	m.finalMu.Lock()
	defer m.finalMu.Unlock()

	m.setState(StateEnding)
	now := time.Now().UTC()
	m.session.EndTime = &now

	if err := m.store.SaveSession(ctx, m.session); err != nil {
		log.Printf("[session] final flush failed session=%s err=%v", m.id, err)
	}

	m.setState(StateTerminated)
	log.Printf("[session] terminated session=%s messages=%d", m.id, len(m.session.Messages))
}

func (m *Machine) push(ctx context.Context, event Event) {
	if err := m.transport.Send(ctx, event); err != nil {
		log.Printf("[session] push %s failed session=%s err=%v", event.Type, m.id, err)
	}
}
