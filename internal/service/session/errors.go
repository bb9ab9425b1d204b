package session

import "fmt"

// FailureKind distinguishes where inside a turn a failure happened. The
// client only ever sees one generic error event; the kind is for server-side
// diagnostics.
type FailureKind string

const (
	// FailureDecode: the inbound audio payload was malformed.
	FailureDecode FailureKind = "decode"
	// FailureTranscription: the STT call errored (distinct from an empty result).
	FailureTranscription FailureKind = "transcription"
	// FailureGeneration: the LLM call errored.
	FailureGeneration FailureKind = "generation"
	// FailureSynthesis: the TTS call errored.
	FailureSynthesis FailureKind = "synthesis"
)

// TurnError wraps a gateway or decode failure with its taxonomy kind. Turn
// errors are caught at the turn boundary and never terminate the session.
type TurnError struct {
	Kind FailureKind
	Err  error
}

func (e *TurnError) Error() string {
	return fmt.Sprintf("%s failure: %v", e.Kind, e.Err)
}

func (e *TurnError) Unwrap() error { return e.Err }

func turnFailure(kind FailureKind, err error) *TurnError {
	return &TurnError{Kind: kind, Err: err}
}
