package conversation

import "time"

// Session captures one continuous voice interaction with a single client.
// The JSON shape is the durable record: one file per session id, replaced
// wholesale on every flush.
type Session struct {
	ID        string     `json:"session_id"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Messages  []Message  `json:"messages"`
}

// Summary is the listing view of a persisted session.
type Summary struct {
	SessionID    string     `json:"session_id"`
	StartTime    time.Time  `json:"start_time"`
	EndTime      *time.Time `json:"end_time,omitempty"`
	MessageCount int        `json:"message_count"`
}
