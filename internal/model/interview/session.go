package interview

import "time"

// State tracks where a session is in the question/answer cycle.
type State string

const (
	StateAwaitingUtterance State = "awaiting_utterance"
	StateProcessing        State = "processing"
	StateClosed            State = "closed"
)

// Session captures one candidate's interview, keyed by the uploaded résumé file name.
type Session struct {
	Key          string     `json:"file_name"`
	PersonaID    string     `json:"personaId"`
	DocumentText string     `json:"-"`
	Transcript   Transcript `json:"-"`
	Turns        int        `json:"turns"`
	State        State      `json:"state"`
	VideoURL     string     `json:"videoUrl,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// Closed reports whether the session accepts no further utterances.
func (s Session) Closed() bool {
	return s.State == StateClosed
}

// Conversation is the client-facing view of a finished transcript.
type Conversation struct {
	ID       string  `json:"_id"`
	Messages []Entry `json:"messages"`
}
