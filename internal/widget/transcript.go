package widget

import (
	"errors"
	"time"
)

// ErrStreamActive is returned by Begin while another message is streaming.
var ErrStreamActive = errors.New("widget: a message is already streaming")

// DisplayMessage is one bubble in the chat window.
type DisplayMessage struct {
	ID            int64     `json:"id"`
	Text          string    `json:"text"`
	FromAssistant bool      `json:"from_assistant"`
	CreatedAt     time.Time `json:"created_at"`
}

// Transcript is the ordered, append-only list of display messages. The only
// mutation allowed is through the single StreamTarget handed out by Begin.
type Transcript struct {
	msgs   []DisplayMessage
	nextID int64
	active *StreamTarget
	now    func() time.Time
}

// NewTranscript returns an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{nextID: 1, now: time.Now}
}

// Append adds a finished message.
func (t *Transcript) Append(text string, fromAssistant bool) DisplayMessage {
	m := DisplayMessage{
		ID:            t.nextID,
		Text:          text,
		FromAssistant: fromAssistant,
		CreatedAt:     t.now(),
	}
	t.nextID++
	t.msgs = append(t.msgs, m)
	return m
}

// Begin appends an empty assistant message and returns the handle that
// streams into it.
func (t *Transcript) Begin() (*StreamTarget, DisplayMessage, error) {
	if t.active != nil {
		return nil, DisplayMessage{}, ErrStreamActive
	}
	m := t.Append("", true)
	t.active = &StreamTarget{t: t, index: len(t.msgs) - 1}
	return t.active, m, nil
}

// Streaming reports whether a StreamTarget is open.
func (t *Transcript) Streaming() bool { return t.active != nil }

// Messages returns a copy of all messages.
func (t *Transcript) Messages() []DisplayMessage {
	out := make([]DisplayMessage, len(t.msgs))
	copy(out, t.msgs)
	return out
}

// Len returns the number of messages.
func (t *Transcript) Len() int { return len(t.msgs) }

// StreamTarget is the in-flight assistant message.
type StreamTarget struct {
	t      *Transcript
	index  int
	closed bool
}

// Set replaces the in-flight text. It returns false once the target is closed.
func (s *StreamTarget) Set(text string) (DisplayMessage, bool) {
	if s.closed {
		return DisplayMessage{}, false
	}
	s.t.msgs[s.index].Text = text
	return s.t.msgs[s.index], true
}

// Text returns the current in-flight text.
func (s *StreamTarget) Text() string { return s.t.msgs[s.index].Text }

// Close finalizes the message. Closing twice is a no-op.
func (s *StreamTarget) Close() {
	if s.closed {
		return
	}
	s.closed = true
	if s.t.active == s {
		s.t.active = nil
	}
}
