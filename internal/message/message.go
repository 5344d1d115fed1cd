// internal/message/message.go
//
// ecomm – one-shot flash messages.
//
// Context
//   Handlers queue short notices ("Item added to cart.") that the next
//   rendered page shows once.  Messages live in the session under one key as
//   a JSON list, so they survive the redirect that usually follows a POST.
//   The messages stage only checks that a session exists; reading is done by
//   the "messages" template context processor through Consume.
//
// Style
//   Two-space sentence spacing, Oxford comma, concise inline notes.
//
//------------------------------------------------------------------------------

package message

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/yanizio/ecomm/internal/session"
)

// sessionKey holds the pending list.
const sessionKey = "_messages"

// Level mirrors the usual Bootstrap alert classes.
type Level string

const (
	Debug   Level = "debug"
	Info    Level = "info"
	Success Level = "success"
	Warning Level = "warning"
	Error   Level = "error"
)

// ErrNoSession is returned when the session stage did not run.
var ErrNoSession = errors.New("message: no session on request")

// Message is one queued notice.
type Message struct {
	Level Level  `json:"level"`
	Text  string `json:"text"`
}

// Add appends a message to s.
func Add(s *session.Session, level Level, text string) error {
	if s == nil {
		return ErrNoSession
	}
	list := Peek(s)
	list = append(list, Message{Level: level, Text: text})
	b, err := json.Marshal(list)
	if err != nil {
		return err
	}
	s.Set(sessionKey, string(b))
	return nil
}

// Peek returns pending messages without removing them.  A corrupt list reads
// as empty.
func Peek(s *session.Session) []Message {
	if s == nil {
		return nil
	}
	raw, ok := s.Get(sessionKey)
	if !ok || raw == "" {
		return nil
	}
	var list []Message
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil
	}
	return list
}

// Consume returns pending messages and removes them from s.
func Consume(s *session.Session) []Message {
	list := Peek(s)
	if s != nil {
		s.Delete(sessionKey)
	}
	return list
}

//
// Request store
//

// Store binds the helpers to one request's session.
type Store struct{ s *session.Session }

// NewStore wraps s.
func NewStore(s *session.Session) *Store { return &Store{s: s} }

func (st *Store) Add(level Level, text string) error { return Add(st.s, level, text) }
func (st *Store) Consume() []Message                 { return Consume(st.s) }

type ctxKey struct{}

// WithStore returns ctx carrying st.
func WithStore(ctx context.Context, st *Store) context.Context {
	return context.WithValue(ctx, ctxKey{}, st)
}

// FromContext returns the store attached by the messages stage, or nil.
func FromContext(ctx context.Context) *Store {
	st, _ := ctx.Value(ctxKey{}).(*Store)
	return st
}
