// Package session holds per-conversation state: turn history, per-query
// counters and the most recent assistant response. A session is the only
// mutable entity in the system; the record snapshot and suggested topics are
// read-only for its whole lifetime.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Greeting seeds every new and every reset conversation.
const Greeting = "Hello there! Please enter your query to continue."

// DefaultContextTurns is how many trailing turns are carried to the composer.
const DefaultContextTurns = 5

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Session is an ordered sequence of turns plus bookkeeping. Exactly one query
// is in flight per session at a time; handlers serialise on Lock/Unlock since
// the HTTP surface itself is concurrent.
type Session struct {
	ID           string         `json:"id"`
	Messages     []Message      `json:"messages"`
	QueryCounter map[string]int `json:"query_counter"`
	LastResponse string         `json:"last_response"`

	mu sync.Mutex
}

// New returns a session seeded with the assistant greeting.
func New(id string) *Session {
	return &Session{
		ID:           id,
		Messages:     []Message{{Role: RoleAssistant, Content: Greeting}},
		QueryCounter: map[string]int{},
	}
}

func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// AppendUser records a user turn and bumps its occurrence counter.
func (s *Session) AppendUser(content string) {
	s.Messages = append(s.Messages, Message{Role: RoleUser, Content: content})
	if s.QueryCounter == nil {
		s.QueryCounter = map[string]int{}
	}
	s.QueryCounter[content]++
}

// AppendAssistant records an assistant turn and remembers it as the most
// recent response.
func (s *Session) AppendAssistant(content string) {
	s.Messages = append(s.Messages, Message{Role: RoleAssistant, Content: content})
	s.LastResponse = content
}

// Reset truncates history back to the single seeded greeting and zeroes the
// counters, regardless of prior history length.
func (s *Session) Reset() {
	s.Messages = []Message{{Role: RoleAssistant, Content: Greeting}}
	s.QueryCounter = map[string]int{}
	s.LastResponse = ""
}

// Context returns the last n turns for prompt composition.
func (s *Session) Context(n int) []Message {
	if n <= 0 {
		n = DefaultContextTurns
	}
	if len(s.Messages) <= n {
		return append([]Message(nil), s.Messages...)
	}
	return append([]Message(nil), s.Messages[len(s.Messages)-n:]...)
}

// LastUserTurn returns the content of the most recent user turn, or "".
func (s *Session) LastUserTurn() string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleUser {
			return s.Messages[i].Content
		}
	}
	return ""
}

// FAQHint returns the turn three positions before the latest one. When a
// suggested question was clicked, that is where its label sits by the time a
// ticket is logged; it feeds the classifier as a fallback hint.
func (s *Session) FAQHint() string {
	if len(s.Messages) < 4 {
		return ""
	}
	return s.Messages[len(s.Messages)-4].Content
}

// UserTurns returns the content of every user turn in order.
func (s *Session) UserTurns() []string {
	var out []string
	for _, m := range s.Messages {
		if m.Role == RoleUser {
			out = append(out, m.Content)
		}
	}
	return out
}

// Transcript renders the full turn history, one "role: content" line per turn.
func (s *Session) Transcript() string {
	var b strings.Builder
	for i, m := range s.Messages {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s: %s", m.Role, m.Content)
	}
	return b.String()
}

// Store manages session lifecycle. Ensure creates a session (seeded with the
// greeting) when id is empty or unknown, and refreshes the TTL otherwise.
// Save persists mutations; backends with shared in-process state may treat it
// as a TTL refresh.
type Store interface {
	Ensure(ctx context.Context, id string, ttl time.Duration) (*Session, error)
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, sess *Session, ttl time.Duration) error
}
