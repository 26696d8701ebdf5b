package internal

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies who authored a chat turn
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// TurnStatus tracks whether a turn has settled
type TurnStatus string

const (
	TurnPending  TurnStatus = "pending"
	TurnComplete TurnStatus = "complete"
	TurnFailed   TurnStatus = "failed"
)

// ChatTurn represents one message of a conversation
type ChatTurn struct {
	ID        string     `json:"id" yaml:"id"`
	Role      Role       `json:"role" yaml:"role"`
	Text      string     `json:"text" yaml:"text"`
	Status    TurnStatus `json:"status" yaml:"status"`
	CreatedAt time.Time  `json:"created_at" yaml:"created_at"`
}

// NewTurn creates a turn with a fresh identity
func NewTurn(role Role, text string, status TurnStatus) ChatTurn {
	return ChatTurn{
		ID:        uuid.NewString(),
		Role:      role,
		Text:      text,
		Status:    status,
		CreatedAt: time.Now(),
	}
}

// ChatSession is an append-only conversation. At most one turn is pending.
type ChatSession struct {
	ID        string     `json:"id" yaml:"id"`
	StartedAt time.Time  `json:"started_at" yaml:"started_at"`
	Turns     []ChatTurn `json:"turns" yaml:"turns"`
}

// NewChatSession creates an empty session
func NewChatSession() *ChatSession {
	return &ChatSession{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
	}
}

// Append adds a turn to the end of the session
func (s *ChatSession) Append(turn ChatTurn) {
	s.Turns = append(s.Turns, turn)
}

// Pending returns the turn awaiting a reply, if any
func (s *ChatSession) Pending() (ChatTurn, bool) {
	for i := len(s.Turns) - 1; i >= 0; i-- {
		if s.Turns[i].Status == TurnPending {
			return s.Turns[i], true
		}
	}
	return ChatTurn{}, false
}

// Resolve settles the turn with the given id. It reports false when the
// turn does not exist.
func (s *ChatSession) Resolve(id string, status TurnStatus, text string) (ChatTurn, bool) {
	for i := range s.Turns {
		if s.Turns[i].ID == id {
			s.Turns[i].Status = status
			s.Turns[i].Text = text
			return s.Turns[i], true
		}
	}
	return ChatTurn{}, false
}

// Clone returns a deep copy safe to hand to other goroutines
func (s *ChatSession) Clone() *ChatSession {
	c := *s
	c.Turns = append([]ChatTurn(nil), s.Turns...)
	return &c
}
