package storefront

import (
	"context"
	"strings"
	"sync"

	"github.com/iksnae/genie/internal"
)

const (
	msgThinking   = "Genie thinking... 🧞‍♂️"
	msgNoReply    = "Hmm... no reply 🤔"
	msgChatFailed = "Magic lamp flickering... Try again ✨"
	msgChatBusy   = "Genie is still thinking... ⏳"
)

// Chat drives one conversation turn at a time. A send while a turn is
// pending is rejected rather than queued.
type Chat struct {
	remote   ChatRemote
	surface  Surface
	notifier *Notifier
	speaker  Speaker
	recorder TurnRecorder

	mu      sync.Mutex
	session *internal.ChatSession
}

// NewChat creates a chat controller with a fresh session
func NewChat(r ChatRemote, s Surface, n *Notifier) *Chat {
	return &Chat{
		remote:   r,
		surface:  s,
		notifier: n,
		session:  internal.NewChatSession(),
	}
}

// SetSpeaker makes replies spoken when the speaker can speak
func (c *Chat) SetSpeaker(sp Speaker) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.speaker = sp
}

// SetRecorder persists each settled turn
func (c *Chat) SetRecorder(r TurnRecorder) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recorder = r
}

// Session returns a copy of the conversation so far
func (c *Chat) Session() *internal.ChatSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Clone()
}

// Busy reports whether a turn is awaiting its reply
func (c *Chat) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.session.Pending()
	return ok
}

// Send runs one conversation turn and returns the settled assistant turn.
// The placeholder is always resolved, to complete or failed, before Send
// returns.
func (c *Chat) Send(ctx context.Context, text string) (internal.ChatTurn, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return internal.ChatTurn{}, &internal.ValidationError{Field: "message", Reason: "is empty"}
	}

	c.mu.Lock()
	if _, pending := c.session.Pending(); pending {
		c.mu.Unlock()
		c.notifier.Error(msgChatBusy)
		return internal.ChatTurn{}, internal.ErrTurnPending
	}
	user := internal.NewTurn(internal.RoleUser, text, internal.TurnComplete)
	placeholder := internal.NewTurn(internal.RoleAssistant, msgThinking, internal.TurnPending)
	c.session.Append(user)
	c.session.Append(placeholder)
	c.surface.AppendTurn(user)
	c.surface.SetChatInput("")
	c.surface.AppendTurn(placeholder)
	c.surface.SetChatBusy(true)
	c.surface.ScrollToLatest()
	sessionID, recorder := c.session.ID, c.recorder
	c.mu.Unlock()

	c.record(ctx, recorder, sessionID, user)

	reply, err := c.remote.Chat(ctx, text)

	status, shown := internal.TurnComplete, reply
	switch {
	case err != nil:
		internal.LogDebug("Chat exchange failed: %v", err)
		status, shown = internal.TurnFailed, msgChatFailed
	case strings.TrimSpace(reply) == "":
		status, shown = internal.TurnFailed, msgNoReply
	}

	c.mu.Lock()
	settled, _ := c.session.Resolve(placeholder.ID, status, shown)
	c.surface.UpdateTurn(settled)
	c.surface.SetChatBusy(false)
	c.surface.ScrollToLatest()
	speaker := c.speaker
	c.mu.Unlock()

	c.record(context.WithoutCancel(ctx), recorder, sessionID, settled)

	if status == internal.TurnComplete && speaker != nil && speaker.CanSpeak() {
		speaker.Speak(reply)
	}
	return settled, err
}

func (c *Chat) record(ctx context.Context, r TurnRecorder, sessionID string, turn internal.ChatTurn) {
	if r == nil {
		return
	}
	if err := r.RecordTurn(ctx, sessionID, turn); err != nil {
		internal.LogWarn("Failed to record turn %s: %v", turn.ID, err)
	}
}
