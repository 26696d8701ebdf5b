// Package storefront coordinates the cart pipeline, the Genie chat and the
// voice channel against a remote storefront and a live render surface.
//
// Operations may be called from any goroutine. Each controller applies its
// state change and the matching surface mutation under its own lock, then
// notifies, then refreshes the cart count.
package storefront

import (
	"context"
	"time"

	"github.com/iksnae/genie/internal"
	"github.com/iksnae/genie/internal/remote"
)

// Surface is the live document the controllers mutate
type Surface interface {
	SetCartCount(n int)
	RenderCart(items []internal.CartItem)
	AppendCartRow(item internal.CartItem)
	RemoveCartRow(id string) bool
	SetCartTotal(total internal.Amount)

	AppendTurn(turn internal.ChatTurn)
	UpdateTurn(turn internal.ChatTurn) bool
	ScrollToLatest()
	SetChatInput(text string)
	SetChatBusy(busy bool)

	SetListening(on bool)

	ShowNotification(n internal.Notification)
	FadeNotification(id string)
	RemoveNotification(id string) bool

	Navigate(path string)
}

// CartRemote is the part of the storefront service the cart needs
type CartRemote interface {
	AddToCart(ctx context.Context, req remote.AddRequest) (*internal.CartItem, error)
	RemoveFromCart(ctx context.Context, id string) error
	Buy(ctx context.Context) error
	ClearCart(ctx context.Context) error
	CartCount(ctx context.Context) (int, error)
	CartItems(ctx context.Context) ([]internal.CartItem, error)
}

// ChatRemote exchanges one message with the assistant
type ChatRemote interface {
	Chat(ctx context.Context, message string) (string, error)
}

// Recognizer captures one utterance. It blocks until exactly one terminal
// outcome: a transcript or an error.
type Recognizer interface {
	Recognize(ctx context.Context) (string, error)
}

// Synthesizer speaks text, blocking until the utterance completes or ctx
// is cancelled
type Synthesizer interface {
	Speak(ctx context.Context, text string) error
}

// Speaker is what the chat needs from the voice channel
type Speaker interface {
	CanSpeak() bool
	Speak(text string)
}

// TurnRecorder persists settled chat turns
type TurnRecorder interface {
	RecordTurn(ctx context.Context, sessionID string, turn internal.ChatTurn) error
}

// Timer is a pending scheduled call
type Timer interface {
	Stop() bool
}

// Scheduler runs f after d. time.AfterFunc in production.
type Scheduler func(d time.Duration, f func()) Timer

// RealScheduler schedules on the runtime timer
func RealScheduler(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
