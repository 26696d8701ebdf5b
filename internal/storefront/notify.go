package storefront

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/iksnae/genie/internal"
)

// Notifier shows at most one toast at a time. A new toast evicts the
// current one before it is displayed; the last writer wins.
type Notifier struct {
	surface  Surface
	schedule Scheduler
	visible  time.Duration
	fade     time.Duration

	mu      sync.Mutex
	current *internal.Notification
	timers  []Timer
}

// NewNotifier creates a notifier that keeps toasts visible for visible and
// removes them fade later
func NewNotifier(surface Surface, schedule Scheduler, visible, fade time.Duration) *Notifier {
	if schedule == nil {
		schedule = RealScheduler
	}
	return &Notifier{surface: surface, schedule: schedule, visible: visible, fade: fade}
}

// Success shows a success toast
func (n *Notifier) Success(message string) internal.Notification {
	return n.Notify(message, internal.NotifySuccess)
}

// Error shows an error toast
func (n *Notifier) Error(message string) internal.Notification {
	return n.Notify(message, internal.NotifyError)
}

// Notify replaces the visible toast with a new one
func (n *Notifier) Notify(message string, kind internal.NotificationKind) internal.Notification {
	note := internal.Notification{
		ID:        uuid.NewString(),
		Message:   message,
		Kind:      kind,
		CreatedAt: time.Now(),
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.current != nil {
		n.surface.RemoveNotification(n.current.ID)
	}
	for _, t := range n.timers {
		t.Stop()
	}
	n.current = &note
	n.surface.ShowNotification(note)
	internal.LogDebug("Notification %q (%s)", message, kind)

	id := note.ID
	n.timers = []Timer{n.schedule(n.visible, func() { n.dismiss(id) })}
	return note
}

// Current returns the toast on screen
func (n *Notifier) Current() (internal.Notification, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == nil {
		return internal.Notification{}, false
	}
	return *n.current, true
}

// dismiss fades the toast and schedules its removal. A superseded toast's
// timer finds a different current id and does nothing.
func (n *Notifier) dismiss(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == nil || n.current.ID != id {
		return
	}
	n.surface.FadeNotification(id)
	n.timers = append(n.timers, n.schedule(n.fade, func() { n.remove(id) }))
}

func (n *Notifier) remove(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == nil || n.current.ID != id {
		return
	}
	n.surface.RemoveNotification(id)
	n.current = nil
	n.timers = nil
}

// Close cancels pending dismissals
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, t := range n.timers {
		t.Stop()
	}
	n.timers = nil
}
