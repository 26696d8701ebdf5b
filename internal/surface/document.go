package surface

import (
	"sync"

	"github.com/iksnae/genie/internal"
)

// Row is the display projection of a cart item
type Row struct {
	ID     string
	Title  string
	Author string
	Price  string
}

// TurnView is the display projection of a chat turn
type TurnView struct {
	ID     string
	Role   internal.Role
	Text   string
	Status internal.TurnStatus
}

// Toast is a visible notification element
type Toast struct {
	ID      string
	Message string
	Kind    internal.NotificationKind
	Fading  bool
}

// View is a point-in-time copy of the document
type View struct {
	Version   uint64
	Count     int
	Rows      []Row
	Total     string
	Turns     []TurnView
	ChatInput string
	ChatBusy  bool
	Listening bool
	Toasts    []Toast
	Location  string
	Follow    bool // newest turn is scrolled into view
}

// Document is the live render surface. Every mutation happens under one
// lock and bumps the version; subscribers are signalled after the lock is
// released.
type Document struct {
	mu       sync.Mutex
	currency string
	view     View
	peak     int
	subs     map[int]chan struct{}
	nextSub  int
}

// NewDocument creates an empty document rendering prices with currency
func NewDocument(currency string) *Document {
	return &Document{
		currency: currency,
		view:     View{Total: "Total: " + internal.Amount(0).Format(currency)},
		subs:     make(map[int]chan struct{}),
	}
}

// Subscribe returns a channel signalled after every change. The channel
// holds at most one pending signal. Call cancel to stop receiving.
func (d *Document) Subscribe() (<-chan struct{}, func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.nextSub
	d.nextSub++
	ch := make(chan struct{}, 1)
	d.subs[id] = ch
	return ch, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.subs, id)
	}
}

// mutate applies fn under the lock and signals subscribers if it reports
// a change.
func (d *Document) mutate(fn func(v *View) bool) bool {
	d.mu.Lock()
	changed := fn(&d.view)
	if changed {
		d.view.Version++
		if n := len(d.view.Toasts); n > d.peak {
			d.peak = n
		}
	}
	subs := make([]chan struct{}, 0, len(d.subs))
	for _, ch := range d.subs {
		subs = append(subs, ch)
	}
	d.mu.Unlock()

	if changed {
		for _, ch := range subs {
			select {
			case ch <- struct{}{}:
			default:
			}
		}
	}
	return changed
}

// Snapshot returns a copy of the current view
func (d *Document) Snapshot() View {
	d.mu.Lock()
	defer d.mu.Unlock()
	v := d.view
	v.Rows = append([]Row(nil), d.view.Rows...)
	v.Turns = append([]TurnView(nil), d.view.Turns...)
	v.Toasts = append([]Toast(nil), d.view.Toasts...)
	return v
}

// PeakToasts reports the largest number of toasts ever visible at once
func (d *Document) PeakToasts() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.peak
}

func (d *Document) row(item internal.CartItem) Row {
	r := Row{ID: item.ID, Title: item.Title, Author: item.Author}
	if item.Price != nil {
		r.Price = item.Price.Format(d.currency)
	}
	return r
}

// SetCartCount writes the badge
func (d *Document) SetCartCount(n int) {
	d.mutate(func(v *View) bool {
		v.Count = n
		return true
	})
}

// RenderCart replaces every row
func (d *Document) RenderCart(items []internal.CartItem) {
	d.mutate(func(v *View) bool {
		v.Rows = v.Rows[:0]
		for _, it := range items {
			v.Rows = append(v.Rows, d.row(it))
		}
		return true
	})
}

// AppendCartRow adds a row, replacing any row with the same id
func (d *Document) AppendCartRow(item internal.CartItem) {
	d.mutate(func(v *View) bool {
		for i := range v.Rows {
			if v.Rows[i].ID == item.ID {
				v.Rows[i] = d.row(item)
				return true
			}
		}
		v.Rows = append(v.Rows, d.row(item))
		return true
	})
}

// RemoveCartRow removes the row with id and reports whether it was present
func (d *Document) RemoveCartRow(id string) bool {
	return d.mutate(func(v *View) bool {
		for i := range v.Rows {
			if v.Rows[i].ID == id {
				v.Rows = append(v.Rows[:i:i], v.Rows[i+1:]...)
				return true
			}
		}
		return false
	})
}

// HasRow reports whether a row with id is rendered
func (d *Document) HasRow(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, r := range d.view.Rows {
		if r.ID == id {
			return true
		}
	}
	return false
}

// SetCartTotal writes the total line
func (d *Document) SetCartTotal(total internal.Amount) {
	d.mutate(func(v *View) bool {
		v.Total = "Total: " + total.Format(d.currency)
		return true
	})
}

// AppendTurn renders a turn. A turn already on screen is updated in place.
func (d *Document) AppendTurn(turn internal.ChatTurn) {
	d.mutate(func(v *View) bool {
		tv := TurnView{ID: turn.ID, Role: turn.Role, Text: turn.Text, Status: turn.Status}
		for i := range v.Turns {
			if v.Turns[i].ID == turn.ID {
				v.Turns[i] = tv
				return true
			}
		}
		v.Turns = append(v.Turns, tv)
		v.Follow = false
		return true
	})
}

// UpdateTurn rewrites the turn with the same id
func (d *Document) UpdateTurn(turn internal.ChatTurn) bool {
	return d.mutate(func(v *View) bool {
		for i := range v.Turns {
			if v.Turns[i].ID == turn.ID {
				v.Turns[i].Text = turn.Text
				v.Turns[i].Status = turn.Status
				return true
			}
		}
		return false
	})
}

// ScrollToLatest reveals the newest turn
func (d *Document) ScrollToLatest() {
	d.mutate(func(v *View) bool {
		v.Follow = true
		return true
	})
}

// SetChatInput writes the chat input field
func (d *Document) SetChatInput(text string) {
	d.mutate(func(v *View) bool {
		v.ChatInput = text
		return true
	})
}

// SetChatBusy marks the input as waiting for a reply
func (d *Document) SetChatBusy(busy bool) {
	d.mutate(func(v *View) bool {
		v.ChatBusy = busy
		return true
	})
}

// SetListening shows or hides the listening affordance
func (d *Document) SetListening(on bool) {
	d.mutate(func(v *View) bool {
		v.Listening = on
		return true
	})
}

// ShowNotification appends a toast element
func (d *Document) ShowNotification(n internal.Notification) {
	d.mutate(func(v *View) bool {
		v.Toasts = append(v.Toasts, Toast{ID: n.ID, Message: n.Message, Kind: n.Kind})
		return true
	})
}

// FadeNotification starts the fade-out of a toast
func (d *Document) FadeNotification(id string) {
	d.mutate(func(v *View) bool {
		for i := range v.Toasts {
			if v.Toasts[i].ID == id {
				v.Toasts[i].Fading = true
				return true
			}
		}
		return false
	})
}

// RemoveNotification removes a toast element if it is still present
func (d *Document) RemoveNotification(id string) bool {
	return d.mutate(func(v *View) bool {
		for i := range v.Toasts {
			if v.Toasts[i].ID == id {
				v.Toasts = append(v.Toasts[:i:i], v.Toasts[i+1:]...)
				return true
			}
		}
		return false
	})
}

// Navigate records the location the surface moved to
func (d *Document) Navigate(path string) {
	d.mutate(func(v *View) bool {
		v.Location = path
		return true
	})
}
