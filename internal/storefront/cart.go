package storefront

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/iksnae/genie/internal"
	"github.com/iksnae/genie/internal/remote"
)

// Toast texts
const (
	msgAdded        = "%q added to cart ✅"
	msgAddFailed    = "Failed to add ❌"
	msgServerError  = "Server error ❌"
	msgRemoved      = "Item removed ✅"
	msgRemoveFailed = "Failed ❌"
	msgRemoveError  = "Error removing ❌"
	msgLoginNeeded  = "Please login to continue 🔐"
	msgOrderPlaced  = "Order placed successfully 🎉"
	msgOrderFailed  = "Failed to place order ❌"
	msgCleared      = "Cart cleared ✅"
	msgClearError   = "Failed ❌"
)

// CartDelays holds the pauses that let a toast be read before the
// surface changes
type CartDelays struct {
	Login       time.Duration
	BuyReload   time.Duration
	ClearReload time.Duration
}

// AddRequest describes a book to put in the cart
type AddRequest struct {
	Title  string           `validate:"required"`
	Author string
	Price  *internal.Amount `validate:"omitempty,gte=0"`
}

// Cart drives cart mutations against the storefront
type Cart struct {
	remote   CartRemote
	surface  Surface
	notifier *Notifier
	schedule Scheduler
	delays   CartDelays

	loginPath string
	reload    func(ctx context.Context)

	mu    sync.Mutex
	state internal.CartState

	pending sync.WaitGroup
	timerMu sync.Mutex
	timers  []Timer
}

// NewCart creates a cart controller. reload is called when the page would
// be reloaded after a purchase or clear; nil re-syncs the cart.
func NewCart(r CartRemote, s Surface, n *Notifier, schedule Scheduler, delays CartDelays, loginPath string) *Cart {
	if schedule == nil {
		schedule = RealScheduler
	}
	c := &Cart{
		remote:    r,
		surface:   s,
		notifier:  n,
		schedule:  schedule,
		delays:    delays,
		loginPath: loginPath,
	}
	c.reload = func(ctx context.Context) { _ = c.Sync(ctx) }
	return c
}

// OnReload replaces the reload action
func (c *Cart) OnReload(fn func(ctx context.Context)) {
	c.reload = fn
}

// Items returns the cart as last rendered
func (c *Cart) Items() []internal.CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Snapshot()
}

// Total returns the sum of the rendered items' prices
func (c *Cart) Total() internal.Amount {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Total()
}

// failureMessage picks the server text for err, or the fallback that
// matches its kind
func failureMessage(err error, appFallback, netFallback string) string {
	if msg, ok := internal.ServerMessage(err); ok {
		return msg
	}
	if internal.IsNetwork(err) {
		return netFallback
	}
	return appFallback
}

// Add puts a book in the cart. Nothing is inserted until the service
// confirms; a confirmed item carried in the reply is rendered at once.
func (c *Cart) Add(ctx context.Context, req AddRequest) error {
	req.Title = strings.TrimSpace(req.Title)
	if err := internal.ValidateStruct(req); err != nil {
		return err
	}

	item, err := c.remote.AddToCart(ctx, remote.AddRequest{Title: req.Title, Author: req.Author, Price: req.Price})
	if err != nil {
		internal.LogDebug("Add %q failed: %v", req.Title, err)
		c.notifier.Error(failureMessage(err, msgAddFailed, msgServerError))
		return err
	}

	if item != nil {
		if verr := item.Validate(); verr != nil {
			internal.LogWarn("Ignoring invalid item in add reply: %v", verr)
		} else {
			c.mu.Lock()
			c.state.Upsert(*item)
			c.surface.AppendCartRow(*item)
			c.surface.SetCartTotal(c.state.Total())
			c.mu.Unlock()
		}
	}
	c.notifier.Success(fmt.Sprintf(msgAdded, req.Title))
	c.RefreshCount(ctx)
	return nil
}

// Remove deletes the row with id once the service confirms. On failure the
// row stays as it is.
func (c *Cart) Remove(ctx context.Context, id string) error {
	if err := c.remote.RemoveFromCart(ctx, id); err != nil {
		internal.LogDebug("Remove %s failed: %v", id, err)
		c.notifier.Error(failureMessage(err, msgRemoveFailed, msgRemoveError))
		return err
	}

	c.mu.Lock()
	c.state.Remove(id)
	c.surface.RemoveCartRow(id)
	c.surface.SetCartTotal(c.state.Total())
	c.mu.Unlock()

	c.notifier.Success(msgRemoved)
	c.RefreshCount(ctx)
	return nil
}

// Buy places an order. Without a session the surface is sent to the login
// page after a pause; on success the cart reloads after a pause.
func (c *Cart) Buy(ctx context.Context) error {
	err := c.remote.Buy(ctx)
	if err != nil {
		if isUnauthorized(err) {
			c.notifier.Error(msgLoginNeeded)
			c.after(c.delays.Login, func() { c.surface.Navigate(c.loginPath) })
			return err
		}
		c.notifier.Error(failureMessage(err, msgOrderFailed, msgServerError))
		return err
	}

	c.notifier.Success(msgOrderPlaced)
	c.RefreshCount(ctx)
	c.after(c.delays.BuyReload, func() { c.reload(context.Background()) })
	return nil
}

// Clear empties the cart. An application-level refusal is silent.
func (c *Cart) Clear(ctx context.Context) error {
	err := c.remote.ClearCart(ctx)
	if err != nil {
		if internal.IsNetwork(err) {
			c.notifier.Error(msgClearError)
		} else {
			internal.LogDebug("Clear refused: %v", err)
		}
		return err
	}

	c.notifier.Success(msgCleared)
	c.RefreshCount(ctx)
	c.after(c.delays.ClearReload, func() { c.reload(context.Background()) })
	return nil
}

// RefreshCount writes the authoritative count to the badge. Failures are
// only logged.
func (c *Cart) RefreshCount(ctx context.Context) {
	n, err := c.remote.CartCount(ctx)
	if err != nil {
		internal.LogDebug("Count refresh failed: %v", err)
		return
	}
	c.surface.SetCartCount(n)
}

// Sync replaces the cart with the service's listing and re-renders every
// row, the total and the badge
func (c *Cart) Sync(ctx context.Context) error {
	items, err := c.remote.CartItems(ctx)
	if err != nil {
		internal.LogDebug("Cart sync failed: %v", err)
		return err
	}

	valid := items[:0:0]
	for _, it := range items {
		if verr := it.Validate(); verr != nil {
			internal.LogWarn("Skipping invalid cart item %q: %v", it.ID, verr)
			continue
		}
		valid = append(valid, it)
	}

	c.mu.Lock()
	c.state.Replace(valid)
	c.surface.RenderCart(valid)
	c.surface.SetCartTotal(c.state.Total())
	c.mu.Unlock()

	c.surface.SetCartCount(len(valid))
	return nil
}

// Wait blocks until every scheduled navigation and reload has run
func (c *Cart) Wait() {
	c.pending.Wait()
}

// WaitContext is Wait that gives up when ctx ends. Scheduled work that has
// not started is cancelled before it returns ctx.Err().
func (c *Cart) WaitContext(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.pending.Wait()
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		c.Close()
		<-done
		return ctx.Err()
	}
}

// Close cancels scheduled navigations and reloads
func (c *Cart) Close() {
	c.timerMu.Lock()
	defer c.timerMu.Unlock()
	for _, t := range c.timers {
		if t.Stop() {
			c.pending.Done()
		}
	}
	c.timers = nil
}

func (c *Cart) after(d time.Duration, fn func()) {
	c.timerMu.Lock()
	defer c.timerMu.Unlock()
	c.pending.Add(1)
	c.timers = append(c.timers, c.schedule(d, func() {
		defer c.pending.Done()
		fn()
	}))
}

func isUnauthorized(err error) bool {
	var authErr *internal.UnauthorizedError
	return errors.As(err, &authErr)
}
