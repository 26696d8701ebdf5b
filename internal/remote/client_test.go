package remote

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/iksnae/genie/internal"
	"github.com/iksnae/genie/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := New(testutil.FastConfig(baseURL).Remote)
	require.NoError(t, err)
	return c
}

func TestClient_AddToCart(t *testing.T) {
	store := testutil.NewStorefront(t)
	c := newTestClient(t, store.URL())
	ctx := context.Background()

	item, err := c.AddToCart(ctx, AddRequest{Title: "Dune"})
	require.NoError(t, err)
	assert.Nil(t, item, "item is only returned when the service includes it")

	store.ReturnItems(true)
	item, err = c.AddToCart(ctx, AddRequest{Title: "Emma"})
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "Emma", item.Title)
	assert.Equal(t, internal.Amount(29950), item.PriceOrZero())

	_, err = c.AddToCart(ctx, AddRequest{Title: "Missing"})
	var appErr *internal.ApplicationError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
	assert.Equal(t, "Book not found", appErr.Message)
}

func TestClient_RemoveFromCart(t *testing.T) {
	store := testutil.NewStorefront(t)
	store.Seed(internal.CartItem{ID: "42", Title: "Dune"})
	c := newTestClient(t, store.URL())

	require.NoError(t, c.RemoveFromCart(context.Background(), "42"))
	assert.Empty(t, store.Items())

	err := c.RemoveFromCart(context.Background(), "42")
	msg, ok := internal.ServerMessage(err)
	assert.True(t, ok)
	assert.Equal(t, "Item not found", msg)
}

func TestClient_Buy(t *testing.T) {
	store := testutil.NewStorefront(t)
	c := newTestClient(t, store.URL())
	ctx := context.Background()

	err := c.Buy(ctx)
	var appErr *internal.ApplicationError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Cart is empty", appErr.Message)

	store.Seed(internal.CartItem{ID: "1", Title: "Dune"})
	require.NoError(t, c.Buy(ctx))
	assert.Empty(t, store.Items())

	store.SetAuthorized(false)
	err = c.Buy(ctx)
	var authErr *internal.UnauthorizedError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "Login required", authErr.Message)
}

func TestClient_CountAndItems(t *testing.T) {
	store := testutil.NewStorefront(t)
	store.Seed(
		internal.CartItem{ID: "1", Title: "Dune", Price: testutil.Price(449)},
		internal.CartItem{ID: "2", Title: "Emma"},
	)
	c := newTestClient(t, store.URL())
	ctx := context.Background()

	n, err := c.CartCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	items, err := c.CartItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "1", items[0].ID)
	assert.Nil(t, items[1].Price)

	store.Respond("/api/cart/count", http.StatusOK, `{}`)
	n, err = c.CartCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestClient_ClearCart(t *testing.T) {
	store := testutil.NewStorefront(t)
	store.Seed(internal.CartItem{ID: "1", Title: "Dune"})
	c := newTestClient(t, store.URL())

	require.NoError(t, c.ClearCart(context.Background()))
	assert.Empty(t, store.Items())
	assert.Equal(t, 1, store.Calls("/api/cart/clear"))
}

func TestClient_Chat(t *testing.T) {
	store := testutil.NewStorefront(t)
	c := newTestClient(t, store.URL())
	ctx := context.Background()

	reply, err := c.Chat(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, "You said: hello. (Genie replying!)", reply)

	store.SetAuthorized(false)
	reply, err = c.Chat(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, "Please login first!", reply)

	store.Respond("/api/chatbot", http.StatusBadGateway, `<html>bad gateway</html>`)
	_, err = c.Chat(ctx, "hello")
	assert.True(t, internal.IsNetwork(err))
}

func TestClient_NetworkFailure(t *testing.T) {
	store := testutil.NewStorefront(t)
	url := store.URL()
	store.Server.Close()

	c := newTestClient(t, url)
	_, err := c.CartCount(context.Background())
	var netErr *internal.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, "cart.count", netErr.Op)
}

func TestClient_ContextCancel(t *testing.T) {
	store := testutil.NewStorefront(t)
	release := store.Hold("/api/chatbot")
	defer release()
	c := newTestClient(t, store.URL())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.Chat(ctx, "hello")
	require.Error(t, err)
	assert.True(t, internal.IsNetwork(err))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestClient_SessionCookie(t *testing.T) {
	var got string
	store := testutil.NewStorefront(t)
	store.OnChat(func(message string) (int, string) {
		return http.StatusOK, `{"reply":"ok"}`
	})
	cfg := testutil.FastConfig(store.URL()).Remote
	cfg.SessionCookie = "abc123"
	c, err := New(cfg)
	require.NoError(t, err)

	u := c.baseURL
	for _, ck := range c.http.Jar.Cookies(u) {
		if ck.Name == "session" {
			got = ck.Value
		}
	}
	assert.Equal(t, "abc123", got)
}

func TestClient_BreakerOpens(t *testing.T) {
	store := testutil.NewStorefront(t)
	url := store.URL()
	store.Server.Close()

	cfg := testutil.FastConfig(url).Remote
	cfg.Breaker = internal.BreakerConfig{Enabled: true, MaxFailures: 2, OpenTimeout: time.Minute}
	c, err := New(cfg)
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := c.CartCount(ctx)
		require.Error(t, err)
		assert.False(t, errors.Is(err, internal.ErrBreakerOpen))
	}

	_, err = c.CartCount(ctx)
	assert.True(t, errors.Is(err, internal.ErrBreakerOpen))
	assert.True(t, internal.IsNetwork(err))
}
