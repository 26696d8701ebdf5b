package remote

import (
	"context"
	"net/http"

	"github.com/iksnae/genie/internal"
)

// AddRequest is the body of a cart add
type AddRequest struct {
	Title  string           `json:"title"`
	Author string           `json:"author,omitempty"`
	Price  *internal.Amount `json:"price,omitempty"`
}

type cartResponse struct {
	Success bool               `json:"success"`
	Error   string             `json:"error,omitempty"`
	Message string             `json:"message,omitempty"`
	Item    *internal.CartItem `json:"item,omitempty"`
}

type countResponse struct {
	Count *int `json:"count"`
}

type itemsResponse struct {
	Items []internal.CartItem `json:"items"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// cartCall performs a cart mutation and maps the reply to an error.
// preferMessage selects which server field carries the human text.
func (c *Client) cartCall(ctx context.Context, op, path string, payload any, preferMessage bool) (*cartResponse, error) {
	ex, err := c.do(ctx, op, http.MethodPost, path, payload)
	if err != nil {
		return nil, err
	}

	var resp cartResponse
	if err := decode(op, ex, &resp); err != nil {
		return nil, err
	}

	msg := firstNonEmpty(resp.Error, resp.Message)
	if preferMessage {
		msg = firstNonEmpty(resp.Message, resp.Error)
	}

	if ex.status == http.StatusUnauthorized {
		return nil, &internal.UnauthorizedError{Op: op, Message: msg}
	}
	if !resp.Success {
		return nil, &internal.ApplicationError{Op: op, Status: ex.status, Message: msg}
	}
	return &resp, nil
}

// AddToCart adds a book by title. The created item is returned when the
// service includes it in the reply, nil otherwise.
func (c *Client) AddToCart(ctx context.Context, req AddRequest) (*internal.CartItem, error) {
	resp, err := c.cartCall(ctx, "cart.add", "/api/cart/add", req, false)
	if err != nil {
		return nil, err
	}
	return resp.Item, nil
}

// RemoveFromCart removes the item with the given id
func (c *Client) RemoveFromCart(ctx context.Context, id string) error {
	_, err := c.cartCall(ctx, "cart.remove", "/api/cart/remove", map[string]string{"id": id}, false)
	return err
}

// Buy places an order for the whole cart
func (c *Client) Buy(ctx context.Context) error {
	_, err := c.cartCall(ctx, "cart.buy", "/api/cart/buy", nil, true)
	return err
}

// ClearCart empties the cart
func (c *Client) ClearCart(ctx context.Context) error {
	_, err := c.cartCall(ctx, "cart.clear", "/api/cart/clear", nil, false)
	return err
}

// CartCount returns the authoritative number of items in the cart
func (c *Client) CartCount(ctx context.Context) (int, error) {
	const op = "cart.count"
	ex, err := c.do(ctx, op, http.MethodGet, "/api/cart/count", nil)
	if err != nil {
		return 0, err
	}
	var resp countResponse
	if err := decode(op, ex, &resp); err != nil {
		return 0, err
	}
	if resp.Count == nil {
		return 0, nil
	}
	return *resp.Count, nil
}

// CartItems lists the cart in server order
func (c *Client) CartItems(ctx context.Context) ([]internal.CartItem, error) {
	const op = "cart.items"
	ex, err := c.do(ctx, op, http.MethodGet, "/api/cart/items", nil)
	if err != nil {
		return nil, err
	}
	if ex.status == http.StatusUnauthorized {
		return nil, &internal.UnauthorizedError{Op: op}
	}
	if ex.status >= http.StatusBadRequest {
		return nil, &internal.ApplicationError{Op: op, Status: ex.status}
	}
	var resp itemsResponse
	if err := decode(op, ex, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}
