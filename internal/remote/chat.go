package remote

import (
	"context"
	"net/http"
)

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

// Chat sends one message to the assistant. Any JSON reply is returned
// whatever the HTTP status, so a "please login" reply reaches the user.
// Only transport failures and non-JSON bodies are errors.
func (c *Client) Chat(ctx context.Context, message string) (string, error) {
	const op = "chat"
	ex, err := c.do(ctx, op, http.MethodPost, "/api/chatbot", chatRequest{Message: message})
	if err != nil {
		return "", err
	}
	var resp chatResponse
	if err := decode(op, ex, &resp); err != nil {
		return "", err
	}
	return resp.Reply, nil
}
