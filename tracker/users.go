package tracker

import (
	"context"
	"net/http"
)

// Myself is the account the token belongs to.
type Myself struct {
	Base
	URL     string `json:"self"`
	UID     int64  `json:"uid"`
	Login   string `json:"login"`
	Display string `json:"display"`
	Email   string `json:"email,omitempty"`
}

func (m Myself) String() string { return displayOr(m.Display, "Myself") }

// GetMyself returns the account behind the configured token. It is the
// cheapest call for checking credentials.
func (c *Client) GetMyself(ctx context.Context) (*Myself, error) {
	return ptr(call[Myself](ctx, c, http.MethodGet, "/myself", nil, nil))
}
