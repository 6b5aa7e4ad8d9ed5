package tracker

import (
	"context"
	"net/http"
	"net/url"
)

// GetPriorities lists priorities. With localized false, each name holds
// every translation.
func (c *Client) GetPriorities(ctx context.Context, localized bool) ([]Priority, error) {
	var params url.Values
	if !localized {
		params = url.Values{"localized": {"false"}}
	}
	return call[[]Priority](ctx, c, http.MethodGet, "/priorities", params, nil)
}
