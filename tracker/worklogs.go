package tracker

import (
	"context"
	"net/http"
	"time"
)

// PostWorklog records time spent on an issue starting at start.
func (c *Client) PostWorklog(ctx context.Context, issueID string, start time.Time, duration Duration, extra Fields) (*Worklog, error) {
	payload := &Payload{
		Args: map[string]any{
			"start":    start.Format(TimeLayout),
			"duration": duration.String(),
		},
		Extra: extra,
	}
	return ptr(call[Worklog](ctx, c, http.MethodPost, "/issues/"+issueID+"/worklog/", nil, payload))
}
