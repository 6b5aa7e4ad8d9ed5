package tracker

import (
	"context"
	"net/http"
)

// GetComments returns the comments of an issue.
func (c *Client) GetComments(ctx context.Context, issueID string) ([]Comment, error) {
	return call[[]Comment](ctx, c, http.MethodGet, "/issues/"+issueID+"/comments", nil, nil)
}

// PostComment adds a comment to an issue. extra may carry "summonees" or
// "attachment_ids".
func (c *Client) PostComment(ctx context.Context, issueID, text string, extra Fields) (*Comment, error) {
	return ptr(PostCommentAs[Comment](ctx, c, issueID, text, extra))
}

// PostCommentAs is PostComment decoding into a custom comment type.
func PostCommentAs[T any](ctx context.Context, c *Client, issueID, text string, extra Fields) (T, error) {
	payload := &Payload{
		Args: map[string]any{
			"issue_id": issueID,
			"text":     text,
		},
		Extra:   extra,
		Exclude: []string{"issue_id"},
		Target:  customTarget[T, Comment](),
	}
	return call[T](ctx, c, http.MethodPost, "/issues/"+issueID+"/comments/", nil, payload)
}

// EditComment replaces the text of a comment.
func (c *Client) EditComment(ctx context.Context, issueID, commentID, text string, attachmentIDs []string) (*Comment, error) {
	payload := &Payload{Args: map[string]any{
		"text":           text,
		"attachment_ids": attachmentIDs,
	}}
	return ptr(call[Comment](ctx, c, http.MethodPatch, "/issues/"+issueID+"/comments/"+commentID, nil, payload))
}

// DeleteComment deletes a comment.
func (c *Client) DeleteComment(ctx context.Context, issueID, commentID string) error {
	return exec(ctx, c, http.MethodDelete, "/issues/"+issueID+"/comments/"+commentID, nil, nil)
}
