package tracker

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
)

// CreateIssueParams describes a new issue. Zero values are not sent.
type CreateIssueParams struct {
	Summary     string
	Queue       string
	Parent      any // issue key or *Issue
	Description string
	Sprint      any
	Type        any // issue type key or *IssueType
	Priority    any // priority key, id or *Priority
	Followers   []string
	// Unique makes creation idempotent: a second issue with the same value
	// fails with ErrConflict.
	Unique        string
	AttachmentIDs []string
	// Extra holds additional fields, including local queue fields.
	Extra Fields
}

// MoveOptions tune MoveIssue.
type MoveOptions struct {
	// NoNotify suppresses notifications about the move.
	NoNotify      bool
	NotifyAuthor  bool
	MoveAllFields bool
	InitialStatus bool
	Expand        string
}

// IssueQuery selects issues by filter fields or by a query language string.
type IssueQuery struct {
	Filter map[string]any
	Query  string
}

// SearchParams select and order issues for FindIssues.
type SearchParams struct {
	Filter map[string]any
	Query  string
	Keys   []string
	Queue  string
	Order  string
	Expand string
}

// GetIssue returns the issue with the given id or key. expand may request
// "transitions" or "attachments".
func (c *Client) GetIssue(ctx context.Context, issueID, expand string) (*FullIssue, error) {
	return ptr(GetIssueAs[FullIssue](ctx, c, issueID, expand))
}

// GetIssueAs is GetIssue decoding into a custom issue type.
func GetIssueAs[T any](ctx context.Context, c *Client, issueID, expand string) (T, error) {
	return call[T](ctx, c, http.MethodGet, "/issues/"+issueID, expandParams(expand), nil)
}

// GetIssues fetches several issues concurrently and returns them in the
// order of issueIDs. The first failure cancels the remaining requests.
func (c *Client) GetIssues(ctx context.Context, issueIDs []string, expand string) ([]FullIssue, error) {
	return GetIssuesAs[FullIssue](ctx, c, issueIDs, expand)
}

// GetIssuesAs is GetIssues decoding into a custom issue type.
func GetIssuesAs[T any](ctx context.Context, c *Client, issueIDs []string, expand string) ([]T, error) {
	issues := make([]T, len(issueIDs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.batchSize)

	for i, id := range issueIDs {
		g.Go(func() error {
			issue, err := GetIssueAs[T](ctx, c, id, expand)
			if err != nil {
				return fmt.Errorf("failed to get issue %s: %w", id, err)
			}
			issues[i] = issue
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return issues, nil
}

// EditIssue changes the given fields of an issue. A non-zero version makes
// the edit fail with a conflict if the issue has changed since.
func (c *Client) EditIssue(ctx context.Context, issueID string, version int, fields Fields) (*FullIssue, error) {
	return ptr(EditIssueAs[FullIssue](ctx, c, issueID, version, fields))
}

// EditIssueAs is EditIssue for a custom issue type. Fields are resolved
// against the fields T declares.
func EditIssueAs[T any](ctx context.Context, c *Client, issueID string, version int, fields Fields) (T, error) {
	var params url.Values
	if version != 0 {
		params = url.Values{"version": {strconv.Itoa(version)}}
	}
	payload := &Payload{Extra: fields, Target: customTarget[T, FullIssue]()}
	return call[T](ctx, c, http.MethodPatch, "/issues/"+issueID, params, payload)
}

// CreateIssue creates an issue.
func (c *Client) CreateIssue(ctx context.Context, p CreateIssueParams) (*FullIssue, error) {
	return ptr(CreateIssueAs[FullIssue](ctx, c, p))
}

// CreateIssueAs is CreateIssue for a custom issue type. Extra fields are
// renamed to the wire names T declares; fields T does not declare are
// dropped.
func CreateIssueAs[T any](ctx context.Context, c *Client, p CreateIssueParams) (T, error) {
	payload := &Payload{
		Args: map[string]any{
			"summary":        optional(p.Summary),
			"queue":          optional(p.Queue),
			"parent":         p.Parent,
			"description":    optional(p.Description),
			"sprint":         p.Sprint,
			"type_":          p.Type,
			"priority":       p.Priority,
			"followers":      p.Followers,
			"unique":         optional(p.Unique),
			"attachment_ids": p.AttachmentIDs,
		},
		Extra:  p.Extra,
		Target: customTarget[T, FullIssue](),
	}
	return call[T](ctx, c, http.MethodPost, "/issues/", nil, payload)
}

// MoveIssue moves an issue to another queue. fields may change the issue
// in the same request.
func (c *Client) MoveIssue(ctx context.Context, issueID, queueKey string, opts MoveOptions, fields Fields) (*FullIssue, error) {
	return ptr(MoveIssueAs[FullIssue](ctx, c, issueID, queueKey, opts, fields))
}

// MoveIssueAs is MoveIssue for a custom issue type.
func MoveIssueAs[T any](ctx context.Context, c *Client, issueID, queueKey string, opts MoveOptions, fields Fields) (T, error) {
	params := url.Values{"queue": {queueKey}}
	if opts.NoNotify {
		params.Set("notify", "false")
	}
	if opts.NotifyAuthor {
		params.Set("notifyAuthor", "true")
	}
	if opts.MoveAllFields {
		params.Set("moveAllFields", "true")
	}
	if opts.InitialStatus {
		params.Set("initialStatus", "true")
	}
	if opts.Expand != "" {
		params.Set("expand", opts.Expand)
	}

	payload := &Payload{Extra: fields, Target: customTarget[T, FullIssue]()}
	return call[T](ctx, c, http.MethodPost, "/issues/"+issueID+"/_move", params, payload)
}

// CountIssues returns the number of issues matching q.
func (c *Client) CountIssues(ctx context.Context, q IssueQuery) (int, error) {
	payload := &Payload{Args: map[string]any{
		"filter": q.Filter,
		"query":  optional(q.Query),
	}}
	return call[int](ctx, c, http.MethodPost, "/issues/_count", nil, payload)
}

// FindIssues returns issues matching p. Large result sets need paging,
// which is left to the caller.
func (c *Client) FindIssues(ctx context.Context, p SearchParams) ([]FullIssue, error) {
	return FindIssuesAs[FullIssue](ctx, c, p)
}

// FindIssuesAs is FindIssues decoding into a custom issue type.
func FindIssuesAs[T any](ctx context.Context, c *Client, p SearchParams) ([]T, error) {
	params := url.Values{}
	if p.Order != "" {
		params.Set("order", p.Order)
	}
	if p.Expand != "" {
		params.Set("expand", p.Expand)
	}

	payload := &Payload{
		Args: map[string]any{
			"filter": p.Filter,
			"query":  optional(p.Query),
			"keys":   p.Keys,
			"queue":  optional(p.Queue),
			"order":  p.Order,
			"expand": p.Expand,
		},
		Exclude: []string{"order", "expand"},
	}
	return call[[]T](ctx, c, http.MethodPost, "/issues/_search", params, payload)
}

// GetIssueLinks returns the links of an issue.
func (c *Client) GetIssueLinks(ctx context.Context, issueID string) ([]IssueLink, error) {
	return call[[]IssueLink](ctx, c, http.MethodGet, "/issues/"+issueID+"/links", nil, nil)
}

// GetTransitions returns the transitions currently available for an issue.
func (c *Client) GetTransitions(ctx context.Context, issueID string) (*Transitions, error) {
	list, err := call[[]Transition](ctx, c, http.MethodGet, "/issues/"+issueID+"/transitions", nil, nil)
	if err != nil {
		return nil, err
	}
	return NewTransitions(list), nil
}

// ExecuteTransition performs t. The request goes to the transition's own
// link rather than a path under the API root.
func (c *Client) ExecuteTransition(ctx context.Context, t *Transition, extra Fields) ([]Transition, error) {
	if t == nil || t.URL == "" {
		return nil, fmt.Errorf("transition has no link to execute")
	}
	uri := strings.TrimSuffix(t.URL, "/") + "/_execute"
	return call[[]Transition](ctx, c, http.MethodPost, uri, nil, &Payload{Extra: extra})
}

// GetTransitions returns the transitions available for the issue.
func (i *FullIssue) GetTransitions(ctx context.Context) (*Transitions, error) {
	c := i.Tracker()
	if c == nil {
		return nil, ErrUnbound
	}
	return c.GetTransitions(ctx, i.ID)
}

// GetComments returns the comments of the issue.
func (i *FullIssue) GetComments(ctx context.Context) ([]Comment, error) {
	c := i.Tracker()
	if c == nil {
		return nil, ErrUnbound
	}
	return c.GetComments(ctx, i.ID)
}

// PostComment adds a comment to the issue.
func (i *FullIssue) PostComment(ctx context.Context, text string, extra Fields) (*Comment, error) {
	c := i.Tracker()
	if c == nil {
		return nil, ErrUnbound
	}
	return c.PostComment(ctx, i.ID, text, extra)
}

func expandParams(expand string) url.Values {
	if expand == "" {
		return nil
	}
	return url.Values{"expand": {expand}}
}

// optional maps the empty string to an unset value.
func optional(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func ptr[T any](v T, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	return &v, nil
}
