package tracker

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// CreateQueueParams describes a new queue.
type CreateQueueParams struct {
	Key              string
	Name             string
	Lead             string
	DefaultType      string
	DefaultPriority  string
	IssueTypesConfig []IssueTypeConfigParams
	Extra            Fields
}

// IssueTypeConfigParams binds an issue type to a workflow and resolutions
// when creating a queue. Values are keys.
type IssueTypeConfigParams struct {
	IssueType   string   `json:"issueType"`
	Workflow    string   `json:"workflow"`
	Resolutions []string `json:"resolutions"`
}

// GetQueue returns the queue with the given id or key.
func (c *Client) GetQueue(ctx context.Context, queueID string) (*FullQueue, error) {
	return ptr(GetQueueAs[FullQueue](ctx, c, queueID))
}

// GetQueueAs is GetQueue decoding into a custom queue type.
func GetQueueAs[T any](ctx context.Context, c *Client, queueID string) (T, error) {
	return call[T](ctx, c, http.MethodGet, "/queues/"+queueID, nil, nil)
}

// CreateQueue creates a queue.
func (c *Client) CreateQueue(ctx context.Context, p CreateQueueParams) (*FullQueue, error) {
	return ptr(CreateQueueAs[FullQueue](ctx, c, p))
}

// CreateQueueAs is CreateQueue for a custom queue type.
func CreateQueueAs[T any](ctx context.Context, c *Client, p CreateQueueParams) (T, error) {
	payload := &Payload{
		Args: map[string]any{
			"key":                optional(p.Key),
			"name":               optional(p.Name),
			"lead":               optional(p.Lead),
			"default_type":       optional(p.DefaultType),
			"default_priority":   optional(p.DefaultPriority),
			"issue_types_config": p.IssueTypesConfig,
		},
		Extra:  p.Extra,
		Target: customTarget[T, FullQueue](),
	}
	return call[T](ctx, c, http.MethodPost, "/queues", nil, payload)
}

// GetQueues lists queues. perPage of zero keeps the server default.
func (c *Client) GetQueues(ctx context.Context, expand string, perPage int) ([]FullQueue, error) {
	return GetQueuesAs[FullQueue](ctx, c, expand, perPage)
}

// GetQueuesAs is GetQueues decoding into a custom queue type.
func GetQueuesAs[T any](ctx context.Context, c *Client, expand string, perPage int) ([]T, error) {
	params := url.Values{}
	if expand != "" {
		params.Set("expand", expand)
	}
	if perPage > 0 {
		params.Set("perPage", strconv.Itoa(perPage))
	}
	return call[[]T](ctx, c, http.MethodGet, "/queues", params, nil)
}

// DeleteQueue deletes a queue. It can be brought back with RestoreQueue.
func (c *Client) DeleteQueue(ctx context.Context, queueID string) error {
	return exec(ctx, c, http.MethodDelete, "/queues/"+queueID, nil, nil)
}

// RestoreQueue restores a deleted queue.
func (c *Client) RestoreQueue(ctx context.Context, queueID string) (*FullQueue, error) {
	return ptr(RestoreQueueAs[FullQueue](ctx, c, queueID))
}

// RestoreQueueAs is RestoreQueue decoding into a custom queue type.
func RestoreQueueAs[T any](ctx context.Context, c *Client, queueID string) (T, error) {
	return call[T](ctx, c, http.MethodGet, "/queues/"+queueID+"/_restore", nil, nil)
}

// DeleteTagFromQueue removes a tag from every issue of a queue.
func (c *Client) DeleteTagFromQueue(ctx context.Context, queueID, tag string) error {
	payload := &Payload{Args: map[string]any{"tag": tag}}
	return exec(ctx, c, http.MethodDelete, "/queues/"+queueID+"/tags/_remove", nil, payload)
}

// GetQueueFields returns the issue fields available in a queue.
func (c *Client) GetQueueFields(ctx context.Context, queueID string) ([]QueueField, error) {
	return GetQueueFieldsAs[QueueField](ctx, c, queueID)
}

// GetQueueFieldsAs is GetQueueFields decoding into a custom field type.
func GetQueueFieldsAs[T any](ctx context.Context, c *Client, queueID string) ([]T, error) {
	return call[[]T](ctx, c, http.MethodGet, "/queues/"+queueID+"/fields", nil, nil)
}

// GetQueueVersions returns the versions of a queue.
func (c *Client) GetQueueVersions(ctx context.Context, queueID string) ([]QueueVersion, error) {
	return GetQueueVersionsAs[QueueVersion](ctx, c, queueID)
}

// GetQueueVersionsAs is GetQueueVersions decoding into a custom version type.
func GetQueueVersionsAs[T any](ctx context.Context, c *Client, queueID string) ([]T, error) {
	return call[[]T](ctx, c, http.MethodGet, "/queues/"+queueID+"/versions", nil, nil)
}
