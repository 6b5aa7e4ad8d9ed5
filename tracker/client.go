package tracker

import (
	"context"
	"fmt"
	"net/url"
	"reflect"

	"github.com/rs/zerolog"
)

// Client represents a Tracker API client.
// A Client is safe for concurrent use and must be closed when done.
type Client struct {
	conn      Requester
	decoders  *decoderRegistry
	logger    zerolog.Logger
	batchSize int
}

// NewClient creates a client for the organization orgID authenticated with
// an OAuth token. Both are required unless WithRequester is given.
func NewClient(orgID, token string, opts ...Option) (*Client, error) {
	o := defaultOptions()
	o.orgID = orgID
	o.token = token
	for _, opt := range opts {
		opt(o)
	}

	conn := o.requester
	if conn == nil {
		if orgID == "" || token == "" {
			return nil, fmt.Errorf("%w: org id and token are required unless a requester is provided", ErrInvalidConfig)
		}
		conn = newHTTPConn(o)
	}

	return &Client{
		conn:      conn,
		decoders:  newDecoderRegistry(),
		logger:    o.logger,
		batchSize: o.batchConcurrency,
	}, nil
}

// Logger returns the client's logger.
func (c *Client) Logger() zerolog.Logger {
	return c.logger
}

// Close releases the connection pool. It is safe to call more than once.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Request sends a raw request and returns the successful response body.
// It is the escape hatch for endpoints without a dedicated method.
func (c *Client) Request(ctx context.Context, method, uri string, params url.Values, body Body) ([]byte, error) {
	return c.conn.Request(ctx, method, uri, params, body)
}

// call normalizes payload, sends it and decodes the response into T.
// A nil payload sends no body.
func call[T any](ctx context.Context, c *Client, method, uri string, params url.Values, payload *Payload) (T, error) {
	var zero T

	var body Body
	if payload != nil {
		normalized, err := payload.Normalize()
		if err != nil {
			return zero, err
		}
		body = JSON(normalized)
	}

	data, err := c.conn.Request(ctx, method, uri, params, body)
	if err != nil {
		return zero, err
	}
	return Decode[T](c, data)
}

// exec sends a request whose response body is not decoded.
func exec(ctx context.Context, c *Client, method, uri string, params url.Values, payload *Payload) error {
	var body Body
	if payload != nil {
		normalized, err := payload.Normalize()
		if err != nil {
			return err
		}
		body = JSON(normalized)
	}
	_, err := c.conn.Request(ctx, method, uri, params, body)
	return err
}

// customTarget returns T when it differs from the base type B. Plain calls
// pass extra fields through unchanged, while calls with a custom type only
// send the fields that type declares.
func customTarget[T, B any]() reflect.Type {
	t := reflect.TypeFor[T]()
	if t == reflect.TypeFor[B]() {
		return nil
	}
	return t
}
