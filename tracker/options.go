package tracker

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultAPIHost is the public Tracker API endpoint.
	DefaultAPIHost = "https://api.tracker.yandex.net"
	// DefaultAPIVersion is the API version prefix joined to relative paths.
	DefaultAPIVersion = "v2"
	// DefaultCloseGrace is how long Close waits for connection teardown.
	DefaultCloseGrace = 250 * time.Millisecond
	// DefaultBatchConcurrency bounds concurrent requests in batch helpers.
	DefaultBatchConcurrency = 5
)

// Option configures a Client.
type Option func(*clientOptions)

// clientOptions holds configuration options for the Client.
type clientOptions struct {
	orgID            string
	token            string
	apiHost          string
	apiVersion       string
	headers          http.Header
	transport        http.RoundTripper
	requester        Requester
	closeGrace       time.Duration
	batchConcurrency int
	logger           zerolog.Logger
}

func defaultOptions() *clientOptions {
	return &clientOptions{
		apiHost:          DefaultAPIHost,
		apiVersion:       DefaultAPIVersion,
		headers:          make(http.Header),
		closeGrace:       DefaultCloseGrace,
		batchConcurrency: DefaultBatchConcurrency,
		logger:           zerolog.Nop(),
	}
}

// WithAPIHost overrides the API host, e.g. for a proxy or a test server.
func WithAPIHost(host string) Option {
	return func(o *clientOptions) {
		if host != "" {
			o.apiHost = host
		}
	}
}

// WithAPIVersion overrides the API version prefix.
func WithAPIVersion(version string) Option {
	return func(o *clientOptions) {
		if version != "" {
			o.apiVersion = version
		}
	}
}

// WithHeaders adds headers sent with every request. A header given here
// takes precedence over the X-Org-Id and Authorization defaults.
func WithHeaders(headers map[string]string) Option {
	return func(o *clientOptions) {
		for k, v := range headers {
			o.headers.Set(k, v)
		}
	}
}

// WithTransport sets the round tripper underneath the authorization layer.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *clientOptions) {
		o.transport = rt
	}
}

// WithRequester replaces the HTTP connection entirely. The requester is
// expected to handle authorization itself, so org id and token may be empty.
func WithRequester(r Requester) Option {
	return func(o *clientOptions) {
		o.requester = r
	}
}

// WithCloseGrace sets how long Close waits after releasing connections.
func WithCloseGrace(d time.Duration) Option {
	return func(o *clientOptions) {
		if d >= 0 {
			o.closeGrace = d
		}
	}
}

// WithBatchConcurrency bounds the number of concurrent requests made by
// batch helpers such as GetIssues.
func WithBatchConcurrency(n int) Option {
	return func(o *clientOptions) {
		if n > 0 {
			o.batchConcurrency = n
		}
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *clientOptions) {
		o.logger = logger
	}
}
