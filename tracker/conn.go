package tracker

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

// Requester sends one API request and returns the raw response body of a
// successful call. Unsuccessful statuses are returned as *APIError.
//
// uri is either relative to the API version root ("/issues/KEY-1") or an
// absolute URL, which is used verbatim.
type Requester interface {
	Request(ctx context.Context, method, uri string, params url.Values, body Body) ([]byte, error)
	Close() error
}

// Body encodes a request body.
type Body interface {
	Encode() (io.Reader, string, error)
}

type jsonBody struct {
	value any
}

// JSON returns a body that encodes v as JSON.
func JSON(v any) Body {
	return jsonBody{value: v}
}

func (b jsonBody) Encode() (io.Reader, string, error) {
	data, err := json.Marshal(b.value)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal request body: %w", err)
	}
	return bytes.NewReader(data), "application/json", nil
}

type fileBody struct {
	field    string
	filename string
	content  io.Reader
}

// File returns a multipart form body with a single file part.
func File(field, filename string, content io.Reader) Body {
	return fileBody{field: field, filename: filename, content: content}
}

func (b fileBody) Encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(b.field, b.filename)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, b.content); err != nil {
		return nil, "", fmt.Errorf("failed to read file content: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finalize form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

type connState int

const (
	stateUnopened connState = iota
	stateOpen
	stateClosed
)

// tokenType renders as "Authorization: OAuth <token>".
const tokenType = "OAuth"

// httpConn is the default Requester. The HTTP client is created on the first
// request and reused until Close.
type httpConn struct {
	baseURL    string
	version    string
	token      string
	headers    http.Header
	transport  http.RoundTripper
	closeGrace time.Duration
	logger     zerolog.Logger

	mu     sync.Mutex
	state  connState
	base   http.RoundTripper
	client *http.Client
}

func newHTTPConn(o *clientOptions) *httpConn {
	headers := o.headers.Clone()
	if headers == nil {
		headers = make(http.Header)
	}
	if headers.Get("X-Org-Id") == "" && o.orgID != "" {
		headers.Set("X-Org-Id", o.orgID)
	}

	return &httpConn{
		baseURL:    strings.TrimSuffix(o.apiHost, "/"),
		version:    strings.Trim(o.apiVersion, "/"),
		token:      o.token,
		headers:    headers,
		transport:  o.transport,
		closeGrace: o.closeGrace,
		logger:     o.logger,
	}
}

// open returns the shared client, creating it on first use.
func (c *httpConn) open() (*http.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case stateOpen:
		return c.client, nil
	case stateClosed:
		return nil, ErrConnClosed
	}

	base := c.transport
	if base == nil {
		base = &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
			ForceAttemptHTTP2:   true,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		}
	}

	rt := base
	// An explicit Authorization header wins over the token.
	if c.token != "" && c.headers.Get("Authorization") == "" {
		rt = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{
				AccessToken: c.token,
				TokenType:   tokenType,
			}),
			Base: base,
		}
	}

	c.base = base
	// No total timeout: uploads may take arbitrarily long. Use ctx instead.
	c.client = &http.Client{Transport: rt}
	c.state = stateOpen

	c.logger.Debug().Str("host", c.baseURL).Msg("Opened tracker connection pool")
	return c.client, nil
}

// resolve joins a relative uri to the versioned API root.
func (c *httpConn) resolve(uri string) string {
	if strings.HasPrefix(uri, "http") {
		return uri
	}
	if !strings.HasPrefix(uri, "/") {
		uri = "/" + uri
	}
	return c.baseURL + "/" + c.version + uri
}

func (c *httpConn) Request(ctx context.Context, method, uri string, params url.Values, body Body) ([]byte, error) {
	client, err := c.open()
	if err != nil {
		return nil, err
	}

	target := c.resolve(uri)
	if len(params) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + params.Encode()
	}

	var (
		reader      io.Reader
		contentType string
	)
	if body != nil {
		reader, contentType, err = body.Encode()
		if err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, values := range c.headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-Id", requestID)

	c.logger.Debug().
		Str("method", method).
		Str("url", target).
		Str("request_id", requestID).
		Msg("Making tracker API request")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if err := Classify(resp.StatusCode, data); err != nil {
		c.logger.Warn().
			Int("status", resp.StatusCode).
			Str("method", method).
			Str("url", target).
			Str("request_id", requestID).
			Bytes("body", data).
			Msg("Tracker API request failed")
		return nil, err
	}

	return data, nil
}

// Close releases pooled connections and waits for the grace period so the
// transport can finish tearing them down. Closing twice, or closing before
// any request, does nothing.
func (c *httpConn) Close() error {
	c.mu.Lock()
	if c.state != stateOpen {
		c.mu.Unlock()
		return nil
	}
	c.state = stateClosed
	base := c.base
	c.client = nil
	c.base = nil
	c.mu.Unlock()

	if closer, ok := base.(interface{ CloseIdleConnections() }); ok {
		closer.CloseIdleConnections()
	}
	if c.closeGrace > 0 {
		time.Sleep(c.closeGrace)
	}

	c.logger.Debug().Msg("Closed tracker connection pool")
	return nil
}
