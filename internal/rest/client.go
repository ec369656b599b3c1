package rest

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Client defaults.
const (
	DefaultTimeout    = 10 * time.Second
	DefaultMaxRetries = 3
	DefaultBackoff    = 500 * time.Millisecond

	// maxResponseSize caps how much of a response body is read.
	maxResponseSize = 10 << 20
)

// RawKey holds the body text of responses that are not JSON.
const RawKey = "_raw"

// ClientOptions configures a Client.
type ClientOptions struct {
	// Timeout applies to each attempt unless the source sets its own.
	Timeout time.Duration
	// MaxRetries is the number of extra attempts after the first one fails.
	MaxRetries int
	// Backoff is multiplied by the attempt number to get the pause before a retry.
	Backoff time.Duration
	// HTTPClient is used for all requests. Defaults to a new http.Client.
	HTTPClient *http.Client
}

// DefaultClientOptions returns the stock timeout, retry and backoff settings.
func DefaultClientOptions() ClientOptions {
	return ClientOptions{
		Timeout:    DefaultTimeout,
		MaxRetries: DefaultMaxRetries,
		Backoff:    DefaultBackoff,
	}
}

// Client performs REST requests with retry and linear backoff.
//
// Thread Safety: A Client is safe for concurrent use; the poller shares one
// across all source goroutines.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
	maxRetries int
	backoff    time.Duration
	newTimer   func() backoff.Timer // nil uses the library's real timer
	logger     Logger
}

// NewClient creates a Client from opts.
func NewClient(opts ClientOptions) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.Backoff < 0 {
		opts.Backoff = 0
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{
		httpClient: hc,
		timeout:    opts.Timeout,
		maxRetries: opts.MaxRetries,
		backoff:    opts.Backoff,
		logger:     noopLogger{},
	}
}

// SetLogger sets the logger used to report retries.
func (c *Client) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	c.logger = logger
}

// Fetch calls the source endpoint and returns the decoded payload.
//
// Transport errors, undecodable JSON and non-2xx statuses are retried up to
// MaxRetries times, pausing Backoff × attempt between tries. JSON responses
// decode to map[string]any or []any; anything else is returned as
// map[string]any{"_raw": text}.
//
// Returns:
//   - any: Decoded payload
//   - error: *TransportError once all attempts failed, or ctx.Err()
func (c *Client) Fetch(ctx context.Context, src Source) (any, error) {
	var (
		payload  any
		attempts int
	)
	operation := func() error {
		attempts++
		p, err := c.do(ctx, src)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		payload = p
		return nil
	}
	notify := func(err error, wait time.Duration) {
		c.logger.Debug("rest request failed, retrying",
			"source", src.Name,
			"attempt", attempts,
			"wait", wait,
			"error", err,
		)
	}

	b := backoff.WithContext(backoff.WithMaxRetries(&linearBackOff{step: c.backoff}, uint64(c.maxRetries)), ctx)
	var timer backoff.Timer
	if c.newTimer != nil {
		timer = c.newTimer()
	}

	if err := backoff.RetryNotifyWithTimer(operation, b, notify, timer); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &TransportError{Source: src.Name, Attempts: attempts, Err: err}
	}
	return payload, nil
}

// linearBackOff waits step × n before the n-th retry.
type linearBackOff struct {
	step    time.Duration
	attempt int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.attempt++
	return b.step * time.Duration(b.attempt)
}

func (b *linearBackOff) Reset() { b.attempt = 0 }

func (c *Client) do(ctx context.Context, src Source) (any, error) {
	timeout := src.Request.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := buildRequest(ctx, src.Request)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}

	return decodeBody(resp.Header.Get("Content-Type"), body)
}

func buildRequest(ctx context.Context, r Request) (*http.Request, error) {
	method := strings.ToUpper(r.Method)
	if method == "" {
		method = http.MethodGet
	}

	target, err := url.Parse(r.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing url: %w", err)
	}
	if len(r.Params) > 0 {
		q := target.Query()
		for k, v := range r.Params {
			q.Set(k, v)
		}
		target.RawQuery = q.Encode()
	}

	body, contentType, err := encodeBody(r.Body)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}
	for k, v := range authHeaders(r.Auth) {
		req.Header.Set(k, v)
	}

	return req, nil
}

// encodeBody returns the bytes to send and the content type to declare.
func encodeBody(body any) ([]byte, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case []byte:
		return b, "", nil
	case string:
		if json.Valid([]byte(b)) {
			return []byte(b), "application/json", nil
		}
		return []byte(b), "", nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, "", fmt.Errorf("encoding body: %w", err)
		}
		return data, "application/json", nil
	}
}

func authHeaders(a Auth) map[string]string {
	switch a.Kind {
	case AuthAPIKey:
		if a.Header == "" {
			return nil
		}
		return map[string]string{a.Header: a.Value}
	case AuthBearer:
		return map[string]string{"Authorization": "Bearer " + a.Token}
	case AuthBasic:
		raw := a.Username + ":" + a.Password
		return map[string]string{"Authorization": "Basic " + base64.StdEncoding.EncodeToString([]byte(raw))}
	default:
		return nil
	}
}

func decodeBody(contentType string, body []byte) (any, error) {
	text := strings.TrimSpace(string(body))
	if strings.Contains(contentType, "application/json") ||
		strings.HasPrefix(text, "{") || strings.HasPrefix(text, "[") {
		var payload any
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, fmt.Errorf("decoding json: %w", err)
		}
		return payload, nil
	}
	return map[string]any{RawKey: string(body)}, nil
}
