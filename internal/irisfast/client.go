package irisfast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
)

var ErrEmptyRoom = errors.New("irisfast: room is required")

// HeaderProvider returns headers added to every bridge request.
type HeaderProvider func() map[string]string

// Client talks to the bridge's HTTP API.
type Client struct {
	baseURL string
	http    *fasthttp.Client
	headers HeaderProvider

	timeout     time.Duration
	attempts    int
	backoffBase time.Duration
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithMaxConnsPerHost(n int) Option {
	return func(c *Client) { c.http.MaxConnsPerHost = n }
}

func WithHeaderProvider(h HeaderProvider) Option {
	return func(c *Client) { c.headers = h }
}

// WithRetry sets the attempt count for idempotent calls.
func WithRetry(attempts int) Option {
	return func(c *Client) { c.attempts = attempts }
}

func WithBackoff(base time.Duration) Option {
	return func(c *Client) { c.backoffBase = base }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &fasthttp.Client{
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			MaxConnsPerHost: 64,
		},
		timeout:     10 * time.Second,
		attempts:    3,
		backoffBase: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.attempts < 1 {
		c.attempts = 1
	}
	return c
}

// GetConfig fetches the bridge configuration, retrying transient failures.
func (c *Client) GetConfig(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := c.call(ctx, fasthttp.MethodGet, "/config", nil, &cfg, c.attempts); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SendMessage posts a text reply. A reply is sent once; a retry could post it twice.
func (c *Client) SendMessage(ctx context.Context, room, message string) error {
	return c.reply(ctx, room, ReplyRequest{Type: "text", Room: room, Data: message})
}

func (c *Client) SendImage(ctx context.Context, room, imageBase64 string) error {
	return c.reply(ctx, room, ImageReplyRequest{Type: "image", Room: room, Data: imageBase64})
}

func (c *Client) reply(ctx context.Context, room string, body any) error {
	if strings.TrimSpace(room) == "" {
		return ErrEmptyRoom
	}
	return c.call(ctx, fasthttp.MethodPost, "/reply", body, nil, 1)
}

func (c *Client) call(ctx context.Context, method, path string, in, out any, attempts int) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	if err := c.prepare(req, method, path, in); err != nil {
		return err
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			if err := sleepCtx(ctx, c.backoff(attempt-1)); err != nil {
				return lastErr
			}
		}
		resp.Reset()

		retryable, err := c.roundTrip(ctx, req, resp)
		if err == nil {
			if out == nil {
				return nil
			}
			if err := json.Unmarshal(resp.Body(), out); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
			return nil
		}
		lastErr = err
		if !retryable {
			return err
		}
	}
	return lastErr
}

func (c *Client) prepare(req *fasthttp.Request, method, path string, in any) error {
	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	req.Header.SetContentType("application/json")
	if c.headers != nil {
		for k, v := range c.headers() {
			if strings.TrimSpace(k) == "" || strings.TrimSpace(v) == "" {
				continue
			}
			req.Header.Set(k, v)
		}
	}
	if in == nil {
		return nil
	}
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req.SetBody(payload)
	return nil
}

// roundTrip performs one attempt and reports whether a failure may be retried.
func (c *Client) roundTrip(ctx context.Context, req *fasthttp.Request, resp *fasthttp.Response) (bool, error) {
	if err := c.http.DoDeadline(req, resp, c.deadline(ctx)); err != nil {
		return true, fmt.Errorf("request failed: %w", err)
	}
	status := resp.StatusCode()
	if status >= 200 && status < 300 {
		return false, nil
	}
	return retryableStatus(status), &APIError{Status: status, Body: truncate(string(resp.Body()), 512)}
}

// APIError is a non-2xx response from the bridge.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("iris api error: status=%d body=%s", e.Status, e.Body)
}

func (c *Client) deadline(ctx context.Context) time.Time {
	own := time.Now().Add(c.timeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(own) {
		return dl
	}
	return own
}

// backoff doubles per retry and stops growing after the sixth.
func (c *Client) backoff(retry int) time.Duration {
	if retry > 6 {
		retry = 6
	}
	return c.backoffBase << uint(retry-1)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func retryableStatus(code int) bool {
	switch code {
	case fasthttp.StatusInternalServerError, fasthttp.StatusBadGateway,
		fasthttp.StatusServiceUnavailable, fasthttp.StatusGatewayTimeout:
		return true
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
