// Package client is a Go SDK for the help-desk API. It applies the same
// access policy as the server before sending requests so callers fail
// fast, and persists the login session to a local state file.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
)

// HTTPError is returned for any non-2xx response. Body holds the raw
// response text.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Body)
}

// Client talks to the API. It is safe for concurrent use.
type Client struct {
	baseURL string
	state   *StateStore
	now     func() time.Time

	mu      sync.RWMutex
	session *Session
}

// Option customises a Client.
type Option func(*Client)

// WithStateStore persists the session and theme through store.
func WithStateStore(store *StateStore) Option {
	return func(c *Client) { c.state = store }
}

// WithClock overrides the clock used for resolution timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New builds a client for baseURL. If a state store is configured the
// previous session is restored from it; an incomplete one is dropped.
func New(baseURL string, opts ...Option) (*Client, error) {
	c := &Client{baseURL: strings.TrimRight(baseURL, "/"), now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	if c.state != nil {
		sess, err := c.state.LoadSession()
		if err != nil {
			return nil, err
		}
		if sess.Complete() {
			c.session = sess
		}
	}
	return c, nil
}

// Session returns the current session, or nil when logged out.
func (c *Client) Session() *Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return nil
	}
	copied := *c.session
	return &copied
}

func (c *Client) setSession(sess *Session) error {
	c.mu.Lock()
	c.session = sess
	c.mu.Unlock()
	if c.state == nil {
		return nil
	}
	if sess == nil {
		return c.state.ClearSession()
	}
	return c.state.SaveSession(sess)
}

func (c *Client) token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return ""
	}
	return c.session.Token
}

// envelope is the server's success wrapper.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

// do sends one request. Non-2xx yields *HTTPError. A 2xx JSON response
// is decoded into out, unwrapping the data envelope; anything else is
// ignored.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	raw, contentType, err := c.send(ctx, method, path, in)
	if err != nil {
		return err
	}
	if out == nil || len(raw) == 0 || !strings.HasPrefix(contentType, fiber.MIMEApplicationJSON) {
		return nil
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

// send performs the request and returns the raw body for 2xx responses.
func (c *Client) send(ctx context.Context, method, path string, in any) ([]byte, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	agent := fiber.AcquireAgent()
	req := agent.Request()
	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	agent.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	if token := c.token(); token != "" {
		agent.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	if in != nil {
		agent.JSON(in)
	}
	if deadline, ok := ctx.Deadline(); ok {
		agent.Timeout(time.Until(deadline))
	}
	if err := agent.Parse(); err != nil {
		fiber.ReleaseAgent(agent)
		return nil, "", err
	}

	resp := fiber.AcquireResponse()
	defer fiber.ReleaseResponse(resp)
	agent.SetResponse(resp)

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, "", errs[0]
	}
	if code < fiber.StatusOK || code >= fiber.StatusMultipleChoices {
		return nil, "", &HTTPError{Status: code, Body: string(bytes.TrimSpace(body))}
	}
	return body, string(resp.Header.ContentType()), nil
}
