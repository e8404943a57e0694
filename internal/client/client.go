// Package client is the typed REST client the storefront front ends use.
// GET responses are cached by resource tag; mutations drop the tags they
// affect.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      *Cache
	logger     *slog.Logger

	mu    sync.RWMutex
	token string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.httpClient = hc } }
func WithLogger(l *slog.Logger) Option      { return func(c *Client) { c.logger = l } }

func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		cache:  NewCache(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) Cache() *Cache { return c.cache }

// SetToken switches the session. Cached responses belong to the previous
// session and are dropped.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	changed := c.token != token
	c.token = token
	c.mu.Unlock()
	if changed {
		c.cache.Reset()
	}
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	return req, nil
}

// do sends req and returns the body of a 2xx response.
func (c *Client) do(req *http.Request) ([]byte, error) {
	l := c.logger.With("method", req.Method, "path", req.URL.Path)
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		l.Warn("request_failed", "reason", "no response", "error", err)
		return nil, &APIError{Message: FallbackMessage, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		l.Warn("request_failed", "status", resp.StatusCode, "reason", "cannot read body", "error", err)
		return nil, &APIError{Status: resp.StatusCode, Message: FallbackMessage, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		ae := apiError(resp.StatusCode, body)
		l.Warn("request_failed", "status", resp.StatusCode, "reason", ae.Message)
		return nil, ae
	}

	l.Debug("request_completed", "status", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds())
	return body, nil
}

func decode(body []byte, out any) error {
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &APIError{Message: FallbackMessage, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// get serves path from the cache when possible and caches the response under
// tags otherwise.
func (c *Client) get(ctx context.Context, path string, out any, tags ...string) error {
	if body, ok := c.cache.Get(path); ok {
		return decode(body, out)
	}

	req, err := c.newRequest(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return err
	}
	body, err := c.do(req)
	if err != nil {
		return err
	}
	if err := decode(body, out); err != nil {
		return err
	}
	c.cache.Put(path, body, tags...)
	return nil
}

// send issues a mutation and drops invalidate from the cache on success.
func (c *Client) send(ctx context.Context, method, path string, in, out any, invalidate ...string) error {
	var rdr io.Reader
	contentType := ""
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(raw)
		contentType = "application/json"
	}

	req, err := c.newRequest(ctx, method, path, rdr, contentType)
	if err != nil {
		return err
	}
	return c.finish(req, out, invalidate...)
}

func (c *Client) finish(req *http.Request, out any, invalidate ...string) error {
	body, err := c.do(req)
	if err != nil {
		return err
	}
	if len(invalidate) > 0 {
		c.cache.Invalidate(invalidate...)
	}
	return decode(body, out)
}
