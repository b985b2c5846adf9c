package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"medilocator/internal/platform/logger"
)

const (
	DefaultTimeout = 10 * time.Second

	maxBody = 1 << 20
)

type Options struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string

	// Transport opcional (tests).
	Transport http.RoundTripper
	Logger    logger.Logger
}

// Client hace GETs JSON contra una API con base fija.
type Client struct {
	http      *http.Client
	base      *url.URL
	userAgent string
	log       logger.Logger
}

func New(opts Options) (*Client, error) {
	raw := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	base, err := url.ParseRequestURI(raw)
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("httpclient: invalid base url %q", opts.BaseURL)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	return &Client{
		http:      &http.Client{Timeout: timeout, Transport: opts.Transport},
		base:      base,
		userAgent: opts.UserAgent,
		log:       log,
	}, nil
}

// StatusError es una respuesta no-2xx.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("http status %d", e.Code)
	}
	return fmt.Sprintf("http status %d: %s", e.Code, e.Body)
}

// StatusCode devuelve el código de un *StatusError, o 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

// Get hace GET base+path?query y decodifica el JSON en out (si out != nil).
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.endpoint(path, query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("httpclient: new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: get %s: %w", path, err)
	}
	defer resp.Body.Close()

	c.log.Debug("api request", map[string]any{
		"url":        u,
		"status":     resp.StatusCode,
		"latency_ms": time.Since(start).Milliseconds(),
	})

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.base
	u.Path = c.base.Path + "/" + strings.TrimLeft(path, "/")
	u.RawQuery = query.Encode()
	return u.String()
}
