package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"
	"agrihub/internal/platform/config"
)

const TenantHeader = "X-Tenant-ID"

// StatusError is an upstream response outside the 2xx range. Proxy handlers
// forward the status and a bounded slice of the body.
type StatusError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned HTTP %d", e.Service, e.StatusCode)
}

// UnavailableError is a network-level failure reaching the upstream.
type UnavailableError struct {
	Service string
	Err     error
	Timeout bool
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Service, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// Request describes one forwarded call.
type Request struct {
	Method   string
	Path     string
	Query    url.Values
	Body     interface{}
	TenantID string
	Headers  map[string]string
}

// Client forwards requests to one named upstream service, propagating the
// tenant identifier and the service API key, bounded by the configured
// timeout.
type Client struct {
	name   string
	base   string
	apiKey string
	keyHdr string
	client *http.Client
}

func New(name string, cfg config.UpstreamConfig) *Client {
	keyHdr := cfg.APIKeyHeader
	if keyHdr == "" {
		keyHdr = "X-API-Key"
	}
	return &Client{
		name:   name,
		base:   cfg.URL,
		apiKey: cfg.APIKey,
		keyHdr: keyHdr,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *Client) Name() string { return c.name }

// Do forwards the request and returns the raw JSON response body.
func (c *Client) Do(ctx context.Context, r Request) (json.RawMessage, error) {
	u := c.base + r.Path
	if len(r.Query) > 0 {
		u += "?" + r.Query.Encode()
	}

	var bodyReader io.Reader
	if r.Body != nil {
		encoded, err := json.Marshal(r.Body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, u, bodyReader)
	if err != nil {
		return nil, err
	}

	if r.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set(c.keyHdr, c.apiKey)
	}
	if r.TenantID != "" {
		req.Header.Set(TenantHeader, r.TenantID)
	}
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		timeout := isTimeout(err)
		log.Warn().Err(err).Str("service", c.name).Str("path", r.Path).
			Bool("timeout", timeout).Msg("upstream call failed")
		return nil, &UnavailableError{Service: c.name, Err: err, Timeout: timeout}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, &UnavailableError{Service: c.name, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{
			Service:    c.name,
			StatusCode: resp.StatusCode,
			Body:       truncate(string(raw), 500),
		}
	}

	return raw, nil
}

// Ping probes the upstream's health endpoint. The caller bounds it through
// the context deadline.
func (c *Client) Ping(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &UnavailableError{Service: c.name, Err: err, Timeout: isTimeout(err)}
	}
	resp.Body.Close()

	if resp.StatusCode >= 400 {
		return &StatusError{Service: c.name, StatusCode: resp.StatusCode}
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
