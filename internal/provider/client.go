package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is the rate-limited HTTP client shared by every history source.
// Each attempt waits on the limiter, runs under its own timeout, and 429
// responses are retried with doubling backoff up to maxRetries times.
type Client struct {
	http        *http.Client
	limiter     *RateLimiter
	timeout     time.Duration
	maxRetries  int
	backoffBase time.Duration
}

// NewClient creates a client. timeout is the per-attempt deadline and
// maxRetries bounds total attempts when every response is a 429.
func NewClient(limiter *RateLimiter, timeout time.Duration, maxRetries int) *Client {
	return &Client{
		http:        &http.Client{Timeout: timeout},
		limiter:     limiter,
		timeout:     timeout,
		maxRetries:  maxRetries,
		backoffBase: time.Second,
	}
}

// SetTransport replaces the underlying transport. Used by tests.
func (c *Client) SetTransport(rt http.RoundTripper) {
	c.http.Transport = rt
}

// GetJSON fetches url and unmarshals the response body into out.
func (c *Client) GetJSON(ctx context.Context, url string, out any) error {
	body, err := c.Do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse response from %s: %w", url, err)
	}
	return nil
}

// PostJSON sends payload as a JSON body and unmarshals the response into out.
func (c *Client) PostJSON(ctx context.Context, url string, payload, out any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request for %s: %w", url, err)
	}
	body, err := c.Do(ctx, http.MethodPost, url, raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse response from %s: %w", url, err)
	}
	return nil
}

// Do runs one rate-limited request, retrying on 429.
func (c *Client) Do(ctx context.Context, method, url string, payload []byte) ([]byte, error) {
	backoff := c.backoffBase
	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		body, status, err := c.doOnce(ctx, method, url, payload)
		if err != nil {
			return nil, &TransportError{Err: err}
		}
		if status == http.StatusTooManyRequests {
			if attempt+1 >= c.maxRetries {
				return nil, ErrRateLimited
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			continue
		}
		if status < 200 || status >= 300 {
			return nil, &HTTPError{StatusCode: status, Body: truncate(string(body), 256)}
		}
		return body, nil
	}
}

func (c *Client) doOnce(ctx context.Context, method, url string, payload []byte) ([]byte, int, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(attemptCtx, method, url, reader)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}
	return body, resp.StatusCode, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
