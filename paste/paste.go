// Package paste uploads text to a hastebin-style paste service.
package paste

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/go-pkgz/repeater/v2"
)

// ErrStatus is wrapped by errors for responses with a non-2xx status.
var ErrStatus = errors.New("unexpected status")

// maxResponse bounds the size of responses read from the service.
const maxResponse = 64 << 10

// Client uploads documents to a paste service.
type Client struct {
	endpoint string
	http     *http.Client

	// attempts and delay configure retries.
	attempts int
	delay    time.Duration
}

// New creates a client for the service at endpoint. Each request is limited
// to timeout.
func New(endpoint string, timeout time.Duration) *Client {
	return &Client{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		http:     &http.Client{Timeout: timeout},
		attempts: 5,
		delay:    250 * time.Millisecond,
	}
}

// Publish uploads text and returns the URL of the created document.
// Transport errors and server errors are retried with backoff.
func (c *Client) Publish(ctx context.Context, text string) (string, error) {
	var key string
	var permanent, last error
	retrier := repeater.NewBackoff(c.attempts, c.delay, repeater.WithMaxDelay(5*time.Second))
	err := retrier.Do(ctx, func() error {
		k, retry, err := c.upload(ctx, text)
		if err != nil && !retry {
			permanent = err
			return nil
		}
		key, last = k, err
		return err
	})
	if permanent != nil {
		return "", permanent
	}
	if err != nil {
		if last != nil && ctx.Err() == nil {
			return "", last
		}
		return "", err
	}
	return c.endpoint + "/" + key, nil
}

// upload makes a single attempt at uploading text. The boolean reports
// whether a failure may succeed on retry.
func (c *Client) upload(ctx context.Context, text string) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/documents", strings.NewReader(text))
	if err != nil {
		return "", false, fmt.Errorf("couldn't create request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	resp, err := c.http.Do(req)
	if err != nil {
		return "", ctx.Err() == nil, fmt.Errorf("couldn't upload document: %w", err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxResponse))
	if err != nil {
		return "", true, fmt.Errorf("couldn't read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("%w %d: %s", ErrStatus, resp.StatusCode, strings.TrimSpace(string(b)))
		return "", resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests, err
	}
	var doc struct {
		Key string `json:"key"`
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return "", false, fmt.Errorf("couldn't decode response: %w", err)
	}
	if doc.Key == "" {
		return "", false, errors.New("response has no document key")
	}
	return doc.Key, false, nil
}
