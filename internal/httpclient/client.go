// Package httpclient provides the rate-limited, retrying HTTP client shared
// by the catalog provider and the download worker.
package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/tunevault/tunevault/internal/constants"
)

const (
	DefaultUserAgent   = "tunevault/1.0 (https://github.com/tunevault/tunevault)"
	minRequestInterval = 250 * time.Millisecond
)

type Client struct {
	httpClient  *http.Client
	userAgent   string
	lastRequest time.Time
	mu          sync.Mutex
}

func New() *Client {
	return &Client{
		userAgent: DefaultUserAgent,
		httpClient: &http.Client{
			Timeout: constants.DefaultHTTPTimeout,
		},
	}
}

// GetJSON fetches url and decodes the JSON body into target.
func (c *Client) GetJSON(ctx context.Context, url string, target interface{}) error {
	resp, err := c.get(ctx, url)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request to %s returned status %d", url, resp.StatusCode)
	}

	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Stream fetches url and hands the body to the caller along with the
// reported content type. The caller owns closing the body.
func (c *Client) Stream(ctx context.Context, url string) (io.ReadCloser, string, error) {
	resp, err := c.get(ctx, url)
	if err != nil {
		return nil, "", err
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, "", fmt.Errorf("stream request to %s returned status %d", url, resp.StatusCode)
	}
	return resp.Body, resp.Header.Get("Content-Type"), nil
}

func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json, */*")

	return c.doWithRetry(ctx, req)
}

// doWithRetry serializes requests behind a minimum interval and retries
// transport failures with linear backoff.
func (c *Client) doWithRetry(ctx context.Context, req *http.Request) (*http.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var lastErr error
	for attempt := 0; attempt < constants.DefaultRetryCount; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if elapsed := time.Since(c.lastRequest); elapsed < minRequestInterval {
			time.Sleep(minRequestInterval - elapsed)
		}
		c.lastRequest = time.Now()

		resp, err := c.httpClient.Do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		time.Sleep(time.Duration(attempt+1) * constants.DefaultRetryBase)
	}
	return nil, lastErr
}
