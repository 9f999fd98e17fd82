// Package clob implements the Polymarket CLOB protocol: credential
// derivation (L1), request signing (L2), order building/signing, and
// submission.
package clob

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://clob.polymarket.com"

	// CLOB /book: 500/10s documented; run at 60% of that.
	bookRatePerSec    = 30
	generalRatePerSec = 540

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond

	requestTimeout = 10 * time.Second
)

// Client is the unauthenticated CLOB HTTP client with rate limiting and
// bounded retries for idempotent reads.
type Client struct {
	http        *http.Client
	baseURL     string
	limiter     *rate.Limiter
	bookLimiter *rate.Limiter
}

// NewClient creates a Client. An empty baseURL selects production.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		http:        &http.Client{Timeout: requestTimeout},
		baseURL:     baseURL,
		limiter:     rate.NewLimiter(generalRatePerSec, 50),
		bookLimiter: rate.NewLimiter(bookRatePerSec, 5),
	}
}

// get performs a rate-limited GET with retries. Only used for reads, which
// are safe to repeat; order submission never goes through this path.
func (c *Client) get(ctx context.Context, limiter *rate.Limiter, url string, out any) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			if attempt == maxRetries {
				return fmt.Errorf("request failed after %d retries: %w", maxRetries, err)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			slog.Warn("rate limited by CLOB API", "attempt", attempt+1)
			c.sleep(ctx, attempt)
			continue
		}
		if resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt == maxRetries {
				return fmt.Errorf("server error %d after %d retries", resp.StatusCode, maxRetries)
			}
			c.sleep(ctx, attempt)
			continue
		}
		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return fmt.Errorf("client error %d: %s", resp.StatusCode, body)
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("exhausted %d retries", maxRetries)
}

// sleep waits with exponential backoff, respecting the context.
func (c *Client) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * baseRetryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}
