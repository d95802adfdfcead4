package scrapers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"github.com/profiteer-io/profiteer-api/models"
)

// Marketplaces block obvious bots; rotating realistic desktop User-Agents
// keeps the block rate tolerable.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_5) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:126.0) Gecko/20100101 Firefox/126.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 14.5; rv:126.0) Gecko/20100101 Firefox/126.0",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
}

var (
	errBlocked     = errors.New("blocked by marketplace")
	errRateLimited = errors.New("rate limited by marketplace")
	errExhausted   = errors.New("all retries exhausted")
)

// client is the HTTP layer shared by all scrapers: User-Agent rotation,
// bounded retry with increasing delay for transient failures (timeouts,
// 5xx), and immediate classification of 403/429. Retrying those only
// burns the deadline budget and worsens blocking.
type client struct {
	http       *http.Client
	name       string
	maxRetries int
	baseDelay  time.Duration
}

func newClient(name string, timeout time.Duration, maxRetries int, baseDelay time.Duration) *client {
	return &client{
		http:       &http.Client{Timeout: timeout},
		name:       name,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
	}
}

// fetch GETs rawURL with the given query params and returns the body.
// Errors are classifiable via classifyError.
func (c *client) fetch(ctx context.Context, rawURL string, params url.Values) (string, error) {
	fullURL := rawURL
	if len(params) > 0 {
		fullURL = rawURL + "?" + params.Encode()
	}

	var lastErr error
	delay := c.baseDelay

	for attempt := 1; attempt <= c.maxRetries+1; attempt++ {
		body, retryable, err := c.doRequest(ctx, fullURL)
		if err == nil {
			return body, nil
		}
		if !retryable {
			return "", err
		}
		lastErr = err

		if attempt <= c.maxRetries {
			log.Printf("[%s] fetch failed (attempt %d/%d): %v, retrying in %v",
				c.name, attempt, c.maxRetries+1, err, delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
			delay *= 2
		}
	}

	return "", fmt.Errorf("%w: %v", errExhausted, lastErr)
}

// doRequest performs a single GET. The second return reports whether the
// failure is worth retrying.
func (c *client) doRequest(ctx context.Context, fullURL string) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return "", false, err
	}

	req.Header.Set("User-Agent", userAgents[rand.Intn(len(userAgents))])
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", false, ctx.Err()
		}
		// Transport errors (timeouts, resets) are transient.
		return "", true, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", true, err
		}
		return string(data), false, nil
	case resp.StatusCode == http.StatusForbidden:
		return "", false, errBlocked
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", false, errRateLimited
	case resp.StatusCode >= 500:
		return "", true, fmt.Errorf("HTTP %d", resp.StatusCode)
	default:
		return "", false, fmt.Errorf("unexpected HTTP %d", resp.StatusCode)
	}
}

// classifyError maps a fetch error onto the scrape status taxonomy.
func classifyError(err error) models.ScrapeStatus {
	switch {
	case errors.Is(err, errBlocked):
		return models.StatusBlocked
	case errors.Is(err, errRateLimited):
		return models.StatusRateLimited
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return models.StatusTimeout
	case errors.Is(err, errExhausted):
		// Only transient failures reach the retry budget.
		return models.StatusTimeout
	default:
		return models.StatusParseError
	}
}
