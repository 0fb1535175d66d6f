package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"

	"github.com/shelfsync/backend/internal/domain"
	"github.com/shelfsync/backend/internal/infrastructure/logger"
)

// Default client settings
const (
	DefaultUserAgent      = "Mozilla/5.0 (compatible; ShelfSync/1.0)"
	DefaultAcceptLanguage = "bg-BG,bg;q=0.9,en;q=0.8"
	defaultTimeout        = 30 * time.Second
	defaultRatePerSecond  = 1.0
	defaultBurst          = 2
	defaultMaxRetries     = 3
	defaultMaxBodyBytes   = 10 << 20
)

// ClientConfig holds configuration for the page client
type ClientConfig struct {
	UserAgent         string
	AcceptLanguage    string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	MaxRetries        int
	MaxBodyBytes      int64
}

// Client fetches catalog pages over HTTP. Requests are paced by a shared
// rate limiter and retried on transient failures.
type Client struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	config      ClientConfig
	logger      logger.Logger
	backoff     func(attempt int) time.Duration
}

// NewClient creates a new page client
func NewClient(config ClientConfig, log logger.Logger) *Client {
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}
	if config.AcceptLanguage == "" {
		config.AcceptLanguage = DefaultAcceptLanguage
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}
	if config.RequestsPerSecond <= 0 {
		config.RequestsPerSecond = defaultRatePerSecond
	}
	if config.Burst <= 0 {
		config.Burst = defaultBurst
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = defaultMaxRetries
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = defaultMaxBodyBytes
	}
	if log == nil {
		log = logger.NewNop()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		rateLimiter: rate.NewLimiter(rate.Limit(config.RequestsPerSecond), config.Burst),
		config:      config,
		logger:      log,
		backoff:     exponentialBackoff,
	}
}

// exponentialBackoff returns 500ms, 1s, 2s, ... for attempts 1, 2, 3, ...
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

// Fetch downloads the page at pageURL. A 404 answer is ErrPageNotFound;
// every other failure surviving the retries is ErrFetchFailure, or
// ErrRateLimited when the site kept answering 429.
func (c *Client) Fetch(ctx context.Context, pageURL string) (*domain.RawPage, error) {
	var lastErr error
	for attempt := 1; attempt <= c.config.MaxRetries; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		html, status, err := c.get(ctx, pageURL)
		switch {
		case err == nil && status == http.StatusOK:
			page, perr := domain.NewRawPage(pageURL, html)
			if perr != nil {
				return nil, fmt.Errorf("%w: %s: %v", domain.ErrFetchFailure, pageURL, perr)
			}
			return page, nil
		case err == nil && status == http.StatusNotFound:
			return nil, domain.ErrPageNotFound
		case err == nil && status == http.StatusTooManyRequests:
			lastErr = domain.ErrRateLimited
		case err == nil:
			lastErr = fmt.Errorf("%w: status %d", domain.ErrFetchFailure, status)
		default:
			lastErr = fmt.Errorf("%w: %v", domain.ErrFetchFailure, err)
		}

		c.logger.Warn("Page fetch attempt failed",
			logger.String("url", pageURL),
			logger.Int("attempt", attempt),
			logger.Error(lastErr),
		)
		if attempt == c.config.MaxRetries {
			break
		}
		if err := sleep(ctx, c.backoff(attempt)); err != nil {
			return nil, err
		}
	}

	c.logger.Error("All retries failed", logger.String("url", pageURL), logger.Error(lastErr))
	return nil, lastErr
}

// get performs one GET and returns the decoded body for a 200 answer.
func (c *Client) get(ctx context.Context, pageURL string) (string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", c.config.AcceptLanguage)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return "", resp.StatusCode, nil
	}

	// Legacy pages may still be served as windows-1251.
	body, err := charset.NewReader(io.LimitReader(resp.Body, c.config.MaxBodyBytes), resp.Header.Get("Content-Type"))
	if err != nil {
		return "", resp.StatusCode, fmt.Errorf("failed to decode body: %w", err)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", resp.StatusCode, fmt.Errorf("failed to read body: %w", err)
	}
	return strings.ToValidUTF8(string(data), "�"), resp.StatusCode, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
