package httputil

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/mreyes/confluence/pkg/logger"
	"github.com/mreyes/confluence/pkg/redis"
)

// Client is an HTTP client wrapper with retry, rate limiting and logging.
// External source clients perform all their requests through it.
type Client struct {
	httpClient   *http.Client
	logger       *logger.Logger
	retryConfig  RetryConfig
	rateLimiter  *redis.RateLimiter
	rateLimitCfg *redis.RateLimitConfig
	localLimiter *rate.Limiter
	userAgent    string
}

// RetryConfig holds retry configuration.
type RetryConfig struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Enabled      bool
}

// New creates a new HTTP client with default timeout and retry.
func New(log *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: log,
		retryConfig: RetryConfig{
			MaxRetries:   3,
			InitialDelay: 1 * time.Second,
			MaxDelay:     10 * time.Second,
			Enabled:      true,
		},
		userAgent: "confluence/1.0",
	}
}

// NewWithTimeout creates a client with custom timeout.
func NewWithTimeout(log *logger.Logger, timeout time.Duration) *Client {
	client := New(log)
	client.httpClient.Timeout = timeout
	return client
}

// WithRetry configures retry behavior.
func (c *Client) WithRetry(maxRetries int, initialDelay time.Duration) *Client {
	c.retryConfig.MaxRetries = maxRetries
	c.retryConfig.InitialDelay = initialDelay
	c.retryConfig.Enabled = true
	return c
}

// WithRateLimiter sets the shared Redis rate limiter for this client.
// When Redis is disabled the limiter degrades to a local token bucket
// derived from the same config, so a single process still throttles itself.
func (c *Client) WithRateLimiter(limiter *redis.RateLimiter, cfg redis.RateLimitConfig) *Client {
	c.rateLimiter = limiter
	c.rateLimitCfg = &cfg

	perSecond := float64(cfg.Limit) / cfg.Window.Seconds()
	c.localLimiter = rate.NewLimiter(rate.Limit(perSecond), cfg.Limit)
	return c
}

// WithUserAgent sets the User-Agent header sent with every request.
func (c *Client) WithUserAgent(ua string) *Client {
	c.userAgent = ua
	return c
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, targetURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create GET request: %w", err)
	}

	return c.do(req)
}

// GetWithParams performs a GET request with query parameters.
func (c *Client) GetWithParams(ctx context.Context, targetURL string, params url.Values) (*http.Response, error) {
	if len(params) > 0 {
		targetURL = fmt.Sprintf("%s?%s", targetURL, params.Encode())
	}
	return c.Get(ctx, targetURL)
}

// do executes the request with rate limiting, retry and logging.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	startTime := time.Now()
	reqURL := req.URL.String()

	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	if err := c.waitForSlot(req.Context()); err != nil {
		return nil, fmt.Errorf("rate limit wait failed: %w", err)
	}

	c.logger.WithFields(map[string]interface{}{
		"method": req.Method,
		"url":    reqURL,
	}).Debug("HTTP request started")

	var resp *http.Response
	var err error
	if c.retryConfig.Enabled {
		resp, err = c.doWithRetry(req)
	} else {
		resp, err = c.httpClient.Do(req)
	}

	duration := time.Since(startTime)

	if err != nil {
		c.logger.WithFields(map[string]interface{}{
			"method":   req.Method,
			"url":      reqURL,
			"duration": duration,
			"error":    err.Error(),
		}).Error("HTTP request failed")
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"method":      req.Method,
		"url":         reqURL,
		"status_code": resp.StatusCode,
		"duration":    duration,
	}).Debug("HTTP request completed")

	return resp, nil
}

// waitForSlot blocks until the request is allowed by the configured limiter.
func (c *Client) waitForSlot(ctx context.Context) error {
	if c.rateLimiter != nil && c.rateLimitCfg != nil && c.rateLimiter.Enabled() {
		return c.rateLimiter.Wait(ctx, *c.rateLimitCfg)
	}
	if c.localLimiter != nil {
		return c.localLimiter.Wait(ctx)
	}
	return nil
}

// doWithRetry executes the request with exponential backoff retry.
func (c *Client) doWithRetry(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	var err error

	delay := c.retryConfig.InitialDelay

	for attempt := 0; attempt <= c.retryConfig.MaxRetries; attempt++ {
		resp, err = c.httpClient.Do(req)

		if err == nil && !IsRetryableStatus(resp.StatusCode) {
			return resp, nil
		}

		if attempt == c.retryConfig.MaxRetries {
			break
		}

		if resp != nil {
			resp.Body.Close()
		}

		c.logger.WithFields(map[string]interface{}{
			"attempt": attempt + 1,
			"delay":   delay,
			"url":     req.URL.String(),
		}).Warn("Retrying HTTP request")

		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(delay):
		}

		delay *= 2
		if delay > c.retryConfig.MaxDelay {
			delay = c.retryConfig.MaxDelay
		}
	}

	return resp, err
}

// IsRetryableStatus reports whether a status code should be retried.
func IsRetryableStatus(statusCode int) bool {
	// Retry on 5xx server errors and 429 Too Many Requests
	return statusCode >= 500 || statusCode == http.StatusTooManyRequests
}
