package worldbank

// Package worldbank contains the client for the World Bank Indicators API (v2)
// This file is the transport layer - rate limiting, circuit breaker, retries and logging
// It knows nothing about indicators, see indicators.go for the typed endpoint

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"vizboard/internal/infra/log"
	"vizboard/internal/infra/retry"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL - public World Bank API
	DefaultBaseURL = "https://api.worldbank.org/v2"

	defaultPerPage         = 1000
	defaultMaxResponseSize = 20 * 1024 * 1024
)

// Options configures a Client. Zero values pick sane defaults.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	RateLimit  float64 // requests per second, 0 disables limiting
	PerPage    int
	HTTPClient *http.Client // overrides Timeout when set
}

// Client talks to the World Bank API
type Client struct {
	baseURL         string
	httpClient      *http.Client
	rateLimiter     *rate.Limiter
	circuitBreaker  *gobreaker.CircuitBreaker
	retry           retry.Options
	perPage         int
	maxResponseSize int64
}

// NewClient creates a Client ready to use
func NewClient(opts Options) *Client {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:           http.ProxyFromEnvironment,
				MaxIdleConns:    10,
				IdleConnTimeout: 90 * time.Second,
			},
		}
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}

	perPage := opts.PerPage
	if perPage <= 0 {
		perPage = defaultPerPage
	}

	maxRetries := opts.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	return &Client{
		baseURL:     baseURL,
		httpClient:  httpClient,
		rateLimiter: limiter,
		circuitBreaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "WorldBankAPI",
			MaxRequests: 1,
			Interval:    60 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures > 5
			},
		}),
		retry: retry.Options{
			MaxRetries: maxRetries,
			BaseDelay:  300 * time.Millisecond,
			MaxDelay:   5 * time.Second,
			OnRetry: func(attempt int, err error, sleep time.Duration) {
				log.LogWarn("Retrying World Bank request",
					zap.Int("attempt", attempt),
					zap.Duration("sleep", sleep),
					zap.Error(err))
			},
		},
		perPage:         perPage,
		maxResponseSize: defaultMaxResponseSize,
	}
}

// get performs a GET against baseURL+endpoint with retries, returning the raw body
func (c *Client) get(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	requestID := log.GenerateRequestID()
	startTime := time.Now()

	target := c.baseURL + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body []byte
	err := retry.Do(ctx, c.retry, func() error {
		if c.rateLimiter != nil {
			if err := c.rateLimiter.Wait(ctx); err != nil {
				return fmt.Errorf("rate limiter wait failed: %w", err)
			}
		}

		result, err := c.circuitBreaker.Execute(func() (interface{}, error) {
			return c.do(ctx, requestID, target)
		})
		if err != nil {
			return err
		}
		body = result.([]byte)
		return nil
	})

	duration := time.Since(startTime).Milliseconds()
	if err != nil {
		statusCode := 0
		var he *retry.HTTPError
		if errors.As(err, &he) {
			statusCode = he.StatusCode
		}
		log.LogResponse(requestID, statusCode, duration, zap.String("endpoint", endpoint))
		return nil, fmt.Errorf("world bank GET %s failed: %w", endpoint, err)
	}

	log.LogResponse(requestID, http.StatusOK, duration,
		zap.String("endpoint", endpoint),
		zap.Int("bytes", len(body)))
	return body, nil
}

func (c *Client) do(ctx context.Context, requestID, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "vizboard/1.0")

	log.LogRequest(requestID, http.MethodGet, target)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(body)) > c.maxResponseSize {
		return nil, fmt.Errorf("response exceeds %d bytes", c.maxResponseSize)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, retry.NewHTTPError(resp, body)
	}
	return body, nil
}
