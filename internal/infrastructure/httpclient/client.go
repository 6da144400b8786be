package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/SectionPortal/backend/internal/infrastructure/resilience"
)

var (
	// ErrNotFound is returned for a 404; it does not count against the breaker
	ErrNotFound = errors.New("resource not found")
	// ErrUnexpectedStatus is returned for any other non-2xx status
	ErrUnexpectedStatus = errors.New("unexpected status")
	// ErrBodyTooLarge is returned when a response exceeds Config.MaxBodyBytes
	ErrBodyTooLarge = errors.New("response body too large")
)

// Config defines client behavior
type Config struct {
	Timeout      time.Duration
	RateLimit    float64 // requests per second, <= 0 means unlimited
	MaxBodyBytes int
	UserAgent    string
	BreakerName  string
	// OnBreakerChange observes breaker transitions (metrics, logs)
	OnBreakerChange func(name string, from, to resilience.State)
}

// DefaultConfig returns the configuration used for catalog fetches
func DefaultConfig() Config {
	return Config{
		Timeout:      10 * time.Second,
		MaxBodyBytes: 1 * 1024 * 1024,
		UserAgent:    "SectionPortal-Catalog/1.0",
		BreakerName:  "catalog-http",
	}
}

// Client wraps resty with rate limiting and a circuit breaker.
//
// Requests are made exactly once: retries are disabled on both resty and the
// retryablehttp round tripper underneath. Re-trying is the user's call.
type Client struct {
	resty   *resty.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
	maxBody int
	mu      sync.RWMutex
}

// New creates a single-attempt HTTP client
func New(cfg Config) *Client {
	if cfg.BreakerName == "" {
		cfg.BreakerName = "http"
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 0
	retryClient.Logger = nil
	// Hand non-2xx responses back untouched; status handling happens here
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	restyClient := resty.NewWithClient(retryClient.StandardClient()).
		SetRetryCount(0).
		SetHeader("Accept", "application/json")
	if cfg.Timeout > 0 {
		restyClient.SetTimeout(cfg.Timeout)
	}
	if cfg.UserAgent != "" {
		restyClient.SetHeader("User-Agent", cfg.UserAgent)
	}

	breaker := resilience.New(cfg.BreakerName, resilience.Settings{
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5 ||
				(counts.Requests >= 20 && float64(counts.TotalFailures)/float64(counts.Requests) > 0.5)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled)
		},
		OnStateChange: cfg.OnBreakerChange,
	})

	c := &Client{
		resty:   restyClient,
		breaker: breaker,
		maxBody: cfg.MaxBodyBytes,
	}
	c.SetRateLimit(cfg.RateLimit)
	return c
}

// SetRateLimit configures rate limiting (requests per second)
func (c *Client) SetRateLimit(rps float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rps <= 0 {
		c.limiter = rate.NewLimiter(rate.Inf, 0)
		return
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
}

// SetHeader adds a default header
func (c *Client) SetHeader(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resty.SetHeader(key, value)
}

// GetBytes performs one GET and returns the body of a 2xx response
func (c *Client) GetBytes(ctx context.Context, url string) ([]byte, error) {
	c.mu.RLock()
	limiter := c.limiter
	c.mu.RUnlock()

	if err := limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	return resilience.Call(c.breaker, func() ([]byte, error) {
		c.mu.RLock()
		req := c.resty.R().SetContext(ctx)
		c.mu.RUnlock()

		resp, err := req.Get(url)
		if err != nil {
			return nil, fmt.Errorf("GET %s: %w", url, err)
		}

		switch code := resp.StatusCode(); {
		case code == http.StatusNotFound:
			return nil, fmt.Errorf("GET %s: %w", url, ErrNotFound)
		case code < 200 || code > 299:
			return nil, fmt.Errorf("GET %s: %w: %d", url, ErrUnexpectedStatus, code)
		}

		body := resp.Body()
		if c.maxBody > 0 && len(body) > c.maxBody {
			return nil, fmt.Errorf("GET %s: %w (%d bytes)", url, ErrBodyTooLarge, len(body))
		}
		return body, nil
	})
}

// BreakerState returns the current circuit breaker state
func (c *Client) BreakerState() resilience.State {
	return c.breaker.State()
}

// BreakerCounts returns circuit breaker statistics
func (c *Client) BreakerCounts() resilience.Counts {
	return c.breaker.Counts()
}
