// Package geocode resolves location tokens through a Nominatim-style
// geocoding service with retry-on-transient-failure and a one-request-per-
// second cap.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

// Location is the address classification returned for a resolved query.
type Location struct {
	DisplayName string `json:"display_name"`
	AddressType string `json:"addresstype"`
}

// Config parameterizes the client. Zero values fall back to the upstream
// constants: 10s timeout, 3 retries, 1 request per second.
type Config struct {
	BaseURL           string
	UserAgent         string
	Timeout           time.Duration
	MaxRetries        int
	RequestsPerSecond float64
}

// Client calls the geocoding service. The retry policy is exponential
// backoff with uniform jitter (2^attempt + U(0,1) seconds); exhausting the
// retries yields (nil, nil), never an error, so a flaky geocoder degrades a
// field instead of failing a record.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	maxRetries int
	limiter    *rate.Limiter

	// injected for tests
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func() float64
}

// New builds a Client from cfg.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 1
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		userAgent:  cfg.UserAgent,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		maxRetries: cfg.MaxRetries,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		sleep:      sleepCtx,
		jitter:     rand.Float64,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// transientError marks a service failure worth retrying.
type transientError struct{ err error }

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Resolve geocodes one query. It blocks on the rate limiter before every
// request. Returns (nil, nil) when the query does not resolve or the
// transient retries are exhausted; a non-nil error only for terminal
// failures (bad request, cancelled context).
func (c *Client) Resolve(ctx context.Context, query string) (*Location, error) {
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		loc, err := c.lookup(ctx, query)
		if err == nil {
			return loc, nil
		}
		var te *transientError
		if !errors.As(err, &te) {
			return nil, err
		}
		wait := time.Duration((math.Pow(2, float64(attempt)) + c.jitter()) * float64(time.Second))
		if serr := c.sleep(ctx, wait); serr != nil {
			return nil, serr
		}
	}
	return nil, nil // resolution failure after max retries
}

func (c *Client) lookup(ctx context.Context, query string) (*Location, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "jsonv2")
	q.Set("addressdetails", "1")
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// timeouts and network failures are transient
		return nil, &transientError{err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, &transientError{fmt.Errorf("geocoder status %d", resp.StatusCode)}
	default:
		return nil, fmt.Errorf("geocoder status %d", resp.StatusCode)
	}

	var results []Location
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, &transientError{fmt.Errorf("geocoder response: %w", err)}
	}
	if len(results) == 0 {
		return nil, nil
	}
	return &results[0], nil
}
