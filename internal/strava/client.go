package strava

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/oauth2"
)

const BaseURL = "https://www.strava.com/api/v3"

// MaxPerPage is the largest page Strava serves
const MaxPerPage = 100

// Client is a Strava API client
type Client struct {
	httpClient  *http.Client
	baseURL     string
	rateLimiter *RateLimiter
	breaker     *gobreaker.CircuitBreaker
}

// Option customises a Client
type Option func(*clientOptions)

type clientOptions struct {
	baseURL     string
	httpClient  *http.Client
	interval    time.Duration
	maxFailures uint32
	openTimeout time.Duration
}

// WithBaseURL points the client at another API root
func WithBaseURL(u string) Option {
	return func(o *clientOptions) { o.baseURL = u }
}

// WithHTTPClient sets the transport used under the oauth2 wrapper
func WithHTTPClient(c *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = c }
}

// WithRequestInterval sets the minimum spacing between requests; 0 disables pacing
func WithRequestInterval(d time.Duration) Option {
	return func(o *clientOptions) { o.interval = d }
}

// WithBreaker sets how many consecutive failures open the circuit and for how long
func WithBreaker(maxFailures uint32, openFor time.Duration) Option {
	return func(o *clientOptions) {
		o.maxFailures = maxFailures
		o.openTimeout = openFor
	}
}

// NewClient creates a new Strava API client
func NewClient(tokenSource oauth2.TokenSource, opts ...Option) *Client {
	o := clientOptions{
		baseURL:     BaseURL,
		interval:    DefaultRequestInterval,
		maxFailures: 5,
		openTimeout: 60 * time.Second,
	}
	for _, opt := range opts {
		opt(&o)
	}

	ctx := context.Background()
	if o.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, o.httpClient)
	}

	maxFailures := o.maxFailures
	settings := gobreaker.Settings{
		Name:    "strava",
		Timeout: o.openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		// Client errors say nothing about Strava's health
		IsSuccessful: func(err error) bool {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return !apiErr.Temporary()
			}
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	}

	return &Client{
		httpClient:  oauth2.NewClient(ctx, tokenSource),
		baseURL:     o.baseURL,
		rateLimiter: NewRateLimiter(o.interval),
		breaker:     gobreaker.NewCircuitBreaker(settings),
	}
}

// GetActivities fetches activities with pagination
// Returns activities after 'after' timestamp, up to 'perPage' results
func (c *Client) GetActivities(ctx context.Context, after time.Time, page, perPage int) ([]Activity, error) {
	params := url.Values{}
	if !after.IsZero() {
		params.Set("after", strconv.FormatInt(after.Unix(), 10))
	}
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(perPage))

	var activities []Activity
	if err := c.getJSON(ctx, "/athlete/activities", params, &activities); err != nil {
		return nil, fmt.Errorf("fetching activities: %w", err)
	}
	return activities, nil
}

// RateLimitStatus returns the current rate limit status
func (c *Client) RateLimitStatus() (shortRemaining, dailyRemaining int) {
	return c.rateLimiter.Status()
}

// BreakerState reports whether API calls are currently short-circuited
func (c *Client) BreakerState() gobreaker.State {
	return c.breaker.State()
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return err
	}

	_, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.get(ctx, path, params)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", path, err)
		}
		return nil, nil
	})
	return err
}

func (c *Client) get(ctx context.Context, path string, params url.Values) (*http.Response, error) {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	// Update rate limiter from response headers
	c.rateLimiter.UpdateFromHeaders(resp.Header)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	log.Debug().Str("path", path).Int("status", resp.StatusCode).Msg("strava request")
	return resp, nil
}
