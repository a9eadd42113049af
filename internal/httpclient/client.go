package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

// Client wraps http.Client with rate limiting and retries.
type Client struct {
	HTTPClient *http.Client
	Limiter    *rate.Limiter

	initialInterval time.Duration
	maxRetryTime    time.Duration
}

// Options holds options for creating a new Client.
type Options struct {
	Timeout         time.Duration
	RequestsPerSec  int
	InitialInterval time.Duration
	MaxRetryTime    time.Duration
	Proxy           string
}

// New creates a new HTTP client with rate limiting.
func New(opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RequestsPerSec == 0 {
		opts.RequestsPerSec = 5
	}
	if opts.InitialInterval == 0 {
		opts.InitialInterval = 500 * time.Millisecond
	}
	if opts.MaxRetryTime == 0 {
		opts.MaxRetryTime = 30 * time.Second
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.Proxy != "" {
		if u, err := url.Parse(opts.Proxy); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}

	return &Client{
		HTTPClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		Limiter:         rate.NewLimiter(rate.Limit(opts.RequestsPerSec), opts.RequestsPerSec),
		initialInterval: opts.InitialInterval,
		maxRetryTime:    opts.MaxRetryTime,
	}
}

// StatusError represents a non-200 response.
type StatusError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("unexpected status %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

// Retryable reports whether the request may succeed if repeated.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

const maxErrorBody = 256

// Get performs a GET and returns the body of a 200 response. Network
// errors, 429 and 5xx are retried with exponential backoff; other
// statuses fail immediately.
func (c *Client) Get(ctx context.Context, rawURL string, header http.Header) ([]byte, error) {
	var body []byte
	operation := func() error {
		if err := c.Limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("creating request: %w", err))
		}
		for k, vs := range header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		defer resp.Body.Close()

		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading response body: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			if len(b) > maxErrorBody {
				b = b[:maxErrorBody]
			}
			statusErr := &StatusError{StatusCode: resp.StatusCode, Body: string(b)}
			if statusErr.Retryable() {
				return statusErr
			}
			return backoff.Permanent(statusErr)
		}
		body = b
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.initialInterval
	bo.MaxElapsedTime = c.maxRetryTime

	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return nil, err
	}
	return body, nil
}
