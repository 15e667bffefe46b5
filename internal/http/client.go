package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	pkgerrors "github.com/handiism/epic-downloader/internal/errors"
	"github.com/handiism/epic-downloader/internal/logger"
)

// Options configures a Client.
type Options struct {
	// Timeout bounds a single request, body included.
	Timeout time.Duration

	// UserAgent is sent with every request.
	UserAgent string

	// MaxRetries is how many times a failed request is retried.
	MaxRetries int

	// RetryCooldown is the wait before the first retry.
	RetryCooldown time.Duration

	// RetryExponent multiplies the wait after each retry.
	RetryExponent float64

	// MaxRetryInterval caps a single wait. Zero means no cap.
	MaxRetryInterval time.Duration

	// BreakerThreshold is the number of consecutive failures that opens
	// a host's circuit.
	BreakerThreshold uint32

	// BreakerTimeout is how long an open circuit rejects requests.
	BreakerTimeout time.Duration

	// DisableBreaker sends every request regardless of earlier failures
	// on the same host.
	DisableBreaker bool
}

// DefaultOptions returns the options used by NewClient.
func DefaultOptions() Options {
	return Options{
		Timeout:          60 * time.Second,
		UserAgent:        "epic-downloader",
		MaxRetries:       2,
		RetryCooldown:    500 * time.Millisecond,
		RetryExponent:    2.0,
		MaxRetryInterval: 30 * time.Second,
		BreakerThreshold: 10,
		BreakerTimeout:   30 * time.Second,
	}
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Code, http.StatusText(e.Code))
}

// Is reports whether target is ErrUnexpectedStatus.
func (e *StatusError) Is(target error) bool {
	return target == pkgerrors.ErrUnexpectedStatus
}

// Client wraps HTTP operations with EPIC-specific configuration.
//
// Client provides:
//   - Configured User-Agent header
//   - Timeout handling
//   - Retries with exponential backoff on transport errors, 5xx and 429
//   - A circuit breaker per host, unless DisableBreaker is set
//
// Example usage:
//
//	client := NewClient(DefaultOptions())
//
//	// Fetch a JSON document
//	body, err := client.Get(ctx, "https://epic.gsfc.nasa.gov/api/natural/available?api_key=KEY")
//
//	// Stream an image into a writer
//	err = client.Stream(ctx, imageURL, func(body io.Reader, size int64) error {
//	    _, err := io.Copy(file, body)
//	    return err
//	})
type Client struct {
	httpClient *http.Client
	opts       Options

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewClient creates a new HTTP client.
func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultOptions().Timeout
	}
	if opts.RetryExponent < 1 {
		opts.RetryExponent = 1
	}
	if opts.BreakerThreshold == 0 {
		opts.BreakerThreshold = DefaultOptions().BreakerThreshold
	}
	if opts.BreakerTimeout <= 0 {
		opts.BreakerTimeout = DefaultOptions().BreakerTimeout
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		opts:     opts,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

// ProgressWriter wraps a writer to track download progress.
//
// Example:
//
//	pw := &ProgressWriter{
//	    Writer: file,
//	    Total:  contentLength,
//	    OnUpdate: func(chunk, written int64) {
//	        fmt.Printf("%d / %d bytes\n", written, contentLength)
//	    },
//	}
//	io.Copy(pw, body)
type ProgressWriter struct {
	// Writer is the underlying writer to write data to.
	Writer io.Writer

	// Total is the expected total bytes (from Content-Length header).
	Total int64

	// Written is the current number of bytes written.
	Written int64

	// OnUpdate is called after each Write with the size of the chunk
	// and the running total.
	OnUpdate func(chunk, written int64)
}

// Write implements io.Writer, tracking progress and calling OnUpdate.
func (pw *ProgressWriter) Write(p []byte) (int, error) {
	n, err := pw.Writer.Write(p)
	pw.Written += int64(n)
	if pw.OnUpdate != nil {
		pw.OnUpdate(int64(n), pw.Written)
	}
	return n, err
}

// Get performs a GET request and returns the response body as bytes.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	var body []byte
	err := c.Stream(ctx, rawURL, func(r io.Reader, _ int64) error {
		data, err := io.ReadAll(r)
		if err != nil {
			return err
		}
		body = data
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// Stream performs a GET request and hands the response body to consume.
//
// Transport errors, 5xx and 429 responses, and errors returned by consume
// are retried up to MaxRetries times. Consume errors matching ErrStorage fail
// at once, as do other non-2xx responses, which return a *StatusError.
// consume may be called more than once and must discard anything it
// produced on a previous attempt.
func (c *Client) Stream(ctx context.Context, rawURL string, consume func(body io.Reader, size int64) error) error {
	cb, err := c.breakerFor(rawURL)
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = c.attempt(ctx, cb, rawURL, consume)
		if lastErr == nil {
			return nil
		}
		if !retryable(ctx, lastErr) || attempt >= c.opts.MaxRetries {
			return lastErr
		}

		delay := c.backoff(attempt)
		logger.Debug("Retrying request", logger.Fields{
			"url":     Redact(rawURL),
			"attempt": attempt + 1,
			"delay":   delay.String(),
			"error":   lastErr.Error(),
		})

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (c *Client) attempt(ctx context.Context, cb *gobreaker.CircuitBreaker, rawURL string, consume func(io.Reader, int64) error) error {
	do := func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", c.opts.UserAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			var urlErr *url.Error
			if errors.As(err, &urlErr) {
				urlErr.URL = Redact(urlErr.URL)
			}
			return nil, err
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			resp.Body.Close()
			return nil, &StatusError{Code: resp.StatusCode, URL: Redact(rawURL)}
		}

		// Client errors are the caller's fault and do not count against the host.
		return resp, nil
	}

	var (
		result interface{}
		err    error
	)
	if cb == nil {
		result, err = do()
	} else {
		result, err = cb.Execute(do)
	}
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: %v", pkgerrors.ErrCircuitOpen, err)
		}
		return err
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return fmt.Errorf("unexpected result type from circuit breaker")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode, URL: Redact(rawURL)}
	}

	return consume(resp.Body, resp.ContentLength)
}

func (c *Client) backoff(attempt int) time.Duration {
	delay := time.Duration(float64(c.opts.RetryCooldown) * math.Pow(c.opts.RetryExponent, float64(attempt)))
	if c.opts.MaxRetryInterval > 0 && delay > c.opts.MaxRetryInterval {
		delay = c.opts.MaxRetryInterval
	}
	return delay
}

func (c *Client) breakerFor(rawURL string) (*gobreaker.CircuitBreaker, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	if u.Host == "" {
		return nil, fmt.Errorf("url %q has no host", Redact(rawURL))
	}

	if c.opts.DisableBreaker {
		return nil, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if cb, ok := c.breakers[u.Host]; ok {
		return cb, nil
	}

	threshold := c.opts.BreakerThreshold
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    u.Host,
		Timeout: c.opts.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed", logger.Fields{
				"host": name,
				"from": from.String(),
				"to":   to.String(),
			})
		},
	})
	c.breakers[u.Host] = cb
	return cb, nil
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if errors.Is(err, context.Canceled) ||
		errors.Is(err, pkgerrors.ErrCircuitOpen) ||
		errors.Is(err, pkgerrors.ErrStorage) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code == http.StatusTooManyRequests || statusErr.Code >= 500
	}
	return true
}

// Redact returns rawURL without its query string so API keys never reach
// logs or reports.
func Redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid url>"
	}
	u.RawQuery = ""
	return u.String()
}
