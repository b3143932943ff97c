// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the transient-failure taxonomy and retry loop
// shared by the model API backends.
package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// RetryBaseDelay controls the base duration for exponential backoff.
// Tests override this to avoid real sleeps.
var RetryBaseDelay = time.Second

const defaultMaxRetries = 3

// TransientError marks a failure worth retrying: rate limiting, a server
// error, or a timeout.
type TransientError struct {
	// StatusCode is the HTTP status, or 0 when the failure was not an HTTP response.
	StatusCode int

	// RetryAfter is the server-requested wait, or 0 when none was given.
	RetryAfter time.Duration

	Err error
}

func (e *TransientError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transient failure (HTTP %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("transient failure: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err should be retried. A per-attempt deadline
// and network timeouts count as transient; cancellation of the caller's
// context does not.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var te *TransientError
	if errors.As(err, &te) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// CheckResponse returns nil for a 2xx response. For 429 and 5xx it returns a
// *TransientError carrying any Retry-After hint; for other statuses a plain
// error. The body is read (and left unread for 2xx) but not closed.
func CheckResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	err := fmt.Errorf("API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return &TransientError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        err,
		}
	}
	return err
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// Retry calls fn until it succeeds, returns a non-transient error, or
// maxRetries retries are exhausted. The delay starts at RetryBaseDelay and
// doubles each attempt; a longer Retry-After hint wins. A maxRetries of 0
// makes a single attempt; a negative value selects the default (3). If ctx
// is cancelled during a wait, Retry returns ctx.Err().
func Retry[T any](ctx context.Context, maxRetries int, fn func(ctx context.Context) (T, error)) (T, error) {
	if maxRetries < 0 {
		maxRetries = defaultMaxRetries
	}

	var zero T
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * RetryBaseDelay
			var te *TransientError
			if errors.As(lastErr, &te) && te.RetryAfter > backoff {
				backoff = te.RetryAfter
			}
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(backoff):
			}
		}

		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if ctx.Err() != nil {
			return zero, err
		}
		if !IsTransient(err) {
			return zero, err
		}
		lastErr = err
	}
	return zero, fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}
