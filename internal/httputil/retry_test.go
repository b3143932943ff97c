// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	// Use a tiny base delay so tests finish quickly.
	RetryBaseDelay = 1 * time.Millisecond
}

func TestRetry_ImmediateSuccess(t *testing.T) {
	calls := 0
	v, err := Retry(context.Background(), 5, func(context.Context) (string, error) {
		calls++
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 1, calls)
}

func TestRetry_TransientThenSuccess(t *testing.T) {
	calls := 0
	v, err := Retry(context.Background(), 5, func(context.Context) (int, error) {
		calls++
		if calls <= 2 {
			return 0, &TransientError{StatusCode: http.StatusTooManyRequests, Err: errors.New("slow down")}
		}
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 3, calls)
}

func TestRetry_ExhaustsRetries(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), 3, func(context.Context) (int, error) {
		calls++
		return 0, &TransientError{StatusCode: http.StatusServiceUnavailable, Err: errors.New("overloaded")}
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 retries")
	assert.True(t, IsTransient(err))
	// 1 initial + 3 retries = 4 total calls.
	assert.Equal(t, 4, calls)
}

func TestRetry_DefaultMaxRetries(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), -1, func(context.Context) (int, error) {
		calls++
		return 0, context.DeadlineExceeded
	})
	require.Error(t, err)
	// 1 initial + 3 default retries = 4 total calls.
	assert.Equal(t, 4, calls)
}

func TestRetry_ZeroMaxRetriesMakesOneAttempt(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), 0, func(context.Context) (int, error) {
		calls++
		return 0, &TransientError{StatusCode: http.StatusTooManyRequests, Err: errors.New("slow down")}
	})
	require.Error(t, err)
	assert.True(t, IsTransient(err))
	assert.Equal(t, 1, calls)
}

func TestRetry_PermanentErrorNotRetried(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), 5, func(context.Context) (int, error) {
		calls++
		return 0, errors.New("bad request")
	})
	require.EqualError(t, err, "bad request")
	assert.Equal(t, 1, calls)
}

func TestRetry_ContextCancelled(t *testing.T) {
	// Use a longer base delay so the context cancels during the wait.
	old := RetryBaseDelay
	RetryBaseDelay = 500 * time.Millisecond
	defer func() { RetryBaseDelay = old }()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := Retry(ctx, 5, func(context.Context) (int, error) {
		return 0, &TransientError{Err: errors.New("rate limited")}
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("boom"), false},
		{"transient", &TransientError{Err: errors.New("x")}, true},
		{"wrapped transient", fmt.Errorf("calling: %w", &TransientError{Err: errors.New("x")}), true},
		{"deadline", fmt.Errorf("request: %w", context.DeadlineExceeded), true},
		{"cancelled", context.Canceled, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestCheckResponse(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		retryAfter    string
		wantErr       bool
		wantTransient bool
		wantWait      time.Duration
	}{
		{name: "ok", status: http.StatusOK},
		{name: "rate limited", status: http.StatusTooManyRequests, retryAfter: "7", wantErr: true, wantTransient: true, wantWait: 7 * time.Second},
		{name: "server error", status: http.StatusBadGateway, wantErr: true, wantTransient: true},
		{name: "bad request", status: http.StatusBadRequest, wantErr: true},
		{name: "unauthorized", status: http.StatusUnauthorized, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				if tt.retryAfter != "" {
					w.Header().Set("Retry-After", tt.retryAfter)
				}
				w.WriteHeader(tt.status)
				io.WriteString(w, "details")
			}))
			defer ts.Close()

			resp, err := ts.Client().Get(ts.URL)
			require.NoError(t, err)
			defer resp.Body.Close()

			err = CheckResponse(resp)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), "details"))
			assert.Equal(t, tt.wantTransient, IsTransient(err))

			var te *TransientError
			if errors.As(err, &te) {
				assert.Equal(t, tt.status, te.StatusCode)
				assert.Equal(t, tt.wantWait, te.RetryAfter)
			}
		})
	}
}
