package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseRetryAfter(t *testing.T) {
	require.Equal(t, 3*time.Second, ParseRetryAfter("3"))
	require.Equal(t, time.Duration(0), ParseRetryAfter(""))
	require.Equal(t, time.Duration(0), ParseRetryAfter("soon"))
	require.Equal(t, time.Duration(0), ParseRetryAfter("-5"))

	future := time.Now().Add(30 * time.Second).UTC().Format(time.RFC1123)
	d := ParseRetryAfter(future)
	require.Greater(t, d, 25*time.Second)
	require.LessOrEqual(t, d, 30*time.Second)

	// Dates in the past mean no further waiting.
	past := time.Now().Add(-time.Minute).UTC().Format(time.RFC1123)
	require.Equal(t, time.Duration(0), ParseRetryAfter(past))
}

func TestIsRetryable(t *testing.T) {
	require.True(t, IsRetryable(&HTTPError{StatusCode: 429}))
	require.True(t, IsRetryable(&HTTPError{StatusCode: 500}))
	require.True(t, IsRetryable(&HTTPError{StatusCode: 503}))
	require.False(t, IsRetryable(&HTTPError{StatusCode: 400}))
	require.False(t, IsRetryable(&HTTPError{StatusCode: 404}))
	require.False(t, IsRetryable(errors.New("dial tcp: timeout")))
	require.False(t, IsRetryable(nil))
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), Options{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}, func() error {
		attempts++
		if attempts < 3 {
			return &HTTPError{StatusCode: 503}
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, attempts)
}

func TestDoStopsOnNonRetryableError(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), Options{MaxRetries: 3, BaseDelay: time.Millisecond}, func() error {
		attempts++
		return &HTTPError{StatusCode: 404}
	})

	var he *HTTPError
	require.ErrorAs(t, err, &he)
	require.Equal(t, 404, he.StatusCode)
	require.Equal(t, 1, attempts)
}

func TestDoExhaustsRetriesAndReturnsLastError(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), Options{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}, func() error {
		attempts++
		return &HTTPError{StatusCode: 503}
	})
	require.Error(t, err)
	require.Equal(t, 3, attempts)
}

func TestDoRespectsRetryAfterOn429(t *testing.T) {
	attempts := 0
	start := time.Now()
	err := Do(context.Background(), Options{MaxRetries: 1, BaseDelay: time.Millisecond, MaxDelay: time.Second}, func() error {
		attempts++
		return &HTTPError{StatusCode: 429, RetryAfter: 60 * time.Millisecond}
	})
	require.Error(t, err)
	require.Equal(t, 2, attempts)
	// The Retry-After hint overrides the much shorter jittered backoff.
	require.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}

func TestDoReturnsContextError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(ctx, Options{MaxRetries: 3, BaseDelay: time.Millisecond}, func() error {
		return &HTTPError{StatusCode: 503}
	})
	require.ErrorIs(t, err, context.Canceled)
}
