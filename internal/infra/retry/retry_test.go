package retry_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vizboard/internal/infra/retry"
)

func TestDo_RetriesRetryableErrors(t *testing.T) {
	calls := 0
	var retried []int

	err := retry.Do(context.Background(), retry.Options{
		MaxRetries: 3,
		BaseDelay:  time.Millisecond,
		MaxDelay:   2 * time.Millisecond,
		OnRetry: func(attempt int, _ error, _ time.Duration) {
			retried = append(retried, attempt)
		},
	}, func() error {
		calls++
		if calls < 3 {
			return &retry.HTTPError{StatusCode: http.StatusServiceUnavailable}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestDo_StopsOnPermanentError(t *testing.T) {
	calls := 0
	permanent := &retry.HTTPError{StatusCode: http.StatusBadRequest, Body: []byte("bad")}

	err := retry.Do(context.Background(), retry.Options{MaxRetries: 5, BaseDelay: time.Millisecond}, func() error {
		calls++
		return permanent
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)

	var he *retry.HTTPError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, http.StatusBadRequest, he.StatusCode)
}

func TestDo_GivesUpAfterMaxRetries(t *testing.T) {
	calls := 0
	err := retry.Do(context.Background(), retry.Options{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}, func() error {
		calls++
		return &retry.HTTPError{StatusCode: http.StatusBadGateway}
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := retry.Do(ctx, retry.Options{}, func() error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, 3*time.Second, retry.ParseRetryAfter("3"))
	assert.Equal(t, time.Duration(0), retry.ParseRetryAfter(""))
	assert.Equal(t, time.Duration(0), retry.ParseRetryAfter("garbage"))
}

func TestFullJitterSleep_Bounded(t *testing.T) {
	for attempt := 0; attempt < 10; attempt++ {
		d := retry.FullJitterSleep(attempt, 10*time.Millisecond, 50*time.Millisecond)
		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, 50*time.Millisecond)
	}
	assert.Equal(t, time.Duration(0), retry.FullJitterSleep(1, 0, time.Second))
}
