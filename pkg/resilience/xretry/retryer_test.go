package xretry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xmemo/pkg/resilience/xretry"
)

var errFlaky = errors.New("flaky")

func fastRetryer(attempts int, opts ...xretry.RetryerOption) *xretry.Retryer {
	base := []xretry.RetryerOption{
		xretry.WithRetryPolicy(xretry.NewFixedRetry(attempts)),
		xretry.WithBackoffPolicy(xretry.NewFixedBackoff(0)),
	}
	return xretry.NewRetryer(append(base, opts...)...)
}

func TestRetryer_SucceedsAfterFailures(t *testing.T) {
	var calls int
	var retried []int
	r := fastRetryer(3, xretry.WithOnRetry(func(attempt int, _ error) {
		retried = append(retried, attempt)
	}))

	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errFlaky
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestRetryer_ExhaustsAttempts(t *testing.T) {
	var calls int
	err := fastRetryer(2).Do(context.Background(), func(context.Context) error {
		calls++
		return errFlaky
	})

	require.ErrorIs(t, err, errFlaky)
	assert.Equal(t, 2, calls)
}

func TestRetryer_PermanentErrorStops(t *testing.T) {
	var calls int
	err := fastRetryer(5).Do(context.Background(), func(context.Context) error {
		calls++
		return xretry.NewPermanentError(errFlaky)
	})

	require.ErrorIs(t, err, errFlaky)
	assert.Equal(t, 1, calls)
}

func TestRetryer_NeverRetry(t *testing.T) {
	var calls int
	r := xretry.NewRetryer(xretry.WithRetryPolicy(xretry.NewNeverRetry()))
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		return errFlaky
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryer_NilGuards(t *testing.T) {
	var r *xretry.Retryer
	require.ErrorIs(t, r.Do(context.Background(), func(context.Context) error { return nil }), xretry.ErrNilRetryer)
	require.ErrorIs(t, xretry.NewRetryer().Do(context.Background(), nil), xretry.ErrNilFunc)
}

func TestExponentialBackoff(t *testing.T) {
	b := xretry.NewExponentialBackoff(
		xretry.WithInitialDelay(10*time.Millisecond),
		xretry.WithMultiplier(2),
		xretry.WithMaxDelay(50*time.Millisecond),
	)
	assert.Equal(t, 10*time.Millisecond, b.NextDelay(1))
	assert.Equal(t, 20*time.Millisecond, b.NextDelay(2))
	assert.Equal(t, 40*time.Millisecond, b.NextDelay(3))
	assert.Equal(t, 50*time.Millisecond, b.NextDelay(4))
	assert.Equal(t, 50*time.Millisecond, b.NextDelay(1000))
	assert.Equal(t, 10*time.Millisecond, b.NextDelay(0))
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, xretry.IsRetryable(nil))
	assert.True(t, xretry.IsRetryable(errFlaky))
	assert.False(t, xretry.IsRetryable(xretry.NewPermanentError(errFlaky)))
	assert.Equal(t, "permanent error", (&xretry.PermanentError{}).Error())
}
