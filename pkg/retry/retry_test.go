package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/fleetops/trailer-swap-api/pkg/errors"
	"github.com/fleetops/trailer-swap-api/pkg/logger"
)

func testConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:     3,
		BackoffStrategy: &ConstantBackoff{Interval: time.Millisecond},
		Logger:          logger.NewNopLogger(),
	}
}

func TestRetrySucceedsFirstTry(t *testing.T) {
	calls := 0

	err := Retry(context.Background(), func() error {
		calls++
		return nil
	}, testConfig())

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetrySucceedsAfterFailures(t *testing.T) {
	calls := 0

	err := Retry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return apperrors.NewTemporaryError("transient")
		}
		return nil
	}, testConfig())

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryExhaustsAttempts(t *testing.T) {
	calls := 0
	boom := errors.New("boom")

	err := Retry(context.Background(), func() error {
		calls++
		return boom
	}, testConfig())

	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	assert.Equal(t, 3, calls)
}

func TestRetryStopsOnNonRetryableError(t *testing.T) {
	cfg := testConfig()
	cfg.RetryableErrors = []error{apperrors.ErrTemporaryFailure}

	calls := 0

	err := Retry(context.Background(), func() error {
		calls++
		return apperrors.NewInvalidInputError("bad input")
	}, cfg)

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	assert.Equal(t, 1, calls)
}

func TestRetryHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0

	err := Retry(ctx, func() error {
		calls++
		return apperrors.NewTemporaryError("transient")
	}, testConfig())

	require.Error(t, err)
	assert.Equal(t, 0, calls)
}

func TestRetryWithDiscard(t *testing.T) {
	discarded := false

	err := RetryWithDiscard(context.Background(), func() error {
		return apperrors.NewTemporaryError("transient")
	}, testConfig(), func(err error) error {
		discarded = true
		return nil
	})

	require.NoError(t, err)
	assert.True(t, discarded)
}

func TestExponentialBackoffGrowsAndCaps(t *testing.T) {
	b := &ExponentialBackoff{
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     300 * time.Millisecond,
		Multiplier:      2,
		JitterFactor:    0,
	}

	assert.Equal(t, 100*time.Millisecond, b.NextBackoff(1))
	assert.Equal(t, 200*time.Millisecond, b.NextBackoff(2))
	assert.Equal(t, 300*time.Millisecond, b.NextBackoff(3))
	assert.Equal(t, 300*time.Millisecond, b.NextBackoff(10))
}
