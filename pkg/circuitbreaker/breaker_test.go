package circuitbreaker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestBreaker() *CircuitBreaker {
	return New(Config{
		FailureThreshold: 3,
		ResetTimeout:     50 * time.Millisecond,
		HalfOpenMaxCalls: 2,
	})
}

func TestBreakerOpensAfterThreshold(t *testing.T) {
	cb := newTestBreaker()

	assert.Equal(t, StateClosed, cb.GetState())
	assert.True(t, cb.Allow())

	cb.Failure()
	cb.Failure()
	assert.Equal(t, StateClosed, cb.GetState())

	cb.Failure()
	assert.Equal(t, StateOpen, cb.GetState())
	assert.False(t, cb.Allow())
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	cb := newTestBreaker()

	cb.Failure()
	cb.Failure()
	cb.Success()
	cb.Failure()
	cb.Failure()

	assert.Equal(t, StateClosed, cb.GetState())
}

func TestBreakerHalfOpenProbe(t *testing.T) {
	cb := newTestBreaker()

	cb.Failure()
	cb.Failure()
	cb.Failure()
	assert.False(t, cb.Allow())

	time.Sleep(60 * time.Millisecond)

	// First call after the timeout is a probe
	assert.True(t, cb.Allow())
	assert.Equal(t, StateHalfOpen, cb.GetState())

	// Limited probes while half-open
	assert.True(t, cb.Allow())
	assert.False(t, cb.Allow())

	cb.Success()
	assert.Equal(t, StateClosed, cb.GetState())
	assert.True(t, cb.Allow())
}

func TestBreakerFailedProbeReopens(t *testing.T) {
	cb := newTestBreaker()

	cb.Failure()
	cb.Failure()
	cb.Failure()

	time.Sleep(60 * time.Millisecond)
	assert.True(t, cb.Allow())

	cb.Failure()
	assert.Equal(t, StateOpen, cb.GetState())
	assert.False(t, cb.Allow())
}

func TestBreakerMetrics(t *testing.T) {
	cb := newTestBreaker()
	cb.Failure()

	metrics := cb.GetMetrics()
	assert.Equal(t, "closed", metrics["state"])
	assert.Equal(t, 1, metrics["failure_count"])
	assert.Equal(t, 3, metrics["failure_threshold"])
}
