package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/fleetops/trailer-swap-api/pkg/circuitbreaker"
	apperrors "github.com/fleetops/trailer-swap-api/pkg/errors"
	"github.com/fleetops/trailer-swap-api/pkg/logger"
	"github.com/fleetops/trailer-swap-api/pkg/retry"
)

// DistanceClient calls the external distance-lookup service. Transient
// faults are retried with backoff; a run of failures trips the circuit
// breaker so a dead service isn't hammered. Either way the caller sees
// ServiceUnavailable and decides what to do next.
type DistanceClient struct {
	baseURL     string
	httpClient  *http.Client
	logger      logger.Logger
	retryConfig *retry.RetryConfig
	breaker     *circuitbreaker.CircuitBreaker
}

// DistanceResponse represents the response from the distance endpoint
type DistanceResponse struct {
	Origin      string  `json:"origin,omitempty"`
	Destination string  `json:"destination,omitempty"`
	Miles       float64 `json:"miles,omitempty"`
	Error       string  `json:"error,omitempty"`
	Code        string  `json:"code,omitempty"`
	Timestamp   string  `json:"timestamp,omitempty"`
}

// NewDistanceClient creates a new DistanceClient
func NewDistanceClient(baseURL string, timeout time.Duration, logger logger.Logger) *DistanceClient {
	retryConfig := &retry.RetryConfig{
		MaxAttempts: 3,
		BackoffStrategy: &retry.ExponentialBackoff{
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
			Multiplier:      1.5,
			JitterFactor:    0.2,
		},
		Logger: logger,
		RetryableErrors: []error{
			apperrors.ErrTimeout,
			apperrors.ErrTemporaryFailure,
			apperrors.ErrServiceUnavailable,
		},
	}

	return &DistanceClient{
		baseURL:     baseURL,
		httpClient:  &http.Client{Timeout: timeout},
		logger:      logger,
		retryConfig: retryConfig,
		breaker: circuitbreaker.New(circuitbreaker.Config{
			FailureThreshold: 5,
			ResetTimeout:     30 * time.Second,
			HalfOpenMaxCalls: 2,
		}),
	}
}

// Query returns the one-way distance in miles between two addresses
func (c *DistanceClient) Query(ctx context.Context, origin, destination string) (float64, error) {
	if !c.breaker.Allow() {
		c.logger.Warn("Distance service circuit open, request rejected",
			"origin", origin,
			"destination", destination)
		return 0, apperrors.NewServiceUnavailableError("distance service temporarily unavailable")
	}

	reqURL := fmt.Sprintf("%s/api/v1/distance?origin=%s&destination=%s",
		c.baseURL, url.QueryEscape(origin), url.QueryEscape(destination))

	var response *DistanceResponse

	retryFunc := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)

		if err != nil {
			return apperrors.NewInternalError(fmt.Sprintf("failed to create request: %v", err))
		}

		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)

		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				return apperrors.NewTimeoutError("distance request timed out")
			}
			return apperrors.NewTemporaryError(fmt.Sprintf("failed to send request: %v", err))
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)

		if err != nil {
			return apperrors.NewInternalError(fmt.Sprintf("failed to read response body: %v", err))
		}

		if resp.StatusCode >= 400 {
			if resp.StatusCode == http.StatusRequestTimeout || resp.StatusCode == http.StatusGatewayTimeout {
				return apperrors.NewTimeoutError("distance request timed out")
			}

			if resp.StatusCode == http.StatusServiceUnavailable || resp.StatusCode == http.StatusInternalServerError {
				return apperrors.NewTemporaryError(fmt.Sprintf("distance service error: %d", resp.StatusCode))
			}

			return apperrors.NewAppError(
				apperrors.ErrInternal,
				fmt.Sprintf("distance service returned error: %d", resp.StatusCode),
				resp.StatusCode,
				false,
			)
		}

		response = &DistanceResponse{}

		if err := json.Unmarshal(body, response); err != nil {
			return apperrors.NewInternalError(fmt.Sprintf("failed to parse response: %v", err))
		}

		if response.Error != "" {
			if response.Code == "TIMEOUT" {
				return apperrors.NewTimeoutError(response.Error)
			}
			return apperrors.NewTemporaryError(response.Error)
		}

		if response.Miles <= 0 {
			return apperrors.NewTemporaryError(
				fmt.Sprintf("distance service returned no route for %q -> %q", origin, destination))
		}

		return nil
	}

	err := retry.Retry(ctx, retryFunc, c.retryConfig)

	if err != nil {
		c.breaker.Failure()
		c.logger.Error("Failed to query distance after retries",
			"error", err,
			"origin", origin,
			"destination", destination)
		return 0, apperrors.NewServiceUnavailableError(
			fmt.Sprintf("distance lookup failed: %v", err))
	}

	c.breaker.Success()
	return response.Miles, nil
}

// BreakerMetrics exposes the circuit breaker state for the health endpoint
func (c *DistanceClient) BreakerMetrics() map[string]interface{} {
	return c.breaker.GetMetrics()
}
