package retry

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/llmproxy/dialect-proxy/internal/logger"
	"github.com/llmproxy/dialect-proxy/internal/util"
)

const (
	initialDelay = 100 * time.Millisecond
	maxDelay     = 10 * time.Second
	jitterFactor = 0.5
)

// Executor retries a single-upstream request attempt with exponential
// backoff and jitter: unlike a load-balancer's failover retry (try a
// different endpoint each attempt), this retries the same upstream after a
// delay, since a Route has exactly one provider.
type Executor struct {
	log *logger.StyledLogger
}

func NewExecutor(log *logger.StyledLogger) *Executor {
	return &Executor{log: log}
}

// Execute calls fn up to maxRetries+1 times. fn is given the attempt number
// (0-based) and returns the response and/or error for that attempt. An
// attempt whose error is non-nil counts as failed and any response it
// returned is dropped: a retryable error is retried while attempts remain,
// any other error is returned at once. A response with a retryable status
// is closed and retried while attempts remain; the last attempt's response
// is returned with a nil error whatever its status. Execute returns the
// final response (or error) plus the number of attempts made.
func (e *Executor) Execute(ctx context.Context, maxRetries int, fn func(ctx context.Context, attempt int) (*http.Response, error)) (*http.Response, int, error) {
	var lastErr error
	var lastResp *http.Response

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := util.CalculateExponentialBackoff(attempt-1, initialDelay, maxDelay, jitterFactor)
			e.log.Debug("retrying upstream request", "attempt", attempt, "delay", delay.String())

			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, attempt, ctx.Err()
			case <-timer.C:
			}
		}

		resp, err := fn(ctx, attempt)
		lastResp, lastErr = resp, err

		if err != nil {
			if !IsRetryableError(err) || attempt == maxRetries {
				return nil, attempt + 1, err
			}
			continue
		}

		if resp != nil && IsRetryableStatus(resp.StatusCode) && attempt < maxRetries {
			_ = resp.Body.Close()
			continue
		}

		return resp, attempt + 1, nil
	}

	if lastErr != nil {
		return nil, maxRetries + 1, lastErr
	}
	return lastResp, maxRetries + 1, fmt.Errorf("exhausted %d retries", maxRetries)
}
