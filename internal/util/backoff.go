package util

import (
	"math"
	"math/rand"
	"time"
)

// CalculateExponentialBackoff computes exponential backoff with multiplicative
// jitter: min(baseDelay*2^attempt, maxDelay) scaled by a uniform random
// factor in [1-jitterPercent/2, 1+jitterPercent/2]. With the retry
// executor's defaults (attempt 0-based, jitterPercent 0.5) this reproduces
// the original RetryHandler.calculateBackoff formula of
// min(100ms*2^n, 10000ms) * (0.75 + rand()*0.5).
func CalculateExponentialBackoff(attempt int, baseDelay, maxDelay time.Duration, jitterPercent float64) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	backoff := float64(baseDelay) * math.Pow(2, float64(attempt))
	if backoff > float64(maxDelay) {
		backoff = float64(maxDelay)
	}

	if jitterPercent > 0 {
		lo := 1 - jitterPercent/2
		backoff *= lo + rand.Float64()*jitterPercent
	}

	return time.Duration(backoff)
}
