package retry

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"syscall"
)

// retryableStatusCodes: rate limiting and upstream unavailability are worth
// retrying, anything else (4xx client errors, 5xx that aren't one of these)
// is not.
var retryableStatusCodes = map[int]struct{}{
	429: {},
	502: {},
	503: {},
	504: {},
}

// IsRetryableStatus reports whether an HTTP status code from an upstream
// response should trigger a retry. Executor.Execute is its only caller in
// this repository.
func IsRetryableStatus(code int) bool {
	_, ok := retryableStatusCodes[code]
	return ok
}

// retryableSubstrings mirrors RetryHandler.isRetryable's string-contains
// fallback for errors that don't cleanly type-assert to a net.Error — text
// that leaks through from TLS handshake failures, DNS lookups and the like.
var retryableSubstrings = []string{
	"connection refused",
	"connection reset",
	"connection timed out",
	"timeout",
	"too many requests",
	"service unavailable",
	"bad gateway",
	"no such host",
	"tls handshake timeout",
	"eof",
}

// IsRetryableError classifies a transport-level error (never an HTTP status
// code — those go through IsRetryableStatus): context cancellation never
// retries, while an expired context deadline, EOF, network errors and
// connection-refused/reset/timed-out errno values do,
// and anything else falls back to a case-insensitive substring match.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, io.EOF) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.ETIMEDOUT:
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	for _, substr := range retryableSubstrings {
		if strings.Contains(msg, substr) {
			return true
		}
	}

	return false
}
