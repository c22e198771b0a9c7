package domain

import "time"

// ClientPolicy configures the HTTP client used to reach a Route's upstream:
// how long to wait, how many times to retry a failed attempt, and whether
// to verify the upstream's TLS certificate.
type ClientPolicy struct {
	Timeout    time.Duration
	MaxRetries int
	VerifyTLS  bool
}

// DefaultClientPolicy applies when a route leaves Client unset:
// 60s timeout, 3 retries, certificate verification on.
func DefaultClientPolicy() ClientPolicy {
	return ClientPolicy{
		Timeout:    60 * time.Second,
		MaxRetries: 3,
		VerifyTLS:  true,
	}
}
