package domain

import "time"

// RequestStats captures the lifecycle of one proxied request for the
// pipeline's per-request log, scoped to a single upstream hop rather than a
// load-balanced endpoint pool.
type RequestStats struct {
	RequestID     string
	IncomingModel string
	TargetModel   string
	Provider      Dialect
	StartTime     time.Time
	EndTime       time.Time
	TotalBytes    int64
	Attempts      int
	Streamed      bool
	StatusCode    int
}

func (s *RequestStats) Latency() time.Duration {
	if s.EndTime.IsZero() {
		return 0
	}
	return s.EndTime.Sub(s.StartTime)
}

// ProxyStats aggregates counters across all requests served so far.
type ProxyStats struct {
	TotalRequests      int64
	SuccessfulRequests int64
	FailedRequests     int64
	RetriedRequests    int64
}
