package constants

// Hop-by-hop headers are connection-scoped and must never be forwarded upstream
// or mirrored back to the client, per RFC 7230 §6.1.
var HopByHopHeaders = map[string]struct{}{
	"Connection":          {},
	"Keep-Alive":          {},
	"Proxy-Authenticate":  {},
	"Proxy-Authorization": {},
	"Te":                  {},
	"Trailer":             {},
	"Transfer-Encoding":   {},
	"Upgrade":             {},
	"Host":                {},
	"Content-Length":      {},
}

// TracingHeaders are mirrored verbatim from the inbound request onto the
// response sent back to the client so distributed tracing stays correlated,
// even though nothing in this proxy itself participates in a trace.
var TracingHeaders = []string{
	"X-Request-Id",
	"X-Correlation-Id",
	"X-Trace-Id",
	"Traceparent",
	"Tracestate",
	"X-B3-Traceid",
	"X-B3-Spanid",
	"X-B3-Parentspanid",
	"X-B3-Sampled",
	"X-B3-Flags",
	"X-Cloud-Trace-Context",
	"X-Amzn-Trace-Id",
}

const (
	HeaderAuthorization = "Authorization"
	HeaderAccept        = "Accept"
	HeaderXRequestID    = "X-Request-Id"
)
