package ports

import (
	"context"
	"io"
	"net/http"

	"github.com/llmproxy/dialect-proxy/internal/core/domain"
)

// RouteResolver finds the Route configured for an incoming model name.
type RouteResolver interface {
	Resolve(model string) (*domain.Route, error)
}

// HeaderRewriter applies a domain.HeaderRule to an http.Header in place.
type HeaderRewriter interface {
	Rewrite(h http.Header, rule domain.HeaderRule)
}

// BodyRewriter applies a domain.TransformRule's regex and JSON-path
// operations to a request or response body.
type BodyRewriter interface {
	RewriteRegex(body []byte, rules []domain.RegexReplacement) []byte
	RewriteJSONPath(body []byte, ops []domain.JSONPathOp) ([]byte, error)
}

// FormatConverter translates request/response bodies and SSE streams
// between two dialects. The Pipeline holds converters in a map keyed by the
// client-facing source dialect and looks one up there.
type FormatConverter interface {
	ConvertRequest(body []byte, targetModel string) ([]byte, error)
	ConvertResponse(body []byte, originalModel string) ([]byte, error)
	ConvertStream(ctx context.Context, w io.Writer, upstream io.Reader, originalModel string) error
}

// UpstreamClient sends a prepared request to a Route's provider and returns
// the raw response. The caller is responsible for reducing Ollama's
// newline-delimited body to a single JSON object on the non-streaming path.
type UpstreamClient interface {
	Do(ctx context.Context, route *domain.Route, req *http.Request) (*http.Response, error)
}

// RetryExecutor runs fn, retrying on retryable failures per policy, and
// reports how many attempts it took.
type RetryExecutor interface {
	Execute(ctx context.Context, maxRetries int, fn func(ctx context.Context, attempt int) (*http.Response, error)) (*http.Response, int, error)
}

// ProxyService is the top-level entry point the ingress handlers call.
type ProxyService interface {
	Handle(ctx context.Context, w http.ResponseWriter, r *http.Request, sourceDialect domain.Dialect) error
	Stats() domain.ProxyStats
}
