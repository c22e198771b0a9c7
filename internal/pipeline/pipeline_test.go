package pipeline

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llmproxy/dialect-proxy/internal/adapter/bodyrule"
	"github.com/llmproxy/dialect-proxy/internal/adapter/headerrule"
	"github.com/llmproxy/dialect-proxy/internal/adapter/retry"
	"github.com/llmproxy/dialect-proxy/internal/core/domain"
	"github.com/llmproxy/dialect-proxy/internal/core/ports"
	"github.com/llmproxy/dialect-proxy/internal/logger"
	"github.com/llmproxy/dialect-proxy/theme"
)

// fakeResolver returns route for any model equal to wantModel, otherwise a
// RouteNotFoundError, matching the real resolver's contract without needing
// config parsing in these tests.
type fakeResolver struct {
	wantModel string
	route     *domain.Route
}

func (f *fakeResolver) Resolve(model string) (*domain.Route, error) {
	if model == f.wantModel {
		return f.route, nil
	}
	return nil, &domain.RouteNotFoundError{Model: model}
}

// fakeUpstream returns a canned response/error instead of making a real
// network call, letting these tests exercise the pipeline's own rewriting
// and error-mapping logic in isolation.
type fakeUpstream struct {
	resp *http.Response
	err  error
}

func (f *fakeUpstream) Do(ctx context.Context, route *domain.Route, req *http.Request) (*http.Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func testLogger(t *testing.T) *logger.StyledLogger {
	l, _, err := logger.New(&logger.Config{Level: "error"})
	require.NoError(t, err)
	return logger.NewStyledLogger(l, theme.Default())
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func newTestPipeline(t *testing.T, route *domain.Route, upstream ports.UpstreamClient) *Pipeline {
	log := testLogger(t)
	return New(
		&fakeResolver{wantModel: route.IncomingModel, route: route},
		headerrule.New(),
		bodyrule.New(log),
		upstream,
		retry.NewExecutor(log),
		map[domain.Dialect]ports.FormatConverter{},
		log,
	)
}

func baseRoute() *domain.Route {
	return &domain.Route{
		IncomingModel: "gpt-4o",
		SourceDialect: domain.DialectOpenAI,
		Provider: domain.Provider{
			Dialect:     domain.DialectOpenAI,
			BaseURL:     "http://upstream.internal",
			TargetModel: "gpt-4o-mini",
		},
		Client: domain.DefaultClientPolicy(),
	}
}

func TestHandle_SameDialectRewritesModelAndForwards(t *testing.T) {
	route := baseRoute()
	var capturedBody string
	up := &capturingUpstream{resp: jsonResponse(200, `{"id":"x","choices":[]}`), captured: &capturedBody}
	p := newTestPipeline(t, route, up)

	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(`{"model":"gpt-4o","messages":[]}`))
	rec := httptest.NewRecorder()

	err := p.Handle(context.Background(), rec, req, domain.DialectOpenAI)
	require.NoError(t, err)
	assert.Contains(t, capturedBody, `"model":"gpt-4o-mini"`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"x","choices":[]}`, rec.Body.String())

	stats := p.Stats()
	assert.Equal(t, int64(1), stats.TotalRequests)
	assert.Equal(t, int64(1), stats.SuccessfulRequests)
}

func TestHandle_UnknownModelReturnsRouteNotFound(t *testing.T) {
	route := baseRoute()
	p := newTestPipeline(t, route, &fakeUpstream{})

	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(`{"model":"does-not-exist","messages":[]}`))
	rec := httptest.NewRecorder()

	err := p.Handle(context.Background(), rec, req, domain.DialectOpenAI)
	var notFound *domain.RouteNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestHandle_MalformedJSONReturnsBadRequest(t *testing.T) {
	route := baseRoute()
	p := newTestPipeline(t, route, &fakeUpstream{})

	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(`{not json`))
	rec := httptest.NewRecorder()

	err := p.Handle(context.Background(), rec, req, domain.DialectOpenAI)
	var badRequest *domain.BadRequestError
	require.ErrorAs(t, err, &badRequest)
}

func TestHandle_MissingModelReturnsBadRequest(t *testing.T) {
	route := baseRoute()
	p := newTestPipeline(t, route, &fakeUpstream{})

	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(`{"messages":[]}`))
	rec := httptest.NewRecorder()

	err := p.Handle(context.Background(), rec, req, domain.DialectOpenAI)
	var badRequest *domain.BadRequestError
	require.ErrorAs(t, err, &badRequest)
}

func TestHandle_UpstreamFailureReturnsProxyError(t *testing.T) {
	route := baseRoute()
	up := &fakeUpstream{err: assertError{"boom"}}
	p := newTestPipeline(t, route, up)

	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(`{"model":"gpt-4o","messages":[]}`))
	rec := httptest.NewRecorder()

	err := p.Handle(context.Background(), rec, req, domain.DialectOpenAI)
	var proxyErr *domain.ProxyError
	require.ErrorAs(t, err, &proxyErr)

	stats := p.Stats()
	assert.Equal(t, int64(1), stats.FailedRequests)
}

func TestHandle_OllamaRouteGetsExplicitStreamField(t *testing.T) {
	route := baseRoute()
	route.Provider.Dialect = domain.DialectOllama
	route.SourceDialect = domain.DialectOllama

	var capturedBody string
	up := &capturingUpstream{resp: jsonResponse(200, `{"message":{"content":"hi"},"done":true}`), captured: &capturedBody}
	p := newTestPipeline(t, route, up)

	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(`{"model":"gpt-4o","messages":[]}`))
	rec := httptest.NewRecorder()

	err := p.Handle(context.Background(), rec, req, domain.DialectOllama)
	require.NoError(t, err)
	assert.Contains(t, capturedBody, `"stream":false`)
}

type capturingUpstream struct {
	resp     *http.Response
	captured *string
}

func (c *capturingUpstream) Do(ctx context.Context, route *domain.Route, req *http.Request) (*http.Response, error) {
	b, _ := io.ReadAll(req.Body)
	*c.captured = string(b)
	return c.resp, nil
}

type assertError struct{ msg string }

func (e assertError) Error() string { return e.msg }

// breakingReader yields the given bytes once and then fails every
// subsequent read, simulating an upstream connection that drops mid-stream.
type breakingReader struct {
	data []byte
	sent bool
}

func (b *breakingReader) Read(p []byte) (int, error) {
	if !b.sent {
		b.sent = true
		n := copy(p, b.data)
		return n, nil
	}
	return 0, assertError{"connection reset"}
}

func (b *breakingReader) Close() error { return nil }

func TestHandle_StreamingFailureAfterHeadersSentReturnsNilAndClosesCleanly(t *testing.T) {
	route := baseRoute()
	resp := &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"text/event-stream"}},
		Body:       &breakingReader{data: []byte("data: {\"id\":\"x\"}\n\n")},
	}
	up := &fakeUpstream{resp: resp}
	p := newTestPipeline(t, route, up)

	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(`{"model":"gpt-4o","messages":[],"stream":true}`))
	rec := httptest.NewRecorder()

	err := p.Handle(context.Background(), rec, req, domain.DialectOpenAI)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"x"`)

	stats := p.Stats()
	assert.Equal(t, int64(1), stats.FailedRequests)
}
