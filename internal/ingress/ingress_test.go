package ingress

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llmproxy/dialect-proxy/internal/adapter/translator/anthropic"
	"github.com/llmproxy/dialect-proxy/internal/core/domain"
	"github.com/llmproxy/dialect-proxy/internal/logger"
	"github.com/llmproxy/dialect-proxy/theme"
)

type fakeProxy struct {
	err error
}

func (f *fakeProxy) Handle(ctx context.Context, w http.ResponseWriter, r *http.Request, sourceDialect domain.Dialect) error {
	return f.err
}

func (f *fakeProxy) Stats() domain.ProxyStats {
	return domain.ProxyStats{}
}

func testHandlers(t *testing.T, proxyErr error) *Handlers {
	l, _, err := logger.New(&logger.Config{Level: "error"})
	require.NoError(t, err)
	styled := logger.NewStyledLogger(l, theme.Default())
	return New(&fakeProxy{err: proxyErr}, anthropic.NewTranslator(styled), styled)
}

func TestHealth_ReturnsOK(t *testing.T) {
	h := testHandlers(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	h.Health(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestOpenAIChatCompletions_SuccessWritesNothingExtra(t *testing.T) {
	h := testHandlers(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", nil)
	rec := httptest.NewRecorder()

	h.OpenAIChatCompletions(rec, req)

	// A successful Handle call writes its own response; the handler itself
	// must not also write one.
	assert.Equal(t, 200, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestOpenAIChatCompletions_BadRequestErrorMapsTo400(t *testing.T) {
	h := testHandlers(t, &domain.BadRequestError{Msg: "model field is required"})

	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", nil)
	rec := httptest.NewRecorder()

	h.OpenAIChatCompletions(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "invalid_request_error", body["error"]["type"])
}

func TestOpenAIChatCompletions_RouteNotFoundMapsTo404(t *testing.T) {
	h := testHandlers(t, &domain.RouteNotFoundError{Model: "nope"})

	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", nil)
	rec := httptest.NewRecorder()

	h.OpenAIChatCompletions(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOpenAIChatCompletions_ProxyErrorMapsTo502(t *testing.T) {
	h := testHandlers(t, &domain.ProxyError{Endpoint: "http://upstream", Op: "upstream request", Err: assertErr("boom")})

	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", nil)
	rec := httptest.NewRecorder()

	h.OpenAIChatCompletions(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var body map[string]map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "proxy_error", body["error"]["type"])
}

func TestAnthropicMessages_ErrorUsesAnthropicErrorShape(t *testing.T) {
	h := testHandlers(t, &domain.BadRequestError{Msg: "invalid JSON body"})

	req := httptest.NewRequest(http.MethodPost, "/v1/messages", nil)
	rec := httptest.NewRecorder()

	h.AnthropicMessages(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "error", body["type"])
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
