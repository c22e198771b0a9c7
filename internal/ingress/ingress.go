// Package ingress implements the HTTP handlers clients talk to: one per
// supported client dialect plus a health check. Each handler's job is
// narrow - identify the dialect, hand the request to the pipeline, and
// translate whatever error the pipeline returns into the right status code
// and error envelope for that dialect.
package ingress

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/llmproxy/dialect-proxy/internal/adapter/translator/anthropic"
	"github.com/llmproxy/dialect-proxy/internal/core/constants"
	"github.com/llmproxy/dialect-proxy/internal/core/domain"
	"github.com/llmproxy/dialect-proxy/internal/core/ports"
	"github.com/llmproxy/dialect-proxy/internal/logger"
)

// Handlers wires the pipeline up behind the three ingress endpoints.
type Handlers struct {
	proxy           ports.ProxyService
	anthropicWriter *anthropic.Translator
	log             *logger.StyledLogger
}

func New(proxy ports.ProxyService, anthropicTranslator *anthropic.Translator, log *logger.StyledLogger) *Handlers {
	return &Handlers{proxy: proxy, anthropicWriter: anthropicTranslator, log: log}
}

// OpenAIChatCompletions serves POST /v1/chat/completions for clients
// speaking the OpenAI dialect natively.
func (h *Handlers) OpenAIChatCompletions(w http.ResponseWriter, r *http.Request) {
	if err := h.proxy.Handle(r.Context(), w, r, domain.DialectOpenAI); err != nil {
		h.writeOpenAIError(w, err)
	}
}

// AnthropicMessages serves POST /v1/messages for clients speaking the
// Anthropic Messages dialect.
func (h *Handlers) AnthropicMessages(w http.ResponseWriter, r *http.Request) {
	if err := h.proxy.Handle(r.Context(), w, r, domain.DialectAnthropic); err != nil {
		h.writeAnthropicError(w, err)
	}
}

// Health serves GET /health with a static liveness payload; it intentionally
// doesn't probe configured upstreams, matching the original HealthController's
// "process is up" rather than "every backend is reachable" semantics.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(constants.ContentTypeHeader, constants.ContentTypeJSON)
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func statusForError(err error) int {
	var badRequest *domain.BadRequestError
	var notFound *domain.RouteNotFoundError
	var translation *domain.TranslationError
	var proxyErr *domain.ProxyError

	switch {
	case errors.As(err, &badRequest):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &translation):
		return http.StatusBadGateway
	case errors.As(err, &proxyErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func errorTypeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid_request_error"
	case http.StatusNotFound:
		return "invalid_request_error"
	default:
		return "proxy_error"
	}
}

// writeOpenAIError writes the {"error":{"message","type"}} envelope OpenAI
// clients expect.
func (h *Handlers) writeOpenAIError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	h.log.Warn("request failed", "status", status, "error", err)

	w.Header().Set(constants.ContentTypeHeader, constants.ContentTypeJSON)
	w.WriteHeader(status)

	body := map[string]any{
		"error": map[string]any{
			"message": err.Error(),
			"type":    errorTypeForStatus(status),
		},
	}
	if encErr := json.NewEncoder(w).Encode(body); encErr != nil {
		h.log.Error("failed to write error response", "error", encErr)
	}
}

func (h *Handlers) writeAnthropicError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	h.log.Warn("request failed", "status", status, "error", err)
	h.anthropicWriter.WriteError(w, err, status)
}
