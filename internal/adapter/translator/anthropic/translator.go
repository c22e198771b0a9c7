package anthropic

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/llmproxy/dialect-proxy/internal/core/constants"
	"github.com/llmproxy/dialect-proxy/internal/logger"
	"github.com/llmproxy/dialect-proxy/pkg/pool"
)

// Translator converts Anthropic Messages API request/response/stream bodies
// to and from OpenAI chat-completions shape. It implements
// ports.FormatConverter for the anthropic<->openai route pair. A buffer
// pool is built at construction; no conversion path currently draws
// buffers from it.
type Translator struct {
	log        *logger.StyledLogger
	bufferPool *pool.Pool[*bytes.Buffer]
}

func NewTranslator(log *logger.StyledLogger) *Translator {
	bufferPool, err := pool.NewLitePool(func() *bytes.Buffer {
		return bytes.NewBuffer(make([]byte, 0, 4096))
	})
	if err != nil {
		log.Error("failed to create anthropic translator buffer pool", "error", err)
		panic("anthropic: failed to initialise buffer pool")
	}

	return &Translator{log: log, bufferPool: bufferPool}
}

func (t *Translator) Name() string {
	return "anthropic"
}

// WriteError formats err according to Anthropic's error schema
// (https://docs.anthropic.com/claude/reference/errors) so clients that speak
// Anthropic see a response shaped like one, even for proxy-local failures.
func (t *Translator) WriteError(w http.ResponseWriter, err error, statusCode int) {
	errorType := "api_error"
	switch statusCode {
	case http.StatusBadRequest:
		errorType = "invalid_request_error"
	case http.StatusUnauthorized:
		errorType = "authentication_error"
	case http.StatusForbidden:
		errorType = "permission_error"
	case http.StatusNotFound:
		errorType = "not_found_error"
	case http.StatusTooManyRequests:
		errorType = "rate_limit_error"
	case http.StatusServiceUnavailable:
		errorType = "overloaded_error"
	}

	errorResp := map[string]interface{}{
		"type": "error",
		"error": map[string]interface{}{
			"type":    errorType,
			"message": err.Error(),
		},
	}

	w.Header().Set(constants.ContentTypeHeader, constants.ContentTypeJSON)
	w.WriteHeader(statusCode)

	if encErr := json.NewEncoder(w).Encode(errorResp); encErr != nil {
		t.log.Error("failed to write anthropic error response", "error", encErr)
	}
}
