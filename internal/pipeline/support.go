package pipeline

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/llmproxy/dialect-proxy/internal/adapter/upstream"
	"github.com/llmproxy/dialect-proxy/internal/core/constants"
	"github.com/llmproxy/dialect-proxy/internal/core/domain"
	"github.com/llmproxy/dialect-proxy/internal/logger"
)

func buildUpstreamURL(route *domain.Route) (*url.URL, error) {
	raw, err := upstream.BuildURL(route)
	if err != nil {
		return nil, err
	}
	return url.Parse(raw)
}

func reduceOllamaBody(body []byte, log *logger.StyledLogger) []byte {
	return upstream.ReduceNDJSON(body, log)
}

// setModelField rewrites the top-level "model" field of a same-dialect
// request body to targetModel. The body is decoded and re-encoded with
// encoding/json, so key order and whitespace are not preserved.
func setModelField(body []byte, targetModel string) ([]byte, error) {
	if targetModel == "" {
		return body, nil
	}

	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, err
	}
	doc["model"] = targetModel
	return json.Marshal(doc)
}

// requestWantsStream reports whether the request body's top-level "stream"
// field is true. A missing or non-boolean field is treated as false.
func requestWantsStream(body []byte) bool {
	var doc struct {
		Stream bool `json:"stream"`
	}
	_ = json.Unmarshal(body, &doc)
	return doc.Stream
}

// ensureStreamField writes an explicit "stream" field onto an Ollama
// request, since Ollama's /api/chat defaults to streaming when the field is
// absent, unlike OpenAI and Anthropic which default to non-streaming.
func ensureStreamField(body []byte, streaming bool) ([]byte, error) {
	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, err
	}
	doc["stream"] = streaming
	return json.Marshal(doc)
}

func copyIncomingHeaders(dst, src http.Header) {
	for name, values := range src {
		for _, v := range values {
			dst.Add(name, v)
		}
	}
}

func copyUpstreamHeaders(dst, src http.Header) {
	for name, values := range src {
		if _, hop := constants.HopByHopHeaders[name]; hop {
			continue
		}
		for _, v := range values {
			dst.Add(name, v)
		}
	}
}

// mirrorTracingHeaders copies any of the well-known distributed-tracing
// headers present on the incoming request onto the outbound response, so a
// client that sent a correlation id sees the same one on its reply even
// though nothing in this proxy otherwise participates in the trace.
func mirrorTracingHeaders(dst, src http.Header) {
	for _, name := range constants.TracingHeaders {
		if v := src.Get(name); v != "" {
			dst.Set(name, v)
		}
	}
}
