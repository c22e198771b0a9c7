// Package pipeline implements the proxy's single request/response
// transformation chain: resolve a route for the incoming model, translate
// dialects where the route's provider speaks a different one than the
// client, rewrite headers and bodies per the route's rules, dispatch
// upstream with retry, and translate the response back.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/llmproxy/dialect-proxy/internal/adapter/translator"
	"github.com/llmproxy/dialect-proxy/internal/core/constants"
	"github.com/llmproxy/dialect-proxy/internal/core/domain"
	"github.com/llmproxy/dialect-proxy/internal/core/ports"
	"github.com/llmproxy/dialect-proxy/internal/logger"
)

// Pipeline implements ports.ProxyService: resolve, translate, rewrite,
// dispatch, retry, translate back.
type Pipeline struct {
	resolver   ports.RouteResolver
	headers    ports.HeaderRewriter
	body       ports.BodyRewriter
	upstream   ports.UpstreamClient
	retry      ports.RetryExecutor
	converters map[domain.Dialect]ports.FormatConverter
	log        *logger.StyledLogger

	totalRequests      atomic.Int64
	successfulRequests atomic.Int64
	failedRequests     atomic.Int64
	retriedRequests    atomic.Int64
}

// New builds a Pipeline. converters maps a client-facing source dialect to
// the FormatConverter that translates it to/from the dialects it differs
// from; only the anthropic<->openai pair is wired today, so this will
// usually hold a single entry keyed by domain.DialectAnthropic.
func New(
	resolver ports.RouteResolver,
	headers ports.HeaderRewriter,
	body ports.BodyRewriter,
	upstream ports.UpstreamClient,
	retry ports.RetryExecutor,
	converters map[domain.Dialect]ports.FormatConverter,
	log *logger.StyledLogger,
) *Pipeline {
	return &Pipeline{
		resolver:   resolver,
		headers:    headers,
		body:       body,
		upstream:   upstream,
		retry:      retry,
		converters: converters,
		log:        log,
	}
}

// Stats returns a snapshot of the counters accumulated across every Handle
// call so far.
func (p *Pipeline) Stats() domain.ProxyStats {
	return domain.ProxyStats{
		TotalRequests:      p.totalRequests.Load(),
		SuccessfulRequests: p.successfulRequests.Load(),
		FailedRequests:     p.failedRequests.Load(),
		RetriedRequests:    p.retriedRequests.Load(),
	}
}

// committedWriter tracks whether a response's headers have already gone out,
// so Handle can tell a failure that can still be rendered as an HTTP error
// apart from one that arrives after the body is already in flight, when
// calling WriteHeader again would corrupt an already-committed response.
type committedWriter struct {
	http.ResponseWriter
	written bool
}

func (cw *committedWriter) WriteHeader(status int) {
	cw.written = true
	cw.ResponseWriter.WriteHeader(status)
}

func (cw *committedWriter) Write(b []byte) (int, error) {
	cw.written = true
	return cw.ResponseWriter.Write(b)
}

func (cw *committedWriter) Flush() {
	if f, ok := cw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Handle implements ports.ProxyService. sourceDialect is the dialect the
// ingress handler that accepted this request speaks; an empty value means
// "use whatever the resolved route declares". Both ingress handlers always
// pass a non-empty dialect.
func (p *Pipeline) Handle(ctx context.Context, w http.ResponseWriter, r *http.Request, sourceDialect domain.Dialect) error {
	p.totalRequests.Add(1)
	cw := &committedWriter{ResponseWriter: w}

	stats := &domain.RequestStats{
		RequestID: uuid.New().String(),
		StartTime: time.Now(),
	}

	rawBody, err := io.ReadAll(r.Body)
	if err != nil {
		p.failedRequests.Add(1)
		return &domain.BadRequestError{Msg: "reading request body", Err: err}
	}

	originalModel, err := translator.ExtractModelName(rawBody)
	if err != nil {
		p.failedRequests.Add(1)
		return &domain.BadRequestError{Msg: "invalid request body", Err: err}
	}
	stats.IncomingModel = originalModel

	route, err := p.resolver.Resolve(originalModel)
	if err != nil {
		p.failedRequests.Add(1)
		return err
	}
	stats.TargetModel = route.Provider.TargetModel
	stats.Provider = route.Provider.Dialect

	log := p.log.WithRequestID(stats.RequestID)

	body := rawBody
	needsResponseConversion := false
	effectiveSource := sourceDialect
	if effectiveSource == "" {
		effectiveSource = route.SourceDialect
	}

	converter, hasConverter := p.converters[effectiveSource]
	if effectiveSource != route.Provider.Dialect && hasConverter {
		converted, err := converter.ConvertRequest(body, route.Provider.TargetModel)
		if err != nil {
			p.failedRequests.Add(1)
			return &domain.TranslationError{Direction: "request", From: effectiveSource, To: route.Provider.Dialect, Err: err}
		}
		body = converted
		needsResponseConversion = true
	} else {
		// Same dialect, or a dialect pair with no registered converter: the
		// body is forwarded as is apart from the model rename.
		body, err = setModelField(body, route.Provider.TargetModel)
		if err != nil {
			p.failedRequests.Add(1)
			return &domain.BadRequestError{Msg: "rewriting model field", Err: err}
		}
	}

	streaming := requestWantsStream(body)

	if route.Provider.Dialect == domain.DialectOllama {
		body, err = ensureStreamField(body, streaming)
		if err != nil {
			p.failedRequests.Add(1)
			return &domain.BadRequestError{Msg: "normalising ollama stream field", Err: err}
		}
	}

	body, err = p.body.RewriteJSONPath(body, route.RequestRules.JSONPathOps)
	if err != nil {
		log.Warn("request json-path rewrite failed, forwarding body unmodified", "error", err)
	}
	body = p.body.RewriteRegex(body, route.RequestRules.RegexReplacements)

	outReq, err := http.NewRequestWithContext(ctx, http.MethodPost, "", bytes.NewReader(body))
	if err != nil {
		p.failedRequests.Add(1)
		return &domain.ProxyError{Endpoint: route.Provider.BaseURL, Op: "building upstream request", Err: err}
	}

	upstreamURL, err := buildUpstreamURL(route)
	if err != nil {
		p.failedRequests.Add(1)
		return &domain.ProxyError{Endpoint: route.Provider.BaseURL, Op: "resolving upstream url", Err: err}
	}
	outReq.URL = upstreamURL
	outReq.Host = upstreamURL.Host
	outReq.ContentLength = int64(len(body))

	copyIncomingHeaders(outReq.Header, r.Header)
	p.headers.Rewrite(outReq.Header, route.RequestHeaders)
	outReq.Header.Set(constants.ContentTypeHeader, constants.ContentTypeJSON)
	if route.Provider.APIKey != "" {
		outReq.Header.Set(constants.HeaderAuthorization, "Bearer "+route.Provider.APIKey)
	}

	resp, attempts, err := p.retry.Execute(ctx, route.Client.MaxRetries, func(ctx context.Context, attempt int) (*http.Response, error) {
		attemptReq := outReq.Clone(ctx)
		attemptReq.Body = io.NopCloser(bytes.NewReader(body))
		return p.upstream.Do(ctx, route, attemptReq)
	})
	stats.Attempts = attempts
	if attempts > 1 {
		p.retriedRequests.Add(1)
	}

	mirrorTracingHeaders(cw.Header(), r.Header)

	if err != nil {
		p.failedRequests.Add(1)
		stats.EndTime = time.Now()
		return &domain.ProxyError{Endpoint: upstreamURL.String(), Op: "upstream request", Err: err}
	}
	defer resp.Body.Close()

	stats.StatusCode = resp.StatusCode
	stats.Streamed = streaming

	var writeErr error
	if streaming {
		writeErr = p.writeStreaming(ctx, cw, resp, route, effectiveSource, needsResponseConversion, originalModel, stats)
	} else {
		writeErr = p.writeBuffered(cw, resp, route, needsResponseConversion, originalModel, stats)
	}

	stats.EndTime = time.Now()
	if writeErr != nil {
		p.failedRequests.Add(1)
		if cw.written {
			log.Error("response failed after headers were sent, closing without rewriting status", "error", writeErr)
			return nil
		}
		return writeErr
	}

	p.successfulRequests.Add(1)
	log.Info("request completed",
		"incoming_model", stats.IncomingModel,
		"target_model", stats.TargetModel,
		"status", stats.StatusCode,
		"attempts", stats.Attempts,
		"streamed", stats.Streamed,
		"latency", stats.Latency().String())

	return nil
}

func (p *Pipeline) writeBuffered(w http.ResponseWriter, resp *http.Response, route *domain.Route, needsResponseConversion bool, originalModel string, stats *domain.RequestStats) error {
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.ProxyError{Endpoint: route.Provider.BaseURL, Op: "reading upstream response", Err: err}
	}

	if route.Provider.Dialect == domain.DialectOllama {
		respBody = reduceOllamaBody(respBody, p.log)
	}

	if respBody, err = p.body.RewriteJSONPath(respBody, route.ResponseRules.JSONPathOps); err != nil {
		p.log.Warn("response json-path rewrite failed, forwarding body unmodified", "error", err)
	}
	respBody = p.body.RewriteRegex(respBody, route.ResponseRules.RegexReplacements)

	if needsResponseConversion && resp.StatusCode < http.StatusBadRequest {
		converter := p.converters[domain.DialectAnthropic]
		converted, err := converter.ConvertResponse(respBody, originalModel)
		if err != nil {
			return &domain.TranslationError{Direction: "response", From: route.Provider.Dialect, To: domain.DialectAnthropic, Err: err}
		}
		respBody = converted
	}

	stats.TotalBytes = int64(len(respBody))

	outHeader := w.Header()
	copyUpstreamHeaders(outHeader, resp.Header)
	p.headers.Rewrite(outHeader, route.ResponseHeaders)
	outHeader.Set(constants.ContentTypeHeader, constants.ContentTypeJSON)
	outHeader.Del("Content-Length")

	w.WriteHeader(resp.StatusCode)
	_, err = w.Write(respBody)
	return err
}

func (p *Pipeline) writeStreaming(ctx context.Context, w http.ResponseWriter, resp *http.Response, route *domain.Route, effectiveSource domain.Dialect, needsResponseConversion bool, originalModel string, stats *domain.RequestStats) error {
	outHeader := w.Header()
	copyUpstreamHeaders(outHeader, resp.Header)
	p.headers.Rewrite(outHeader, route.ResponseHeaders)
	outHeader.Set(constants.ContentTypeHeader, constants.ContentTypeSSE)
	outHeader.Set("Cache-Control", "no-cache")
	outHeader.Set("Connection", "keep-alive")
	outHeader.Set("X-Accel-Buffering", "no")
	outHeader.Del("Content-Length")
	w.WriteHeader(resp.StatusCode)

	flusher, _ := w.(http.Flusher)

	if needsResponseConversion {
		converter := p.converters[effectiveSource]
		if err := converter.ConvertStream(ctx, w, resp.Body, originalModel); err != nil {
			return &domain.TranslationError{Direction: "response", From: route.Provider.Dialect, To: effectiveSource, Err: err}
		}
		return nil
	}

	buf := make([]byte, 32*1024)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			stats.TotalBytes += int64(n)
			if _, writeErr := w.Write(buf[:n]); writeErr != nil {
				return writeErr
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return nil
			}
			return &domain.ProxyError{Endpoint: route.Provider.BaseURL, Op: "streaming upstream response", Err: readErr}
		}
	}
}
