// Package app wires configuration, the proxy pipeline, and the ingress
// handlers into one *http.Server and owns its start/stop lifecycle.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/llmproxy/dialect-proxy/internal/adapter/bodyrule"
	"github.com/llmproxy/dialect-proxy/internal/adapter/headerrule"
	"github.com/llmproxy/dialect-proxy/internal/adapter/retry"
	"github.com/llmproxy/dialect-proxy/internal/adapter/route"
	"github.com/llmproxy/dialect-proxy/internal/adapter/translator/anthropic"
	"github.com/llmproxy/dialect-proxy/internal/adapter/upstream"
	"github.com/llmproxy/dialect-proxy/internal/app/middleware"
	"github.com/llmproxy/dialect-proxy/internal/config"
	"github.com/llmproxy/dialect-proxy/internal/core/constants"
	"github.com/llmproxy/dialect-proxy/internal/core/domain"
	"github.com/llmproxy/dialect-proxy/internal/core/ports"
	"github.com/llmproxy/dialect-proxy/internal/ingress"
	"github.com/llmproxy/dialect-proxy/internal/logger"
	"github.com/llmproxy/dialect-proxy/internal/pipeline"
	"github.com/llmproxy/dialect-proxy/internal/router"
	"github.com/llmproxy/dialect-proxy/pkg/container"
)

// Application owns the configured HTTP server and the request pipeline
// behind it, with a clean start/stop split for graceful shutdown.
type Application struct {
	startTime time.Time
	log       *logger.StyledLogger

	cfg    *config.Config
	server *http.Server

	pipeline *pipeline.Pipeline
}

// New resolves routes from the already-loaded configuration and wires the
// full resolver -> pipeline -> ingress -> router chain. It does not start
// listening; call Start for that.
func New(startTime time.Time, cfg *config.Config, log *logger.StyledLogger) (*Application, error) {
	domainRoutes := config.ToDomainRoutes(cfg)
	resolver := route.New(domainRoutes)

	headerRewriter := headerrule.New()
	bodyRewriter := bodyrule.New(log)
	upstreamClient := upstream.NewClient(log)
	retryExecutor := retry.NewExecutor(log)
	anthropicTranslator := anthropic.NewTranslator(log)

	converters := map[domain.Dialect]ports.FormatConverter{
		domain.DialectAnthropic: anthropicTranslator,
	}

	proxyPipeline := pipeline.New(resolver, headerRewriter, bodyRewriter, upstreamClient, retryExecutor, converters, log)

	handlers := ingress.New(proxyPipeline, anthropicTranslator, log)

	mux := http.NewServeMux()
	registry := router.NewRouteRegistry(log)
	registry.RegisterWithMethod(constants.PathIngressOpenAI, handlers.OpenAIChatCompletions, "OpenAI-dialect chat completions", http.MethodPost)
	registry.RegisterWithMethod(constants.PathIngressAnthropic, handlers.AnthropicMessages, "Anthropic-dialect messages", http.MethodPost)
	registry.Register(constants.PathHealth, handlers.Health, "liveness check")
	registry.WireUp(mux)

	handler := middleware.AccessLoggingMiddleware(log)(
		middleware.EnhancedLoggingMiddleware(log)(
			middleware.BodyLimitMiddleware(cfg.Server.MaxBodyBytes)(mux),
		),
	)

	server := &http.Server{
		Addr:         cfg.Server.GetAddress(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Application{
		startTime: startTime,
		log:       log,
		cfg:       cfg,
		server:    server,
		pipeline:  proxyPipeline,
	}, nil
}

// Start begins listening in a background goroutine and returns immediately;
// a listen failure after startup is logged rather than returned, matching
// the fire-and-forget shape http.Server.ListenAndServe expects.
func (a *Application) Start(ctx context.Context) error {
	a.log.Info("Starting server", "address", a.server.Addr, "routes", len(a.cfg.Routes), "containerised", container.IsContainerised())

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.log.Error("server exited unexpectedly", "error", err)
		}
	}()

	return nil
}

// Stop gracefully shuts the server down, waiting up to the configured
// shutdown timeout for in-flight requests to finish.
func (a *Application) Stop(ctx context.Context) error {
	timeout := a.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	a.log.Info("Shutting down server", "timeout", timeout.String())

	stats := a.pipeline.Stats()
	a.log.Info("Final request stats",
		"total", stats.TotalRequests,
		"successful", stats.SuccessfulRequests,
		"failed", stats.FailedRequests,
		"retried", stats.RetriedRequests)

	return a.server.Shutdown(shutdownCtx)
}
