package upstream

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/llmproxy/dialect-proxy/internal/core/constants"
	"github.com/llmproxy/dialect-proxy/internal/core/domain"
	"github.com/llmproxy/dialect-proxy/internal/logger"
	"github.com/llmproxy/dialect-proxy/internal/util"
)

// Client implements ports.UpstreamClient: it sends a fully prepared request
// to a Route's provider using the pooled http.Client for that route's
// verifyTLS setting, enforcing the route's client timeout as the request
// deadline.
type Client struct {
	pool *ClientPool
	log  *logger.StyledLogger
}

func NewClient(log *logger.StyledLogger) *Client {
	return &Client{pool: NewClientPool(), log: log}
}

// BuildURL derives the upstream URL for route: its configured base URL plus
// the dialect-specific chat-completions path, per spec §4.7.
func BuildURL(route *domain.Route) (string, error) {
	var path string
	switch route.Provider.Dialect {
	case domain.DialectOpenAI:
		path = constants.PathOpenAIChatCompletions
	case domain.DialectAnthropic:
		path = constants.PathAnthropicMessages
	case domain.DialectOllama:
		path = constants.PathOllamaChat
	default:
		return "", fmt.Errorf("unknown provider dialect %q", route.Provider.Dialect)
	}

	return util.ResolveURLPath(route.Provider.BaseURL, path), nil
}

// FilterHopByHop strips headers that must never cross a proxy hop,
// irrespective of any configured HeaderRule.
func FilterHopByHop(h http.Header) {
	for name := range constants.HopByHopHeaders {
		h.Del(name)
	}
}

// Do sends req to route's upstream. When ctx carries no deadline of its own,
// the route's client timeout becomes the deadline for the whole exchange,
// including the caller's reads of the returned response body.
func (c *Client) Do(ctx context.Context, route *domain.Route, req *http.Request) (resp *http.Response, err error) {
	FilterHopByHop(req.Header)

	if route.Client.Timeout > 0 {
		if _, hasDeadline := ctx.Deadline(); !hasDeadline {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, route.Client.Timeout)
			// On success the body is still read under ctx after Do returns,
			// so the context is then released by its deadline, not here.
			defer func() {
				if err != nil {
					cancel()
				}
			}()
		}
	}

	req = req.WithContext(ctx)

	client := c.pool.Get(route.Client.VerifyTLS)

	start := time.Now()
	resp, err = client.Do(req)
	if err != nil {
		c.log.Debug("upstream request failed", "url", req.URL.String(), "elapsed", time.Since(start).String(), "error", err)
		return nil, &domain.ProxyError{Endpoint: req.URL.String(), Op: "upstream request", Err: err}
	}

	return resp, nil
}
