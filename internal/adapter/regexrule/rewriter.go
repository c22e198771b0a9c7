package regexrule

import (
	"regexp"
	"sync"

	"github.com/llmproxy/dialect-proxy/internal/core/domain"
	"github.com/llmproxy/dialect-proxy/internal/logger"
)

// Rewriter applies a list of regex find/replace passes to a raw request or
// response body: each RegexReplacement runs in declaration order against
// the body produced by the previous one. The pipeline runs these passes
// after the JSON-path operations, over the re-serialized body.
//
// Compiled patterns are cached since the same Route's rules run on every
// request it serves.
type Rewriter struct {
	log   *logger.StyledLogger
	mu    sync.RWMutex
	cache map[string]*regexp.Regexp
}

func New(log *logger.StyledLogger) *Rewriter {
	return &Rewriter{
		log:   log,
		cache: make(map[string]*regexp.Regexp),
	}
}

// RewriteRegex applies each replacement in order and returns the resulting
// body. A pattern that fails to compile is logged and skipped, matching the
// original transformer's suppress-and-continue behaviour — a single bad
// rule shouldn't take the whole route down.
func (r *Rewriter) RewriteRegex(body []byte, rules []domain.RegexReplacement) []byte {
	if len(rules) == 0 {
		return body
	}

	result := body
	for _, rule := range rules {
		re, err := r.compile(rule.Pattern)
		if err != nil {
			r.log.Warn("skipping invalid regex replacement", "pattern", rule.Pattern, "error", err)
			continue
		}
		result = re.ReplaceAll(result, []byte(rule.Replacement))
	}
	return result
}

func (r *Rewriter) compile(pattern string) (*regexp.Regexp, error) {
	r.mu.RLock()
	re, ok := r.cache[pattern]
	r.mu.RUnlock()
	if ok {
		return re, nil
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cache[pattern] = re
	r.mu.Unlock()

	return re, nil
}
