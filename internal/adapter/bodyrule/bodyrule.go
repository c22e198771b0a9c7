// Package bodyrule combines the regex and JSON-path body rewriters behind
// the single ports.BodyRewriter interface the pipeline depends on. Each
// concern is its own adapter with its own test suite; this just wires them
// together so the pipeline doesn't have to hold two separate fields.
package bodyrule

import (
	"github.com/llmproxy/dialect-proxy/internal/adapter/jsonpathrule"
	"github.com/llmproxy/dialect-proxy/internal/adapter/regexrule"
	"github.com/llmproxy/dialect-proxy/internal/core/domain"
	"github.com/llmproxy/dialect-proxy/internal/logger"
)

// Rewriter implements ports.BodyRewriter by delegating to a regexrule.Rewriter
// and a jsonpathrule.Rewriter.
type Rewriter struct {
	regex    *regexrule.Rewriter
	jsonpath *jsonpathrule.Rewriter
}

func New(log *logger.StyledLogger) *Rewriter {
	return &Rewriter{
		regex:    regexrule.New(log),
		jsonpath: jsonpathrule.New(log),
	}
}

func (r *Rewriter) RewriteRegex(body []byte, rules []domain.RegexReplacement) []byte {
	return r.regex.RewriteRegex(body, rules)
}

func (r *Rewriter) RewriteJSONPath(body []byte, ops []domain.JSONPathOp) ([]byte, error) {
	return r.jsonpath.RewriteJSONPath(body, ops)
}
