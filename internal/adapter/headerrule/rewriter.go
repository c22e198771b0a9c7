package headerrule

import (
	"net/http"

	"github.com/llmproxy/dialect-proxy/internal/core/domain"
)

// Rewriter applies a domain.HeaderRule to an http.Header in three passes:
// drop, then add-if-absent, then force-overwrite.
type Rewriter struct{}

func New() *Rewriter {
	return &Rewriter{}
}

// Rewrite mutates h in place.
func (r *Rewriter) Rewrite(h http.Header, rule domain.HeaderRule) {
	if rule.DropAll {
		for k := range h {
			h.Del(k)
		}
	} else {
		for _, name := range rule.Drop {
			h.Del(name)
		}
	}

	for name, value := range rule.Add {
		if h.Get(name) == "" {
			h.Set(name, value)
		}
	}

	for name, value := range rule.Force {
		h.Set(name, value)
	}
}
