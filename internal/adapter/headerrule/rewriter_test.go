package headerrule

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/llmproxy/dialect-proxy/internal/core/domain"
)

func TestRewrite_DropNamedHeaders(t *testing.T) {
	h := http.Header{}
	h.Set("X-Api-Key", "secret")
	h.Set("User-Agent", "curl")

	New().Rewrite(h, domain.HeaderRule{Drop: []string{"X-Api-Key"}})

	assert.Empty(t, h.Get("X-Api-Key"))
	assert.Equal(t, "curl", h.Get("User-Agent"))
}

func TestRewrite_DropAllDiscardsEverything(t *testing.T) {
	h := http.Header{}
	h.Set("X-Api-Key", "secret")
	h.Set("User-Agent", "curl")

	New().Rewrite(h, domain.HeaderRule{DropAll: true})

	assert.Empty(t, h)
}

func TestRewrite_AddOnlySetsWhenAbsent(t *testing.T) {
	h := http.Header{}
	h.Set("Accept", "text/plain")

	New().Rewrite(h, domain.HeaderRule{Add: map[string]string{
		"Accept":       "application/json",
		"X-Proxy-Name": "dialect-proxy",
	}})

	assert.Equal(t, "text/plain", h.Get("Accept"))
	assert.Equal(t, "dialect-proxy", h.Get("X-Proxy-Name"))
}

func TestRewrite_ForceOverwritesRegardless(t *testing.T) {
	h := http.Header{}
	h.Set("Content-Type", "text/plain")

	New().Rewrite(h, domain.HeaderRule{Force: map[string]string{
		"Content-Type": "application/json",
	}})

	assert.Equal(t, "application/json", h.Get("Content-Type"))
}

func TestRewrite_ForceRunsAfterAdd(t *testing.T) {
	h := http.Header{}

	New().Rewrite(h, domain.HeaderRule{
		Add:   map[string]string{"Authorization": "Bearer from-add"},
		Force: map[string]string{"Authorization": "Bearer from-force"},
	})

	assert.Equal(t, "Bearer from-force", h.Get("Authorization"))
}
