package upstream

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llmproxy/dialect-proxy/internal/core/domain"
)

func TestBuildURL_PerDialectPath(t *testing.T) {
	cases := []struct {
		dialect domain.Dialect
		want    string
	}{
		{domain.DialectOpenAI, "http://upstream/v1/chat/completions"},
		{domain.DialectAnthropic, "http://upstream/v1/messages"},
		{domain.DialectOllama, "http://upstream/api/chat"},
	}

	for _, tc := range cases {
		route := &domain.Route{Provider: domain.Provider{Dialect: tc.dialect, BaseURL: "http://upstream"}}
		got, err := BuildURL(route)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}
}

func TestBuildURL_UnknownDialectErrors(t *testing.T) {
	route := &domain.Route{Provider: domain.Provider{Dialect: "carrier-pigeon", BaseURL: "http://upstream"}}
	_, err := BuildURL(route)
	assert.Error(t, err)
}

func TestFilterHopByHop_RemovesOnlyHopByHopHeaders(t *testing.T) {
	h := http.Header{}
	h.Set("Connection", "keep-alive")
	h.Set("Transfer-Encoding", "chunked")
	h.Set("Authorization", "Bearer token")

	FilterHopByHop(h)

	assert.Empty(t, h.Get("Connection"))
	assert.Empty(t, h.Get("Transfer-Encoding"))
	assert.Equal(t, "Bearer token", h.Get("Authorization"))
}
