package route

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llmproxy/dialect-proxy/internal/core/domain"
)

func TestResolve_FindsConfiguredRoute(t *testing.T) {
	r := New([]*domain.Route{
		{IncomingModel: "claude-3-sonnet", Provider: domain.Provider{Dialect: domain.DialectOllama}},
	})

	route, err := r.Resolve("claude-3-sonnet")

	require.NoError(t, err)
	assert.Equal(t, domain.DialectOllama, route.Provider.Dialect)
}

func TestResolve_UnknownModelReturnsRouteNotFoundError(t *testing.T) {
	r := New([]*domain.Route{
		{IncomingModel: "claude-3-sonnet"},
	})

	_, err := r.Resolve("gpt-4o")

	require.Error(t, err)
	var notFound *domain.RouteNotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestResolve_IsCaseSensitive(t *testing.T) {
	r := New([]*domain.Route{
		{IncomingModel: "Claude-3-Sonnet"},
	})

	_, err := r.Resolve("claude-3-sonnet")

	assert.Error(t, err)
}

func TestNew_FirstMatchWinsOnDuplicateModel(t *testing.T) {
	first := &domain.Route{IncomingModel: "dup", Provider: domain.Provider{TargetModel: "first"}}
	second := &domain.Route{IncomingModel: "dup", Provider: domain.Provider{TargetModel: "second"}}

	r := New([]*domain.Route{first, second})

	route, err := r.Resolve("dup")

	require.NoError(t, err)
	assert.Equal(t, "first", route.Provider.TargetModel)
}
