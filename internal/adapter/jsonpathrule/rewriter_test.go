package jsonpathrule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llmproxy/dialect-proxy/internal/core/domain"
	"github.com/llmproxy/dialect-proxy/internal/logger"
	"github.com/llmproxy/dialect-proxy/theme"
)

func testLogger() *logger.StyledLogger {
	l, _, err := logger.New(&logger.Config{Level: "error"})
	if err != nil {
		panic(err)
	}
	return logger.NewStyledLogger(l, theme.Default())
}

func TestRewriteJSONPath_AddsTopLevelField(t *testing.T) {
	r := New(testLogger())

	out, err := r.RewriteJSONPath([]byte(`{"model":"gpt-4o"}`), []domain.JSONPathOp{
		{Op: domain.JSONPathOpAdd, Path: "$.stream", Value: true},
	})

	require.NoError(t, err)
	assert.JSONEq(t, `{"model":"gpt-4o","stream":true}`, string(out))
}

func TestRewriteJSONPath_AddsNestedFieldCreatingParents(t *testing.T) {
	r := New(testLogger())

	out, err := r.RewriteJSONPath([]byte(`{}`), []domain.JSONPathOp{
		{Op: domain.JSONPathOpAdd, Path: "options.temperature", Value: 0.7},
	})

	require.NoError(t, err)
	assert.JSONEq(t, `{"options":{"temperature":0.7}}`, string(out))
}

func TestRewriteJSONPath_RemovesExistingField(t *testing.T) {
	r := New(testLogger())

	out, err := r.RewriteJSONPath([]byte(`{"model":"gpt-4o","debug":true}`), []domain.JSONPathOp{
		{Op: domain.JSONPathOpRemove, Path: "$.debug"},
	})

	require.NoError(t, err)
	assert.JSONEq(t, `{"model":"gpt-4o"}`, string(out))
}

func TestRewriteJSONPath_RemoveMissingPathIsANoop(t *testing.T) {
	r := New(testLogger())

	out, err := r.RewriteJSONPath([]byte(`{"model":"gpt-4o"}`), []domain.JSONPathOp{
		{Op: domain.JSONPathOpRemove, Path: "$.nonexistent"},
	})

	require.NoError(t, err)
	assert.JSONEq(t, `{"model":"gpt-4o"}`, string(out))
}

func TestRewriteJSONPath_NoOpsReturnsBodyUnchanged(t *testing.T) {
	r := New(testLogger())

	out, err := r.RewriteJSONPath([]byte(`{"a":1}`), nil)

	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(out))
}

func TestRewriteJSONPath_RemovesArrayElement(t *testing.T) {
	r := New(testLogger())

	out, err := r.RewriteJSONPath([]byte(`{"messages":[{"role":"system"},{"role":"user"}]}`), []domain.JSONPathOp{
		{Op: domain.JSONPathOpRemove, Path: "$.messages[0]"},
	})

	require.NoError(t, err)
	assert.JSONEq(t, `{"messages":[{"role":"user"}]}`, string(out))
}

func TestRewriteJSONPath_RemovesEveryFieldMatchedByWildcard(t *testing.T) {
	r := New(testLogger())

	out, err := r.RewriteJSONPath([]byte(`{"messages":[{"role":"system","debug":true},{"role":"user","debug":true}]}`), []domain.JSONPathOp{
		{Op: domain.JSONPathOpRemove, Path: "$.messages[*].debug"},
	})

	require.NoError(t, err)
	assert.JSONEq(t, `{"messages":[{"role":"system"},{"role":"user"}]}`, string(out))
}

func TestRewriteJSONPath_RemoveRejectsFilterExpression(t *testing.T) {
	r := New(testLogger())

	out, err := r.RewriteJSONPath([]byte(`{"messages":[{"role":"system"}]}`), []domain.JSONPathOp{
		{Op: domain.JSONPathOpRemove, Path: "$.messages[?(@.role=='system')]"},
	})

	require.NoError(t, err)
	assert.JSONEq(t, `{"messages":[{"role":"system"}]}`, string(out))
}

func TestParsePath_HandlesArrayIndices(t *testing.T) {
	segs, err := parsePath("$.messages[0].role")

	require.NoError(t, err)
	require.Len(t, segs, 3)
	assert.Equal(t, "messages", segs[0].field)
	assert.True(t, segs[1].isIdx)
	assert.Equal(t, 0, segs[1].index)
	assert.Equal(t, "role", segs[2].field)
}

func TestParsePath_HandlesWildcards(t *testing.T) {
	segs, err := parsePath("$.messages[*].debug")

	require.NoError(t, err)
	require.Len(t, segs, 3)
	assert.Equal(t, "messages", segs[0].field)
	assert.True(t, segs[1].isIdx)
	assert.True(t, segs[1].isWildcard)
	assert.Equal(t, "debug", segs[2].field)
}
