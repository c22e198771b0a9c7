package anthropic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llmproxy/dialect-proxy/internal/logger"
	"github.com/llmproxy/dialect-proxy/theme"
)

func testTranslator(t *testing.T) *Translator {
	l, _, err := logger.New(&logger.Config{Level: "error"})
	require.NoError(t, err)
	return NewTranslator(logger.NewStyledLogger(l, theme.Default()))
}

func TestConvertRequest_RenamesModelAndMapsBasicFields(t *testing.T) {
	tr := testTranslator(t)

	body := []byte(`{
		"model": "claude-3-sonnet",
		"max_tokens": 512,
		"stream": true,
		"messages": [{"role": "user", "content": "hi"}]
	}`)

	out, err := tr.ConvertRequest(body, "gpt-4o")
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"model": "gpt-4o",
		"max_completion_tokens": 512,
		"stream": true,
		"messages": [{"role": "user", "content": "hi"}]
	}`, string(out))
}

func TestConvertRequest_PrependsSystemPromptAsFirstMessage(t *testing.T) {
	tr := testTranslator(t)

	body := []byte(`{
		"model": "claude-3-sonnet",
		"max_tokens": 100,
		"system": "be terse",
		"messages": [{"role": "user", "content": "hi"}]
	}`)

	out, err := tr.ConvertRequest(body, "gpt-4o")
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"model": "gpt-4o",
		"max_completion_tokens": 100,
		"stream": false,
		"messages": [
			{"role": "system", "content": "be terse"},
			{"role": "user", "content": "hi"}
		]
	}`, string(out))
}

func TestConvertRequest_SplitsToolResultsIntoSeparateMessages(t *testing.T) {
	tr := testTranslator(t)

	body := []byte(`{
		"model": "claude-3-sonnet",
		"max_tokens": 100,
		"messages": [{
			"role": "user",
			"content": [
				{"type": "text", "text": "here"},
				{"type": "tool_result", "tool_use_id": "abc123", "content": "42"}
			]
		}]
	}`)

	out, err := tr.ConvertRequest(body, "gpt-4o")
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"model": "gpt-4o",
		"max_completion_tokens": 100,
		"stream": false,
		"messages": [
			{"role": "user", "content": "here"},
			{"role": "tool", "tool_call_id": "abc123", "content": "42"}
		]
	}`, string(out))
}

func TestConvertRequest_ConvertsAssistantToolUseToToolCalls(t *testing.T) {
	tr := testTranslator(t)

	body := []byte(`{
		"model": "claude-3-sonnet",
		"max_tokens": 100,
		"messages": [{
			"role": "assistant",
			"content": [
				{"type": "tool_use", "id": "tool_1", "name": "lookup", "input": {"q": "weather"}}
			]
		}]
	}`)

	out, err := tr.ConvertRequest(body, "gpt-4o")
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"model": "gpt-4o",
		"max_completion_tokens": 100,
		"stream": false,
		"messages": [{
			"role": "assistant",
			"content": null,
			"tool_calls": [{
				"id": "tool_1",
				"type": "function",
				"function": {"name": "lookup", "arguments": "{\"q\":\"weather\"}"}
			}]
		}]
	}`, string(out))
}

func TestConvertRequest_RejectsMissingModel(t *testing.T) {
	tr := testTranslator(t)

	_, err := tr.ConvertRequest([]byte(`{"max_tokens": 10, "messages": [{"role":"user","content":"hi"}]}`), "gpt-4o")

	assert.Error(t, err)
}

func TestConvertRequest_RejectsEmptyMessages(t *testing.T) {
	tr := testTranslator(t)

	_, err := tr.ConvertRequest([]byte(`{"model":"claude","max_tokens":10,"messages":[]}`), "gpt-4o")

	assert.Error(t, err)
}

func TestConvertRequest_ConvertsBase64ImageBlockToImageURL(t *testing.T) {
	tr := testTranslator(t)

	body := []byte(`{
		"model": "claude-3-sonnet",
		"max_tokens": 100,
		"messages": [{
			"role": "user",
			"content": [
				{"type": "text", "text": "what is this"},
				{"type": "image", "source": {"type": "base64", "media_type": "image/png", "data": "Zm9v"}}
			]
		}]
	}`)

	out, err := tr.ConvertRequest(body, "gpt-4o")
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"model": "gpt-4o",
		"max_completion_tokens": 100,
		"stream": false,
		"messages": [{
			"role": "user",
			"content": [
				{"type": "text", "text": "what is this"},
				{"type": "image_url", "image_url": {"url": "data:image/png;base64,Zm9v"}}
			]
		}]
	}`, string(out))
}
