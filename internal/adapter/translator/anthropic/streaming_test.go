package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertStream_EmitsTextDeltasInOrder(t *testing.T) {
	tr := testTranslator(t)

	upstream := strings.NewReader(
		"data: {\"id\":\"c1\",\"model\":\"gpt-4o\",\"choices\":[{\"delta\":{\"content\":\"hel\"}}]}\n" +
			"data: {\"id\":\"c1\",\"model\":\"gpt-4o\",\"choices\":[{\"delta\":{\"content\":\"lo\"},\"finish_reason\":\"stop\"}]}\n" +
			"data: [DONE]\n",
	)

	var out bytes.Buffer
	err := tr.ConvertStream(context.Background(), &out, upstream, "claude-3-sonnet")
	require.NoError(t, err)

	events := out.String()
	assert.Contains(t, events, "event: message_start")
	assert.Contains(t, events, `"id":"msg_c1"`)
	assert.Contains(t, events, `"model":"claude-3-sonnet"`)
	assert.Contains(t, events, "event: content_block_start")
	assert.Contains(t, events, `"text":"hel"`)
	assert.Contains(t, events, `"text":"lo"`)
	assert.Less(t, strings.Index(events, `"text":"hel"`), strings.Index(events, `"text":"lo"`))
	assert.Contains(t, events, "event: content_block_stop")
	assert.Contains(t, events, `"stop_reason":"end_turn"`)
	assert.Contains(t, events, "event: message_stop")
}

func toolCallChunk(t *testing.T, index int, id, name, args, finishReason string) string {
	toolCall := map[string]interface{}{"index": index}
	if id != "" {
		toolCall["id"] = id
	}
	function := map[string]interface{}{}
	if name != "" {
		function["name"] = name
	}
	if args != "" {
		function["arguments"] = args
	}
	toolCall["function"] = function

	choice := map[string]interface{}{"delta": map[string]interface{}{"tool_calls": []interface{}{toolCall}}}
	if finishReason != "" {
		choice["finish_reason"] = finishReason
	}

	b, err := json.Marshal(map[string]interface{}{"choices": []interface{}{choice}})
	require.NoError(t, err)
	return "data: " + string(b) + "\n"
}

func TestConvertStream_BuffersToolCallArgumentsAcrossChunks(t *testing.T) {
	tr := testTranslator(t)

	lines := toolCallChunk(t, 0, "call_1", "lookup", "", "") +
		toolCallChunk(t, 0, "", "", `{"q":`, "") +
		toolCallChunk(t, 0, "", "", `"weather"}`, "tool_calls")

	var out bytes.Buffer
	err := tr.ConvertStream(context.Background(), &out, strings.NewReader(lines), "claude-3-sonnet")
	require.NoError(t, err)

	events := out.String()
	assert.Contains(t, events, `"stop_reason":"tool_use"`)
	assert.Contains(t, events, "input_json_delta")
}

func TestConvertStream_EmptyStreamStillSendsStartAndStop(t *testing.T) {
	tr := testTranslator(t)

	var out bytes.Buffer
	err := tr.ConvertStream(context.Background(), &out, strings.NewReader(""), "claude-3-sonnet")
	require.NoError(t, err)

	events := out.String()
	assert.Contains(t, events, "event: message_start")
	assert.Contains(t, events, "event: message_stop")
}

func TestConvertStream_SkipsMalformedChunkWithoutAborting(t *testing.T) {
	tr := testTranslator(t)

	upstream := strings.NewReader(
		"data: {not valid json\n" +
			"data: {\"choices\":[{\"delta\":{\"content\":\"ok\"}}]}\n",
	)

	var out bytes.Buffer
	err := tr.ConvertStream(context.Background(), &out, upstream, "claude-3-sonnet")
	require.NoError(t, err)
	assert.Contains(t, out.String(), `"text":"ok"`)
}

func TestConvertStream_GeneratesMessageIDWhenNoChunkCarriesOne(t *testing.T) {
	tr := testTranslator(t)

	upstream := strings.NewReader(
		"data: {\"choices\":[{\"delta\":{\"content\":\"hi\"},\"finish_reason\":\"stop\"}]}\n",
	)

	var out bytes.Buffer
	err := tr.ConvertStream(context.Background(), &out, upstream, "claude-3-sonnet")
	require.NoError(t, err)
	assert.Regexp(t, `"id":"msg_01`, out.String())
}
