package anthropic

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// flusher is satisfied by http.ResponseWriter (via http.Flusher) and by any
// other io.Writer that wants per-event flushing; writers that don't
// implement it (a bytes.Buffer in a test, for instance) are just never
// flushed, which is harmless since nothing downstream is blocking on it.
type flusher interface {
	Flush()
}

// streamingState tracks in-flight conversion state across one OpenAI SSE
// stream: the Anthropic content block currently open, buffered partial
// tool-call argument JSON, and running usage/finish-reason bookkeeping
// needed for the closing message_delta/message_stop events.
type streamingState struct {
	currentBlock     *ContentBlock
	toolCallBuffers  map[string]*strings.Builder
	messageID        string
	model            string
	lastFinishReason string
	contentBlocks    []ContentBlock
	currentIndex     int
	inputTokens      int
	outputTokens     int
	messageStartSent bool
}

// ConvertStream reads an OpenAI chat-completions SSE stream from upstream
// and writes the equivalent Anthropic Messages SSE stream to w, in the fixed
// event sequence Anthropic clients expect: message_start, then
// content_block_start/delta/stop pairs for each block, then a closing
// message_delta carrying stop_reason and usage, then message_stop.
// originalModel is echoed back in message_start rather than whatever target
// model the route actually forwarded to upstream.
func (t *Translator) ConvertStream(ctx context.Context, w io.Writer, upstream io.Reader, originalModel string) error {
	state := &streamingState{
		model:           originalModel,
		contentBlocks:   make([]ContentBlock, 0, 4),
		toolCallBuffers: make(map[string]*strings.Builder),
	}

	if err := t.consumeStream(ctx, upstream, w, state); err != nil {
		return err
	}

	if err := t.ensureMessageStartSent(state, w); err != nil {
		return err
	}

	return t.finalizeStream(state, w)
}

func (t *Translator) consumeStream(ctx context.Context, upstream io.Reader, w io.Writer, state *streamingState) error {
	scanner := bufio.NewScanner(upstream)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := t.processStreamLine(scanner.Text(), state, w); err != nil {
			t.log.Error("error processing stream line", "error", err)
			continue
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading openai stream: %w", err)
	}

	return nil
}

// processStreamLine handles one line of the upstream SSE body, routing
// content and tool_call deltas to their handlers and capturing the
// finish_reason/usage fields carried in OpenAI's final chunks.
func (t *Translator) processStreamLine(line string, state *streamingState, w io.Writer) error {
	if !strings.HasPrefix(line, "data: ") {
		return nil
	}

	data := strings.TrimPrefix(line, "data: ")
	if strings.TrimSpace(data) == "[DONE]" {
		return nil
	}

	var chunk map[string]interface{}
	if err := json.Unmarshal([]byte(data), &chunk); err != nil {
		t.log.Warn("malformed sse chunk, skipping", "error", err)
		return nil
	}

	if state.messageID == "" {
		if id, ok := chunk["id"].(string); ok && id != "" {
			if strings.HasPrefix(id, "msg_") {
				state.messageID = id
			} else {
				state.messageID = "msg_" + id
			}
		}
	}

	choices, ok := chunk["choices"].([]interface{})
	if !ok || len(choices) == 0 {
		return nil
	}

	choice, ok := choices[0].(map[string]interface{})
	if !ok {
		return nil
	}

	if finishReason, ok := choice["finish_reason"].(string); ok && finishReason != "" {
		state.lastFinishReason = finishReason
	}

	if usage, ok := chunk["usage"].(map[string]interface{}); ok {
		if promptTokens, ok := usage["prompt_tokens"].(float64); ok {
			state.inputTokens = int(promptTokens)
		}
		if completionTokens, ok := usage["completion_tokens"].(float64); ok {
			state.outputTokens = int(completionTokens)
		}
	}

	delta, ok := choice["delta"].(map[string]interface{})
	if !ok {
		return nil
	}

	if content, ok := delta["content"].(string); ok && content != "" {
		return t.handleContentDelta(content, state, w)
	}

	if toolCalls, ok := delta["tool_calls"].([]interface{}); ok {
		return t.handleToolCallsDelta(toolCalls, state, w)
	}

	return nil
}

func (t *Translator) ensureMessageStartSent(state *streamingState, w io.Writer) error {
	if state.messageStartSent {
		return nil
	}
	if state.messageID == "" {
		state.messageID = generateMessageID(t.log)
	}
	if err := t.writeEvent(w, "message_start", t.createMessageStart(state)); err != nil {
		return err
	}
	state.messageStartSent = true
	return nil
}

// handleContentDelta opens a text content block on first text (or after a
// different block type was open) and streams each chunk as a text_delta.
func (t *Translator) handleContentDelta(content string, state *streamingState, w io.Writer) error {
	if err := t.ensureMessageStartSent(state, w); err != nil {
		return err
	}

	if state.currentBlock == nil || state.currentBlock.Type != contentTypeText {
		if state.currentBlock != nil {
			if err := t.writeEvent(w, "content_block_stop", map[string]interface{}{
				"type": "content_block_stop", "index": state.currentIndex,
			}); err != nil {
				return err
			}
		}

		state.currentBlock = &ContentBlock{Type: contentTypeText, Text: ""}
		state.currentIndex = len(state.contentBlocks)
		state.contentBlocks = append(state.contentBlocks, *state.currentBlock)

		if err := t.writeEvent(w, "content_block_start", map[string]interface{}{
			"type":  "content_block_start",
			"index": state.currentIndex,
			"content_block": map[string]interface{}{
				"type": contentTypeText,
				"text": "",
			},
		}); err != nil {
			return err
		}
	}

	if err := t.writeEvent(w, "content_block_delta", map[string]interface{}{
		"type":  "content_block_delta",
		"index": state.currentIndex,
		"delta": map[string]interface{}{
			"type": "text_delta",
			"text": content,
		},
	}); err != nil {
		return err
	}

	state.currentBlock.Text += content
	state.contentBlocks[state.currentIndex] = *state.currentBlock
	state.outputTokens++

	return nil
}

// handleToolCallsDelta buffers each tool call's partial-JSON arguments
// (OpenAI streams them in fragments) and forwards them as
// input_json_delta events, keyed by OpenAI's per-call index.
func (t *Translator) handleToolCallsDelta(toolCalls []interface{}, state *streamingState, w io.Writer) error {
	if err := t.ensureMessageStartSent(state, w); err != nil {
		return err
	}

	for _, tc := range toolCalls {
		toolCall, ok := tc.(map[string]interface{})
		if !ok {
			continue
		}

		index, _ := toolCall["index"].(float64)
		toolID := fmt.Sprintf("tool_%d", int(index))
		if _, exists := state.toolCallBuffers[toolID]; !exists {
			state.toolCallBuffers[toolID] = &strings.Builder{}
		}

		function, ok := toolCall["function"].(map[string]interface{})
		if !ok {
			continue
		}

		if id, ok := toolCall["id"].(string); ok {
			if name, ok := function["name"].(string); ok {
				if state.currentBlock != nil {
					if err := t.writeEvent(w, "content_block_stop", map[string]interface{}{
						"type": "content_block_stop", "index": state.currentIndex,
					}); err != nil {
						return err
					}
				}

				state.currentBlock = &ContentBlock{Type: contentTypeToolUse, ID: id, Name: name}
				state.currentIndex = len(state.contentBlocks)
				state.contentBlocks = append(state.contentBlocks, *state.currentBlock)

				if err := t.writeEvent(w, "content_block_start", map[string]interface{}{
					"type":  "content_block_start",
					"index": state.currentIndex,
					"content_block": map[string]interface{}{
						"type": contentTypeToolUse,
						"id":   id,
						"name": name,
					},
				}); err != nil {
					return err
				}
			}
		}

		if args, ok := function["arguments"].(string); ok && args != "" {
			state.toolCallBuffers[toolID].WriteString(args)

			if err := t.writeEvent(w, "content_block_delta", map[string]interface{}{
				"type":  "content_block_delta",
				"index": state.currentIndex,
				"delta": map[string]interface{}{
					"type":         "input_json_delta",
					"partial_json": args,
				},
			}); err != nil {
				return err
			}
		}
	}

	return nil
}

// finalizeStream closes any still-open content block, resolves each
// buffered tool call's complete JSON arguments, and emits the closing
// message_delta (stop_reason, usage) and message_stop events.
func (t *Translator) finalizeStream(state *streamingState, w io.Writer) error {
	if state.currentBlock != nil {
		if err := t.writeEvent(w, "content_block_stop", map[string]interface{}{
			"type": "content_block_stop", "index": state.currentIndex,
		}); err != nil {
			return err
		}
	}

	for toolID, builder := range state.toolCallBuffers {
		argsJSON := builder.String()
		if argsJSON == "" {
			continue
		}
		var input map[string]interface{}
		if err := json.Unmarshal([]byte(argsJSON), &input); err != nil {
			continue
		}
		for i := range state.contentBlocks {
			if state.contentBlocks[i].Type == contentTypeToolUse && fmt.Sprintf("tool_%d", i) == toolID {
				state.contentBlocks[i].Input = input
				break
			}
		}
	}

	stopReason := mapFinishReasonToStopReason(state.lastFinishReason)

	if err := t.writeEvent(w, "message_delta", map[string]interface{}{
		"type": "message_delta",
		"delta": map[string]interface{}{
			"stop_reason":   stopReason,
			"stop_sequence": nil,
		},
		"usage": map[string]interface{}{
			"input_tokens":  state.inputTokens,
			"output_tokens": state.outputTokens,
		},
	}); err != nil {
		return err
	}

	return t.writeEvent(w, "message_stop", map[string]interface{}{"type": "message_stop"})
}

func (t *Translator) createMessageStart(state *streamingState) map[string]interface{} {
	return map[string]interface{}{
		"type": "message_start",
		"message": map[string]interface{}{
			"id":      state.messageID,
			"type":    "message",
			"role":    "assistant",
			"model":   state.model,
			"content": []interface{}{},
			"usage": map[string]interface{}{
				"input_tokens":  state.inputTokens,
				"output_tokens": 0,
			},
		},
	}
}

// writeEvent emits one SSE frame ("event: <name>\ndata: <json>\n\n") and
// flushes immediately if w supports it, since buffering an SSE stream
// defeats the point of streaming.
func (t *Translator) writeEvent(w io.Writer, event string, data interface{}) error {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshalling event data: %w", err)
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, dataJSON); err != nil {
		return fmt.Errorf("writing event: %w", err)
	}

	if f, ok := w.(flusher); ok {
		f.Flush()
	}

	return nil
}
