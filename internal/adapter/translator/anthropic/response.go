package anthropic

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"

	"github.com/llmproxy/dialect-proxy/internal/logger"
)

// ConvertResponse parses a non-streaming OpenAI chat-completions response
// body and rewrites it as an Anthropic Messages response. originalModel is
// the model name the client originally requested, which Anthropic clients
// expect echoed back rather than whatever target model the route forwarded
// to upstream.
func (t *Translator) ConvertResponse(body []byte, originalModel string) ([]byte, error) {
	var respMap map[string]interface{}
	if err := json.Unmarshal(body, &respMap); err != nil {
		return nil, fmt.Errorf("parsing openai response: %w", err)
	}

	choices, ok := respMap["choices"].([]interface{})
	if !ok || len(choices) == 0 {
		return nil, fmt.Errorf("no choices in openai response")
	}

	choice, ok := choices[0].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid choice format")
	}

	message, ok := choice["message"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("no message in choice")
	}

	finishReason, _ := choice["finish_reason"].(string)

	anthropicResp := AnthropicResponse{
		ID:    responseMessageID(respMap, t.log),
		Type:  "message",
		Role:  "assistant",
		Model: originalModel,
	}

	content, stopReason := t.convertResponseContent(message, finishReason)
	anthropicResp.Content = content
	anthropicResp.StopReason = stopReason
	anthropicResp.StopSequence = nil

	if usage, ok := respMap["usage"].(map[string]interface{}); ok {
		anthropicResp.Usage = convertUsage(usage)
	}

	t.log.Debug("converted openai response to anthropic",
		"content_blocks", len(content),
		"stop_reason", stopReason,
		"input_tokens", anthropicResp.Usage.InputTokens,
		"output_tokens", anthropicResp.Usage.OutputTokens)

	return json.Marshal(anthropicResp)
}

// convertResponseContent maps OpenAI's text content and tool_calls onto
// Anthropic content blocks, and maps finishReason to the matching
// stop_reason. Anthropic requires at least one content block, so an empty
// result gets a single empty text block.
func (t *Translator) convertResponseContent(message map[string]interface{}, finishReason string) ([]ContentBlock, string) {
	var content []ContentBlock

	switch c := message["content"].(type) {
	case string:
		if c != "" {
			content = append(content, ContentBlock{Type: contentTypeText, Text: c})
		}
	case []interface{}:
		for _, raw := range c {
			blockMap, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			if text, ok := blockMap["text"].(string); ok && text != "" {
				content = append(content, ContentBlock{Type: contentTypeText, Text: text})
			}
		}
	}

	if toolCalls, ok := message["tool_calls"].([]interface{}); ok && len(toolCalls) > 0 {
		for _, tc := range toolCalls {
			toolCall, ok := tc.(map[string]interface{})
			if !ok {
				continue
			}
			if toolUse := t.convertToToolUse(toolCall); toolUse != nil {
				content = append(content, *toolUse)
			}
		}
	}

	if len(content) == 0 {
		content = append(content, ContentBlock{Type: contentTypeText, Text: ""})
	}

	return content, mapFinishReasonToStopReason(finishReason)
}

// mapFinishReasonToStopReason is shared by the buffered and streaming
// response paths so both terminate with the same Anthropic stop_reason for
// a given OpenAI finish_reason.
func mapFinishReasonToStopReason(finishReason string) string {
	switch finishReason {
	case "stop":
		return "end_turn"
	case "tool_calls", "function_call":
		return contentTypeToolUse
	case "length":
		return "max_tokens"
	default:
		return "end_turn"
	}
}

// convertToToolUse maps an OpenAI tool_call to an Anthropic tool_use
// content block, parsing the JSON-string arguments into a structured
// object. A malformed arguments string degrades to an empty input rather
// than failing the whole response.
func (t *Translator) convertToToolUse(toolCall map[string]interface{}) *ContentBlock {
	id, _ := toolCall["id"].(string)
	function, ok := toolCall["function"].(map[string]interface{})
	if !ok {
		return nil
	}

	name, _ := function["name"].(string)
	argsStr, _ := function["arguments"].(string)

	var input map[string]interface{}
	if err := json.Unmarshal([]byte(argsStr), &input); err != nil {
		t.log.Warn("failed to parse tool arguments, using empty input",
			"tool", name, "tool_id", id, "error", err)
		input = make(map[string]interface{})
	}

	return &ContentBlock{Type: contentTypeToolUse, ID: id, Name: name, Input: input}
}

// convertUsage maps OpenAI's prompt_tokens/completion_tokens onto
// Anthropic's input_tokens/output_tokens.
func convertUsage(usage map[string]interface{}) AnthropicUsage {
	promptTokens := 0
	completionTokens := 0

	if pt, ok := usage["prompt_tokens"].(float64); ok {
		promptTokens = int(pt)
	}
	if ct, ok := usage["completion_tokens"].(float64); ok {
		completionTokens = int(ct)
	}

	return AnthropicUsage{InputTokens: promptTokens, OutputTokens: completionTokens}
}

// responseMessageID derives the Anthropic message id from the upstream
// OpenAI response's own id, prefixing it with "msg_" unless it already
// carries that prefix. If upstream omitted an id entirely, a synthetic one
// is generated instead of leaving the field blank.
func responseMessageID(resp map[string]interface{}, log *logger.StyledLogger) string {
	id, _ := resp["id"].(string)
	if id == "" {
		return generateMessageID(log)
	}
	if strings.HasPrefix(id, "msg_") {
		return id
	}
	return "msg_" + id
}

// base58Alphabet excludes visually similar characters (0, O, I, l), matching
// Anthropic's own message ID alphabet.
const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// generateMessageID produces a synthetic id in Anthropic's "msg_01" +
// base58 format, used when an upstream response doesn't carry its own id.
// If crypto/rand is unavailable, it falls back to a uuid-derived id rather
// than a less random counter, so concurrent fallbacks still can't collide.
func generateMessageID(log *logger.StyledLogger) string {
	randomBytes := make([]byte, 16)
	if _, err := rand.Read(randomBytes); err != nil {
		log.Warn("failed to generate random bytes for message id, falling back to uuid", "error", err)
		return fmt.Sprintf("msg_01%s", uuid.New().String())
	}

	return fmt.Sprintf("msg_01%s", encodeBase58(randomBytes))
}

// encodeBase58 converts bytes to a base58 string, preserving leading-zero
// bytes as leading '1' characters the way Bitcoin-style base58 does.
func encodeBase58(input []byte) string {
	num := new(big.Int).SetBytes(input)

	if num.Sign() == 0 {
		return string(base58Alphabet[0])
	}

	var encoded []byte
	base := big.NewInt(58)
	zero := big.NewInt(0)
	mod := new(big.Int)

	for num.Cmp(zero) > 0 {
		num.DivMod(num, base, mod)
		encoded = append(encoded, base58Alphabet[mod.Int64()])
	}

	for _, b := range input {
		if b == 0 {
			encoded = append(encoded, base58Alphabet[0])
		} else {
			break
		}
	}

	for i, j := 0, len(encoded)-1; i < j; i, j = i+1, j-1 {
		encoded[i], encoded[j] = encoded[j], encoded[i]
	}

	return string(encoded)
}
