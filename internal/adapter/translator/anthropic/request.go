package anthropic

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ConvertRequest parses an Anthropic Messages request body and rewrites it
// as an OpenAI chat-completions request, renaming the model to targetModel
// as it goes so the route's configured upstream model name reaches the
// provider rather than the client-facing alias.
func (t *Translator) ConvertRequest(body []byte, targetModel string) ([]byte, error) {
	var anthropicReq AnthropicRequest
	if err := json.Unmarshal(body, &anthropicReq); err != nil {
		return nil, fmt.Errorf("parsing anthropic request: %w", err)
	}

	if err := anthropicReq.Validate(); err != nil {
		return nil, fmt.Errorf("invalid anthropic request: %w", err)
	}

	openaiReq := make(map[string]interface{})

	if targetModel != "" {
		openaiReq["model"] = targetModel
	} else {
		openaiReq["model"] = anthropicReq.Model
	}
	openaiReq["max_completion_tokens"] = anthropicReq.MaxTokens
	openaiReq["stream"] = anthropicReq.Stream

	if anthropicReq.Temperature != nil {
		openaiReq["temperature"] = *anthropicReq.Temperature
	}
	if anthropicReq.TopP != nil {
		openaiReq["top_p"] = *anthropicReq.TopP
	}
	if len(anthropicReq.StopSequences) > 0 {
		openaiReq["stop"] = anthropicReq.StopSequences
	}

	openaiMessages, err := t.convertMessages(anthropicReq.Messages, anthropicReq.System)
	if err != nil {
		return nil, fmt.Errorf("converting messages: %w", err)
	}
	openaiReq["messages"] = openaiMessages

	if len(anthropicReq.Tools) > 0 {
		openaiTools, err := t.convertTools(anthropicReq.Tools)
		if err != nil {
			return nil, fmt.Errorf("converting tools: %w", err)
		}
		openaiReq["tools"] = openaiTools

		if anthropicReq.ToolChoice != nil {
			openaiToolChoice, err := t.convertToolChoice(anthropicReq.ToolChoice)
			if err != nil {
				return nil, fmt.Errorf("converting tool_choice: %w", err)
			}
			openaiReq["tool_choice"] = openaiToolChoice
		}
	}

	t.log.Debug("converted anthropic request to openai",
		"model", targetModel,
		"message_count", len(anthropicReq.Messages),
		"has_tools", len(anthropicReq.Tools) > 0,
		"streaming", anthropicReq.Stream)

	return json.Marshal(openaiReq)
}

// convertMessages prepends the system prompt as an OpenAI system message,
// then converts each Anthropic message in order.
func (t *Translator) convertMessages(anthropicMessages []AnthropicMessage, systemPrompt interface{}) ([]map[string]interface{}, error) {
	openaiMessages := make([]map[string]interface{}, 0, len(anthropicMessages)+1)

	if systemPrompt != nil {
		if systemContent := t.convertSystemPrompt(systemPrompt); systemContent != nil {
			openaiMessages = append(openaiMessages, map[string]interface{}{
				"role":    "system",
				"content": systemContent,
			})
		}
	}

	for _, msg := range anthropicMessages {
		converted, err := t.convertSingleMessage(msg)
		if err != nil {
			return nil, err
		}
		openaiMessages = append(openaiMessages, converted...)
	}

	return openaiMessages, nil
}

// convertSingleMessage may expand one Anthropic message into several OpenAI
// messages, since tool results arrive as content blocks on an Anthropic user
// message but OpenAI wants each as its own "tool"-role message.
func (t *Translator) convertSingleMessage(msg AnthropicMessage) ([]map[string]interface{}, error) {
	result := make([]map[string]interface{}, 0, 2)

	if contentStr, ok := msg.Content.(string); ok {
		if contentStr != "" {
			result = append(result, map[string]interface{}{
				"role":    msg.Role,
				"content": contentStr,
			})
		}
		return result, nil
	}

	contentBlocks, ok := msg.Content.([]interface{})
	if !ok {
		if contentMap, ok := msg.Content.(map[string]interface{}); ok {
			contentBlocks = []interface{}{contentMap}
		} else {
			return nil, fmt.Errorf("invalid message content type: %T", msg.Content)
		}
	}

	switch msg.Role {
	case "user":
		userMsg, toolMsgs := t.convertUserMessage(contentBlocks)
		if userMsg != nil {
			result = append(result, userMsg)
		}
		result = append(result, toolMsgs...)
	case "assistant":
		if assistantMsg := t.convertAssistantMessage(contentBlocks); assistantMsg != nil {
			result = append(result, assistantMsg)
		}
	}

	return result, nil
}

// convertUserMessage splits a user message's content blocks into the text
// portion (kept on the user message) and any tool_result blocks, which
// OpenAI expects as separate "tool"-role messages keyed by tool_call_id.
func (t *Translator) convertUserMessage(blocks []interface{}) (map[string]interface{}, []map[string]interface{}) {
	var textParts []string
	var imageParts []map[string]interface{}
	var toolResults []map[string]interface{}

	for _, block := range blocks {
		blockMap, ok := block.(map[string]interface{})
		if !ok {
			continue
		}

		switch blockType, _ := blockMap["type"].(string); blockType {
		case contentTypeText:
			if text, ok := blockMap["text"].(string); ok && text != "" {
				textParts = append(textParts, text)
			}
		case contentTypeToolResult:
			toolUseID, _ := blockMap["tool_use_id"].(string)

			content := ""
			if contentStr, ok := blockMap["content"].(string); ok {
				content = contentStr
			} else if contentObj := blockMap["content"]; contentObj != nil {
				if contentBytes, err := json.Marshal(contentObj); err == nil {
					content = string(contentBytes)
				}
			}

			toolResults = append(toolResults, map[string]interface{}{
				"role":         "tool",
				"tool_call_id": toolUseID,
				"content":      content,
			})
		case contentTypeImage:
			if imagePart := t.convertImageBlock(blockMap); imagePart != nil {
				imageParts = append(imageParts, imagePart)
			}
		}
	}

	var userMsg map[string]interface{}
	switch {
	case len(imageParts) > 0:
		parts := make([]map[string]interface{}, 0, len(textParts)+len(imageParts))
		for _, text := range textParts {
			parts = append(parts, map[string]interface{}{"type": "text", "text": text})
		}
		parts = append(parts, imageParts...)
		userMsg = map[string]interface{}{"role": "user", "content": parts}
	case len(textParts) == 1:
		userMsg = map[string]interface{}{
			"role":    "user",
			"content": textParts[0],
		}
	case len(textParts) > 1:
		parts := make([]map[string]interface{}, 0, len(textParts))
		for _, text := range textParts {
			parts = append(parts, map[string]interface{}{"type": "text", "text": text})
		}
		userMsg = map[string]interface{}{"role": "user", "content": parts}
	}

	return userMsg, toolResults
}

// convertImageBlock maps an Anthropic base64 image block to OpenAI's
// image_url content part, inlining the data as a data: URI. Anthropic's
// only other source type, "url", has no direct OpenAI equivalent for
// inline messages and is dropped rather than guessed at.
func (t *Translator) convertImageBlock(blockMap map[string]interface{}) map[string]interface{} {
	source, ok := blockMap["source"].(map[string]interface{})
	if !ok {
		return nil
	}

	sourceType, _ := source["type"].(string)
	if sourceType != "base64" {
		t.log.Debug("image source type not supported, dropping block", "source_type", sourceType)
		return nil
	}

	mediaType, _ := source["media_type"].(string)
	data, _ := source["data"].(string)
	if mediaType == "" || data == "" {
		return nil
	}

	return map[string]interface{}{
		"type": "image_url",
		"image_url": map[string]interface{}{
			"url": fmt.Sprintf("data:%s;base64,%s", mediaType, data),
		},
	}
}

// convertAssistantMessage merges an assistant message's text and tool_use
// blocks into a single OpenAI message; OpenAI represents "text plus tool
// calls" as one message with both a content string and a tool_calls array.
func (t *Translator) convertAssistantMessage(blocks []interface{}) map[string]interface{} {
	msg := map[string]interface{}{"role": "assistant"}

	var textContent string
	var toolCalls []map[string]interface{}

	for _, block := range blocks {
		blockMap, ok := block.(map[string]interface{})
		if !ok {
			continue
		}

		switch blockType, _ := blockMap["type"].(string); blockType {
		case contentTypeText:
			if text, ok := blockMap["text"].(string); ok {
				textContent += text
			}
		case contentTypeToolUse:
			if toolCall := t.convertToolUse(blockMap); toolCall != nil {
				toolCalls = append(toolCalls, toolCall)
			}
		}
	}

	if textContent != "" {
		msg["content"] = textContent
	} else if len(toolCalls) > 0 {
		msg["content"] = nil
	}

	if len(toolCalls) > 0 {
		msg["tool_calls"] = toolCalls
	}

	return msg
}

// convertToolUse maps an Anthropic tool_use content block to an OpenAI
// tool_call, serialising the input object to a JSON string since that's the
// form OpenAI's function-calling arguments field expects.
func (t *Translator) convertToolUse(block map[string]interface{}) map[string]interface{} {
	id, _ := block["id"].(string)
	name, _ := block["name"].(string)
	input, _ := block["input"].(map[string]interface{})

	if id == "" || name == "" {
		return nil
	}

	inputJSON, err := json.Marshal(input)
	if err != nil {
		t.log.Warn("failed to marshal tool input, using empty object", "error", err)
		inputJSON = []byte("{}")
	}

	return map[string]interface{}{
		"id":   id,
		"type": openAITypeFunction,
		"function": map[string]interface{}{
			"name":      name,
			"arguments": string(inputJSON),
		},
	}
}

// convertSystemPrompt flattens a string-or-content-blocks system prompt into
// the plain string OpenAI expects as its system message content.
func (t *Translator) convertSystemPrompt(systemPrompt interface{}) interface{} {
	var textParts []string

	_ = forEachSystemContentBlock(systemPrompt, func(block ContentBlock) error {
		if block.Type == contentTypeText && block.Text != "" {
			textParts = append(textParts, block.Text)
		}
		return nil
	})

	if len(textParts) == 0 {
		return nil
	}

	return strings.Join(textParts, "\n")
}

// forEachSystemContentBlock normalises the several shapes a "system" field
// can arrive in (a plain string, a []ContentBlock, or the []interface{}
// produced by decoding arbitrary JSON into `any`) and calls fn once per
// block in order.
func forEachSystemContentBlock(system interface{}, fn func(ContentBlock) error) error {
	switch v := system.(type) {
	case string:
		return fn(ContentBlock{Type: contentTypeText, Text: v})
	case []ContentBlock:
		for _, block := range v {
			if err := fn(block); err != nil {
				return err
			}
		}
		return nil
	case []interface{}:
		for _, raw := range v {
			blockMap, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			blockType, _ := blockMap["type"].(string)
			text, _ := blockMap["text"].(string)
			if err := fn(ContentBlock{Type: blockType, Text: text}); err != nil {
				return err
			}
		}
		return nil
	default:
		return nil
	}
}
