package anthropic

const (
	contentTypeText       = "text"
	contentTypeToolUse    = "tool_use"
	contentTypeToolResult = "tool_result"
	contentTypeImage      = "image"
)

const (
	toolChoiceAuto = "auto"
	toolChoiceAny  = "any"
	toolChoiceNone = "none"
	toolChoiceTool = "tool"
)

const (
	openAIToolChoiceRequired = "required"
	openAIToolChoiceAuto     = "auto"
	openAIToolChoiceNone     = "none"
)

const (
	openAITypeFunction = "function"
)

const (
	// Not read by any code path; inbound body size is bounded by
	// middleware.BodyLimitMiddleware instead.
	maxAnthropicRequestSize = 10 << 20 // 10MB
)
