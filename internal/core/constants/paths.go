package constants

// Upstream API paths, one per provider dialect. A route's provider type
// determines which of these is appended to its configured base URL.
const (
	PathOpenAIChatCompletions = "/v1/chat/completions"
	PathAnthropicMessages     = "/v1/messages"
	PathOllamaChat            = "/api/chat"
)

// Ingress paths this proxy listens on.
const (
	PathIngressOpenAI    = "/v1/chat/completions"
	PathIngressAnthropic = "/v1/messages"
	PathHealth           = "/health"
)
