package domain

// Dialect identifies the wire format a route's client speaks, or the wire
// format its upstream provider speaks. The proxy converts between dialects
// when they differ; when they match, the request/response pass through
// unmodified beyond header and content rewriting.
type Dialect string

const (
	DialectOpenAI    Dialect = "openai"
	DialectAnthropic Dialect = "anthropic"
	DialectOllama    Dialect = "ollama"
)

func (d Dialect) Valid() bool {
	switch d {
	case DialectOpenAI, DialectAnthropic, DialectOllama:
		return true
	default:
		return false
	}
}

func (d Dialect) String() string {
	return string(d)
}
