package domain

// Route binds one incoming model name to one upstream Provider, plus the
// rewriting and resiliency policy applied along the way. Exactly one Route
// serves a given IncomingModel; first match wins when routes are scanned in
// configuration order.
type Route struct {
	IncomingModel   string
	SourceDialect   Dialect
	Provider        Provider
	RequestHeaders  HeaderRule
	ResponseHeaders HeaderRule
	RequestRules    TransformRule
	ResponseRules   TransformRule
	Client          ClientPolicy

	// LoggingOverride holds the route's own logging section from the config
	// file, when present. The pipeline does not read it; request and
	// response bodies are not logged for any route.
	LoggingOverride *LoggingPolicy
}

// Provider describes the upstream backend a Route forwards to.
type Provider struct {
	Dialect     Dialect
	BaseURL     string
	TargetModel string
	APIKey      string
}

// LoggingPolicy carries a route's logging settings as read from the config
// file; nothing in the request path consults it.
type LoggingPolicy struct {
	Level      string
	LogHeaders bool
	LogBodies  bool
}
