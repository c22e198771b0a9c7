package config

import (
	"time"

	"github.com/llmproxy/dialect-proxy/internal/core/domain"
)

// ToDomainRoutes converts the configuration-file route list into the
// domain.Route values the rest of the proxy operates on, applying defaults
// (Anthropic ingress dialect, DefaultClientPolicy) where the file is silent.
// A timeout_ms or retries of 0 is treated like an absent one and gets the
// default, so the file cannot set a route's retries to 0.
func ToDomainRoutes(cfg *Config) []*domain.Route {
	routes := make([]*domain.Route, 0, len(cfg.Routes))
	for _, rc := range cfg.Routes {
		routes = append(routes, toDomainRoute(rc))
	}
	return routes
}

func toDomainRoute(rc RouteConfig) *domain.Route {
	sourceDialect := domain.DialectAnthropic
	if rc.SourceDialect != "" {
		sourceDialect = domain.Dialect(rc.SourceDialect)
	}

	route := &domain.Route{
		IncomingModel: rc.IncomingModel,
		SourceDialect: sourceDialect,
		Provider: domain.Provider{
			Dialect:     domain.Dialect(rc.Provider.Type),
			BaseURL:     rc.Provider.BaseURL,
			TargetModel: rc.Provider.TargetModel,
			APIKey:      rc.Provider.APIKey,
		},
		RequestHeaders:  toDomainHeaderRule(rc.RequestHeaders),
		ResponseHeaders: toDomainHeaderRule(rc.ResponseHeaders),
		RequestRules:    toDomainTransformRule(rc.RequestRules),
		ResponseRules:   toDomainTransformRule(rc.ResponseRules),
		Client:          toDomainClientPolicy(rc.Client),
	}

	if rc.Logging != nil {
		route.LoggingOverride = &domain.LoggingPolicy{
			Level:      rc.Logging.Level,
			LogHeaders: rc.Logging.LogHeaders,
			LogBodies:  rc.Logging.LogBodies,
		}
	}

	return route
}

func toDomainHeaderRule(hc HeaderConfig) domain.HeaderRule {
	return domain.HeaderRule{
		DropAll: hc.DropAll,
		Drop:    hc.Drop,
		Add:     hc.Add,
		Force:   hc.Force,
	}
}

func toDomainTransformRule(tc TransformationConfig) domain.TransformRule {
	rule := domain.TransformRule{}
	for _, rr := range tc.RegexReplacements {
		rule.RegexReplacements = append(rule.RegexReplacements, domain.RegexReplacement{
			Pattern:     rr.Pattern,
			Replacement: rr.Replacement,
		})
	}
	for _, op := range tc.JSONPathOps {
		rule.JSONPathOps = append(rule.JSONPathOps, domain.JSONPathOp{
			Op:    domain.JSONPathOpType(op.Op),
			Path:  op.Path,
			Value: op.Value,
		})
	}
	return rule
}

func toDomainClientPolicy(cc ClientConfig) domain.ClientPolicy {
	policy := domain.DefaultClientPolicy()
	if cc.TimeoutMS > 0 {
		policy.Timeout = time.Duration(cc.TimeoutMS) * time.Millisecond
	}
	if cc.Retries > 0 {
		policy.MaxRetries = cc.Retries
	}
	if cc.VerifySSL != nil {
		policy.VerifyTLS = *cc.VerifySSL
	}
	return policy
}
