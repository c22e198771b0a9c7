package config

import (
	"fmt"
	"strings"

	"github.com/llmproxy/dialect-proxy/internal/core/domain"
)

// Validate checks the loaded configuration for the minimum a route needs to
// be usable: a non-empty route list, a non-blank incoming model, and a
// provider with a known type and a non-blank base URL.
func Validate(cfg *Config) error {
	if len(cfg.Routes) == 0 {
		return domain.NewConfigValidationError("routes", "at least one route must be configured")
	}

	for i, r := range cfg.Routes {
		if strings.TrimSpace(r.IncomingModel) == "" {
			return domain.NewConfigValidationError(fmt.Sprintf("routes[%d].incoming_model", i), "must not be blank")
		}

		// incoming_model need not be unique across routes - the resolver
		// scans in declaration order and returns the first match, which
		// lets operators shadow an entry during a migration.
		if !domain.Dialect(r.Provider.Type).Valid() {
			return domain.NewConfigValidationError(fmt.Sprintf("routes[%d].provider.type", i), fmt.Sprintf("unknown provider type %q", r.Provider.Type))
		}
		if strings.TrimSpace(r.Provider.BaseURL) == "" {
			return domain.NewConfigValidationError(fmt.Sprintf("routes[%d].provider.base_url", i), "must not be blank")
		}
		if r.SourceDialect != "" && !domain.Dialect(r.SourceDialect).Valid() {
			return domain.NewConfigValidationError(fmt.Sprintf("routes[%d].source_dialect", i), fmt.Sprintf("unknown dialect %q", r.SourceDialect))
		}
	}

	return nil
}
