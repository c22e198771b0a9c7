package route

import (
	"sync"

	"github.com/llmproxy/dialect-proxy/internal/core/domain"
)

// Resolver finds the Route configured for an incoming model name, matched
// exactly and case-sensitively. The route list is indexed into a map once
// at construction, first-match-wins on a duplicate IncomingModel, so
// Resolve itself is a single map lookup rather than a scan. The route
// table is built once at startup and is immutable for the process
// lifetime — config changes detected at runtime are logged but never
// applied here.
type Resolver struct {
	mu     sync.RWMutex
	routes []*domain.Route
	byName map[string]*domain.Route
}

func New(routes []*domain.Route) *Resolver {
	byName := make(map[string]*domain.Route, len(routes))
	for _, r := range routes {
		if _, exists := byName[r.IncomingModel]; !exists {
			byName[r.IncomingModel] = r
		}
	}
	return &Resolver{routes: routes, byName: byName}
}

// Resolve returns the Route for model, or a *domain.RouteNotFoundError if
// none is configured.
func (r *Resolver) Resolve(model string) (*domain.Route, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if route, ok := r.byName[model]; ok {
		return route, nil
	}
	return nil, &domain.RouteNotFoundError{Model: model}
}

// Routes returns the full configured route list, in declaration order, for
// the startup route table log.
func (r *Resolver) Routes() []*domain.Route {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.routes
}
