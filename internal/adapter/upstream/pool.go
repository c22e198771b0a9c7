package upstream

import (
	"crypto/tls"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	maxIdleConnsPerHost = 100
	connectTimeout      = 10 * time.Second
	idleConnTimeout     = 120 * time.Second
)

// ClientPool is a small mapping from the verifyTLS boolean a Route carries
// to a shared, connection-reusing *http.Client, keyed per TLS-verification
// mode. Entries are built lazily on first use and live until process exit;
// singleflight collapses concurrent
// first requests for the same key into one construction instead of racing
// duplicate clients into the map.
type ClientPool struct {
	mu      sync.RWMutex
	clients map[bool]*http.Client
	group   singleflight.Group
}

func NewClientPool() *ClientPool {
	return &ClientPool{clients: make(map[bool]*http.Client, 2)}
}

// Get returns the shared client for verifyTLS, building it on first use.
func (p *ClientPool) Get(verifyTLS bool) *http.Client {
	p.mu.RLock()
	client, ok := p.clients[verifyTLS]
	p.mu.RUnlock()
	if ok {
		return client
	}

	key := "verify"
	if !verifyTLS {
		key = "skip-verify"
	}

	result, _, _ := p.group.Do(key, func() (interface{}, error) {
		p.mu.RLock()
		if existing, ok := p.clients[verifyTLS]; ok {
			p.mu.RUnlock()
			return existing, nil
		}
		p.mu.RUnlock()

		built := newClient(verifyTLS)

		p.mu.Lock()
		p.clients[verifyTLS] = built
		p.mu.Unlock()

		return built, nil
	})

	return result.(*http.Client)
}

func newClient(verifyTLS bool) *http.Client {
	dialer := &net.Dialer{Timeout: connectTimeout}

	transport := &http.Transport{
		DialContext:         dialer.DialContext,
		MaxIdleConnsPerHost: maxIdleConnsPerHost,
		IdleConnTimeout:     idleConnTimeout,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: !verifyTLS, //nolint:gosec // development-only knob, driven by per-route config
		},
	}

	return &http.Client{Transport: transport}
}
