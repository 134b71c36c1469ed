// Package proxy provides a forward HTTP proxy that records every proxied
// exchange into the event store while passing traffic through untouched.
package proxy

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/netlens/netlens/pkg/logging"
	"github.com/netlens/netlens/pkg/store"
)

// Options configures proxy behavior.
type Options struct {
	// Store receives the captured events.
	Store *store.Store

	// Filter selects which traffic is recorded. Nil records everything.
	// Excluded traffic is still forwarded.
	Filter *FilterConfig

	// Client performs the upstream requests. Nil means a client with
	// sane proxy defaults (no redirect following).
	Client *http.Client

	// Logger for operational logging. Nil disables logging.
	Logger *slog.Logger
}

// Proxy is a recording forward proxy. HTTPS CONNECT traffic is tunneled
// without interception; plain HTTP exchanges are captured as pending
// events that resolve when the upstream answers.
type Proxy struct {
	store  *store.Store
	client *http.Client
	log    *slog.Logger

	mu     sync.RWMutex
	filter *FilterConfig
}

// New creates a Proxy with the given options.
func New(opts Options) *Proxy {
	st := opts.Store
	if st == nil {
		st = store.New(store.Options{})
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{
			// The client behind the proxy decides what to do with
			// redirects; the proxy must hand them through.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
			Timeout: 60 * time.Second,
		}
	}
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	filter := opts.Filter
	if filter == nil {
		filter = NewFilterConfig()
	}
	return &Proxy{store: st, client: client, log: log, filter: filter}
}

// Store returns the event store the proxy records into.
func (p *Proxy) Store() *store.Store {
	return p.store
}

// Filter returns the current filter configuration.
func (p *Proxy) Filter() *FilterConfig {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.filter
}

// SetFilter updates the filter configuration at runtime.
func (p *Proxy) SetFilter(filter *FilterConfig) {
	if filter == nil {
		filter = NewFilterConfig()
	}
	p.mu.Lock()
	p.filter = filter
	p.mu.Unlock()
}

// ServeHTTP implements http.Handler for the proxy.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodConnect {
		p.handleConnect(w, r)
		return
	}
	p.handleHTTP(w, r)
}
