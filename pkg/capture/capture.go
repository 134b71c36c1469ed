// Package capture observes HTTP calls made through a host application's
// client without changing their behavior.
//
// Two entry points are wrapped. Transport decorates an http.RoundTripper
// and sees every request the moment it hits the wire. Client decorates an
// *http.Client and additionally merges headers reported by the transport
// stack (via net/http/httptrace) into the request-phase snapshot, since
// those may only materialize after the call enters the client.
//
// The cardinal rule: instrumentation never suppresses, delays or alters
// the result the caller sees. Any failure inside capture code is swallowed
// at the boundary and at worst yields a partial event.
package capture

import (
	"context"
	"net/http"
	"sync"

	"github.com/netlens/netlens/pkg/netevent"
)

// Sink receives capture records. *store.Store satisfies it; pkg/bus
// provides a producer that satisfies it for the event-sourced path.
type Sink interface {
	// AddEvent records a pending event, assigning an id if absent.
	AddEvent(ev *netevent.Event) string

	// UpdateEvent merges a patch into a previously recorded event.
	UpdateEvent(id string, patch *netevent.Patch)
}

type ctxKey struct{}

// markCaptured tags a request context so nested instrumentation layers
// skip it. Without this the Client wrapper and an enabled Transport would
// double-report one logical call.
func markCaptured(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, true)
}

func alreadyCaptured(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	v, _ := ctx.Value(ctxKey{}).(bool)
	return v
}

// Interceptor installs and removes the capturing transport on a target
// http.Client. It is the one explicit registration point for transparent
// interception; Disable restores exactly the transport that Enable saw.
type Interceptor struct {
	client *http.Client
	sink   Sink

	mu       sync.Mutex
	active   bool
	original http.RoundTripper
}

// NewInterceptor prepares interception for the given client. The client
// is not touched until Enable is called.
func NewInterceptor(client *http.Client, sink Sink) *Interceptor {
	return &Interceptor{client: client, sink: sink}
}

// Enable swaps the client's transport for a capturing decorator.
// Idempotent: enabling an active interceptor is a no-op.
func (i *Interceptor) Enable() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.active || i.client == nil {
		return
	}
	i.original = i.client.Transport
	i.client.Transport = NewTransport(i.original, i.sink)
	i.active = true
}

// Disable restores the transport captured by Enable. Idempotent.
func (i *Interceptor) Disable() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.active {
		return
	}
	i.client.Transport = i.original
	i.original = nil
	i.active = false
}

// IsActive reports whether interception is currently installed.
func (i *Interceptor) IsActive() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.active
}
