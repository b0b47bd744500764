// Package tracing bridges W3C trace context between context.Context and the
// envelope's extension attributes. Propagation is best effort: a missing or
// invalid trace context is never an error and never blocks publish or
// receive.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel/propagation"

	ce "github.com/evbridge/evbridge/internal/runtime/cloudevents"
)

// Propagator injects and extracts the traceparent / tracestate headers on an
// extension-attribute map. Stateless and safe for concurrent use.
type Propagator struct {
	tc propagation.TraceContext
}

// NewPropagator constructs a Propagator. The zero value is also usable.
func NewPropagator() *Propagator {
	return &Propagator{}
}

// Inject writes the active trace context from ctx into ext. When ctx carries
// no valid span context, ext is left unchanged.
func (p *Propagator) Inject(ctx context.Context, ext map[string]string) {
	if ext == nil {
		return
	}
	p.tc.Inject(ctx, attributeCarrier(ext))
}

// Extract reads the trace context from ext into a derived context. When no
// traceparent is present the original ctx is returned unchanged.
func (p *Propagator) Extract(ctx context.Context, ext map[string]string) context.Context {
	if len(ext) == 0 {
		return ctx
	}
	return p.tc.Extract(ctx, attributeCarrier(ext))
}

// TraceParent returns the traceparent value from ext and whether it was set.
func TraceParent(ext map[string]string) (string, bool) {
	v, ok := ext[ce.ExtTraceParent]
	return v, ok
}

// attributeCarrier adapts an extension-attribute map to the otel TextMap
// carrier interface. Reserved CloudEvents attribute names are never written.
type attributeCarrier map[string]string

func (c attributeCarrier) Get(key string) string {
	return c[key]
}

func (c attributeCarrier) Set(key, value string) {
	if ce.IsReservedAttribute(key) {
		return
	}
	c[key] = value
}

func (c attributeCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}
