package trace

import "context"

type ctxKey struct{}

// FromContext extracts the Tracer from ctx, defaulting to Nop.
func FromContext(ctx context.Context) Tracer {
	if ctx == nil {
		return Nop
	}
	if t, ok := ctx.Value(ctxKey{}).(Tracer); ok {
		return t
	}
	return Nop
}

// WithTracer attaches a Tracer to ctx.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	return context.WithValue(ctx, ctxKey{}, t)
}

// SpanContext holds the innermost open span for parent propagation.
type SpanContext struct {
	SpanID uint64
	GID    uint64
}

type spanCtxKey struct{}

// CurrentSpan returns the active span context, or the zero value.
func CurrentSpan(ctx context.Context) SpanContext {
	if ctx == nil {
		return SpanContext{}
	}
	sc, _ := ctx.Value(spanCtxKey{}).(SpanContext)
	return sc
}

// WithSpanContext attaches span context.
func WithSpanContext(ctx context.Context, sc SpanContext) context.Context {
	return context.WithValue(ctx, spanCtxKey{}, sc)
}

// Attribution names the scenario file and case an event belongs to.
type Attribution struct {
	File string
	Case string
}

type attrCtxKey struct{}

// AttributionOf returns the scenario attribution stored in ctx.
func AttributionOf(ctx context.Context) Attribution {
	if ctx == nil {
		return Attribution{}
	}
	at, _ := ctx.Value(attrCtxKey{}).(Attribution)
	return at
}

// WithScenario marks events under ctx as belonging to file. The case is reset.
func WithScenario(ctx context.Context, file string) context.Context {
	return context.WithValue(ctx, attrCtxKey{}, Attribution{File: file})
}

// WithCase marks events under ctx as belonging to the named case of the
// current scenario file.
func WithCase(ctx context.Context, name string) context.Context {
	at := AttributionOf(ctx)
	at.Case = name
	return context.WithValue(ctx, attrCtxKey{}, at)
}
