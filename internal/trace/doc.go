// Package trace is the tracing subsystem of the brackets toolchain.
//
// It records driver phases, scenario files, cases and individual strategy
// decisions so that slow or stuck runs can be diagnosed. Events carry the
// scenario file and case they were emitted under.
//
//	brackets check --trace=- --trace-level=detail scenarios/
//	brackets check --trace=last.log --trace-mode=ring --trace-level=debug
//
// Sinks: Nop, StreamTracer (buffered writes), RingTracer (last N events,
// optionally written out on Close) and MultiTracer (fan-out).
//
// Levels gate scopes: phase shows driver and per-file boundaries, detail
// adds per-case events, debug adds node-level decisions (strategy picks,
// cache hits, overload tie-breaks).
//
//	ctx = trace.WithScenario(trace.WithTracer(ctx, tracer), path)
//	ctx, span := trace.BeginCtx(ctx, trace.ScopePass, "bind")
//	defer span.End("")
package trace
