package trace

import (
	"bytes"
	"context"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"
)

var (
	globalSeq   atomic.Uint64
	globalSpans atomic.Uint64
	openSpans   atomic.Int64
)

// NextSeq returns a monotonically increasing sequence number.
func NextSeq() uint64 {
	return globalSeq.Add(1)
}

// NextSpanID returns a unique span ID.
func NextSpanID() uint64 {
	return globalSpans.Add(1)
}

// OpenSpans reports how many emitted spans have not ended yet.
func OpenSpans() int64 {
	return openSpans.Load()
}

// goroutineID parses "goroutine 123 [running]:" from the stack header.
func goroutineID() uint64 {
	var arr [64]byte
	buf := arr[:runtime.Stack(arr[:], false)]
	buf, ok := bytes.CutPrefix(buf, []byte("goroutine "))
	if !ok {
		return 0
	}
	if end := bytes.IndexByte(buf, ' '); end >= 0 {
		buf = buf[:end]
	}
	gid, err := strconv.ParseUint(string(buf), 10, 64)
	if err != nil {
		return 0
	}
	return gid
}

// Span tracks one begin/end pair. A disabled span has tracer == nil and
// every method on it is a no-op.
type Span struct {
	tracer  Tracer
	begin   Event
	started time.Time
	ended   atomic.Bool
}

// Begin starts a span and emits KindSpanBegin. parent is 0 for roots.
func Begin(t Tracer, scope Scope, name string, parent uint64) *Span {
	return begin(t, scope, name, parent, Attribution{})
}

func begin(t Tracer, scope Scope, name string, parent uint64, at Attribution) *Span {
	if t == nil || !t.Enabled() || !t.Level().ShouldEmit(scope) {
		return &Span{}
	}
	sp := &Span{tracer: t, started: time.Now()}
	sp.begin = Event{
		Time:     sp.started,
		Kind:     KindSpanBegin,
		Scope:    scope,
		SpanID:   NextSpanID(),
		ParentID: parent,
		GID:      goroutineID(),
		Name:     name,
	}
	sp.begin.attribute(at)
	openSpans.Add(1)
	ev := sp.begin
	t.Emit(&ev)
	return sp
}

// BeginCtx starts a span under the tracer, span and scenario attribution
// stored in ctx and returns a context carrying the new span as parent.
func BeginCtx(ctx context.Context, scope Scope, name string) (context.Context, *Span) {
	sp := begin(FromContext(ctx), scope, name, CurrentSpan(ctx).SpanID, AttributionOf(ctx))
	if sp.tracer == nil || ctx == nil {
		return ctx, sp
	}
	return WithSpanContext(ctx, SpanContext{SpanID: sp.begin.SpanID, GID: sp.begin.GID}), sp
}

// End emits KindSpanEnd and returns the span duration. Only the first
// call emits.
func (s *Span) End(detail string) time.Duration {
	if s == nil || s.tracer == nil || !s.ended.CompareAndSwap(false, true) {
		return 0
	}
	openSpans.Add(-1)
	dur := time.Since(s.started)
	ev := s.begin
	ev.Time = time.Now()
	ev.Kind = KindSpanEnd
	ev.Detail = detail
	s.tracer.Emit(&ev)
	return dur
}

// WithExtra attaches a key-value pair to the end event.
func (s *Span) WithExtra(key, value string) *Span {
	if s == nil || s.tracer == nil {
		return s
	}
	if s.begin.Extra == nil {
		s.begin.Extra = make(map[string]string)
	}
	s.begin.Extra[key] = value
	return s
}

func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.begin.SpanID
}
