package trace

import (
	"strconv"
	"sync"
	"time"
)

// Heartbeat periodically emits the number of open spans. In a stuck run
// the count stays flat while heartbeats keep coming.
type Heartbeat struct {
	tracer Tracer
	stop   chan struct{}
	once   sync.Once
	done   chan struct{}
}

// StartHeartbeat starts the heartbeat goroutine. Returns nil when disabled.
func StartHeartbeat(tracer Tracer, interval time.Duration) *Heartbeat {
	if tracer == nil || !tracer.Enabled() || interval <= 0 {
		return nil
	}
	h := &Heartbeat{tracer: tracer, stop: make(chan struct{}), done: make(chan struct{})}
	go h.run(interval)
	return h
}

func (h *Heartbeat) run(interval time.Duration) {
	defer close(h.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for beat := 1; ; beat++ {
		select {
		case <-h.stop:
			return
		case now := <-ticker.C:
			h.tracer.Emit(&Event{
				Time:   now,
				Kind:   KindHeartbeat,
				Scope:  ScopeDriver,
				GID:    goroutineID(),
				Name:   "heartbeat",
				Detail: "#" + strconv.Itoa(beat),
				Extra:  map[string]string{"open_spans": strconv.FormatInt(OpenSpans(), 10)},
			})
		}
	}
}

// Stop stops the goroutine and waits for it. Safe to call twice.
func (h *Heartbeat) Stop() {
	if h == nil {
		return
	}
	h.once.Do(func() { close(h.stop) })
	<-h.done
}
