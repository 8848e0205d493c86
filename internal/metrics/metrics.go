// Package metrics holds process-wide webhook counters.
package metrics

import (
	"sync"
	"sync/atomic"
)

// Webhooks counts incoming webhook outcomes.
type Webhooks struct {
	received       atomic.Int64
	filtered       atomic.Int64
	sourceVerified atomic.Int64
	notFoundAcked  atomic.Int64
	failed         atomic.Int64

	mu        sync.Mutex
	processed map[string]*atomic.Int64
}

func NewWebhooks() *Webhooks {
	return &Webhooks{processed: make(map[string]*atomic.Int64)}
}

func (w *Webhooks) Received()       { w.received.Add(1) }
func (w *Webhooks) Filtered()       { w.filtered.Add(1) }
func (w *Webhooks) SourceVerified() { w.sourceVerified.Add(1) }
func (w *Webhooks) NotFoundAcked()  { w.notFoundAcked.Add(1) }
func (w *Webhooks) Failed()         { w.failed.Add(1) }

// Processed counts one webhook handled by the given flow.
func (w *Webhooks) Processed(flow string) {
	w.mu.Lock()
	c, ok := w.processed[flow]
	if !ok {
		c = new(atomic.Int64)
		w.processed[flow] = c
	}
	w.mu.Unlock()
	c.Add(1)
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Received       int64            `json:"received"`
	Filtered       int64            `json:"filtered"`
	SourceVerified int64            `json:"source_verified"`
	NotFoundAcked  int64            `json:"not_found_acked"`
	Failed         int64            `json:"failed"`
	Processed      map[string]int64 `json:"processed"`
}

func (w *Webhooks) Snapshot() Snapshot {
	s := Snapshot{
		Received:       w.received.Load(),
		Filtered:       w.filtered.Load(),
		SourceVerified: w.sourceVerified.Load(),
		NotFoundAcked:  w.notFoundAcked.Load(),
		Failed:         w.failed.Load(),
		Processed:      make(map[string]int64),
	}
	w.mu.Lock()
	for k, v := range w.processed {
		s.Processed[k] = v.Load()
	}
	w.mu.Unlock()
	return s
}
