// Package batch implements the per-task message batcher: outbound task
// messages are persisted individually as they arrive, and delivered to the
// host in coalesced batches so a burst of output doesn't turn into a burst
// of host round-trips.
package batch

import (
	"sync"
	"time"

	"github.com/agentrt/core/task"
)

// Window is the coalescing window: a batch is delivered at most this long
// after its first message arrived, or sooner if Flush is called.
const Window = 50 * time.Millisecond

// Batcher accumulates a single task's outbound messages for up to Window
// and then delivers them as one batch. Every message is also persisted
// individually, synchronously, as it arrives — batching only affects the
// live-display delivery, never the persistence path.
type Batcher struct {
	mu      sync.Mutex
	pending []task.Message
	timer   *time.Timer

	onPersist func(task.Message)
	onBatch   func([]task.Message)
}

// New creates a Batcher. Either callback may be nil.
func New(onPersist func(task.Message), onBatch func([]task.Message)) *Batcher {
	return &Batcher{onPersist: onPersist, onBatch: onBatch}
}

// Add persists msg immediately and queues it for the next batch delivery,
// arming the coalescing timer if this is the first message since the last
// flush.
func (b *Batcher) Add(msg task.Message) {
	if b.onPersist != nil {
		b.onPersist(msg)
	}

	b.mu.Lock()
	b.pending = append(b.pending, msg)
	first := len(b.pending) == 1
	if first {
		b.timer = time.AfterFunc(Window, b.Flush)
	}
	b.mu.Unlock()
}

// Flush delivers everything accumulated so far as one batch and resets the
// window. It is always invoked on task completion or cancellation, and is
// safe to call even when nothing is pending (a no-op in that case).
func (b *Batcher) Flush() {
	b.mu.Lock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	if len(b.pending) == 0 {
		b.mu.Unlock()
		return
	}
	batch := b.pending
	b.pending = nil
	b.mu.Unlock()

	if b.onBatch != nil {
		b.onBatch(batch)
	}
}
