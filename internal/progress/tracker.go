package progress

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultInterval is the default interval for progress updates.
const DefaultInterval = 500 * time.Millisecond

// Snapshot is a point-in-time view of the tally.
type Snapshot struct {
	// Items is the number of entries seen.
	Items int64
	// Bytes is the sum of the metric values seen.
	Bytes uint64
}

// Tracker is shared by every unit of work in a walk. The zero value is ready to use.
type Tracker struct {
	items atomic.Int64
	bytes atomic.Uint64

	mu       sync.Mutex // Protects failures
	failures []Failure

	loop sync.Mutex // Serializes Start and Stop
	stop context.CancelFunc
	done chan struct{}
}

// New returns an empty tracker.
func New() *Tracker {
	return &Tracker{}
}

// Add records items entries totalling bytes. Safe for concurrent use.
func (t *Tracker) Add(items int64, bytes uint64) {
	t.items.Add(items)
	t.bytes.Add(bytes)
}

// Snapshot returns the current tally.
func (t *Tracker) Snapshot() Snapshot {
	return Snapshot{Items: t.items.Load(), Bytes: t.bytes.Load()}
}

// Record appends a failure. Safe for concurrent use.
func (t *Tracker) Record(f Failure) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.failures = append(t.failures, f)
}

// Failures returns a copy of the recorded failures in append order.
func (t *Tracker) Failures() []Failure {
	t.mu.Lock()
	defer t.mu.Unlock()

	return slices.Clone(t.failures)
}

// Summary counts the recorded failures per reason.
func (t *Tracker) Summary() map[Reason]int {
	t.mu.Lock()
	defer t.mu.Unlock()

	summary := make(map[Reason]int)
	for _, f := range t.failures {
		summary[f.Reason]++
	}

	return summary
}

// Start invokes hook with the current snapshot on each tick until Stop is
// called or ctx is done. A nil hook starts nothing. Starting a running
// tracker is a no-op.
func (t *Tracker) Start(ctx context.Context, interval time.Duration, hook func(Snapshot)) {
	if hook == nil {
		return
	}

	if interval <= 0 {
		interval = DefaultInterval
	}

	t.loop.Lock()
	defer t.loop.Unlock()

	if t.done != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	t.stop = cancel
	t.done = done

	ticker := time.NewTicker(interval)

	go func() {
		defer close(done)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				hook(t.Snapshot())
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop ends the reporting loop and blocks until it has exited, so no hook
// call can race with output written afterwards.
func (t *Tracker) Stop() {
	t.loop.Lock()
	defer t.loop.Unlock()

	if t.done == nil {
		return
	}

	t.stop()
	<-t.done

	t.stop = nil
	t.done = nil
}
