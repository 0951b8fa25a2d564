// Package autosave periodically hands a copy of the session to a snapshot
// writer.
package autosave

import (
	"context"
	"sync"
	"time"

	"github.com/tliron/commonlog"
	"golang.org/x/time/rate"

	"github.com/TheJupiterDev/Bitpad/persist"
)

// DefaultInterval matches the editor's historical five-second autosave.
const DefaultInterval = 5 * time.Second

// Source returns a copy of the session taken under the session's lock, and
// the session revision the copy corresponds to.
type Source func() ([]persist.SnapshotEntry, uint64)

// Sink writes a snapshot. It must not return errors; failures are its own
// concern.
type Sink func([]persist.SnapshotEntry)

// Options tune an Autosaver.
type Options struct {
	// Interval between ticks. Zero means DefaultInterval.
	Interval time.Duration
	// Always writes on every tick even when the revision is unchanged.
	Always bool
	// RequestBurst and RequestEvery throttle Request. Zero values allow one
	// early save per second.
	RequestEvery time.Duration
	RequestBurst int
}

// Autosaver drives periodic snapshot writes.
type Autosaver struct {
	source   Source
	sink     Sink
	interval time.Duration
	always   bool
	limiter  *rate.Limiter
	requests chan struct{}

	// mu serializes writes so Flush never interleaves with a tick.
	mu      sync.Mutex
	lastRev uint64
	written bool
	saves   int
}

// New creates an Autosaver reading from source and writing to sink.
func New(source Source, sink Sink, opts Options) *Autosaver {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.RequestEvery <= 0 {
		opts.RequestEvery = time.Second
	}
	if opts.RequestBurst <= 0 {
		opts.RequestBurst = 1
	}
	return &Autosaver{
		source:   source,
		sink:     sink,
		interval: opts.Interval,
		always:   opts.Always,
		limiter:  rate.NewLimiter(rate.Every(opts.RequestEvery), opts.RequestBurst),
		requests: make(chan struct{}, 1),
	}
}

func logger() commonlog.Logger {
	return commonlog.GetLogger("bitpad.autosave")
}

// Run saves on every tick until ctx is done. It does not flush on exit;
// callers flush explicitly during shutdown.
func (a *Autosaver) Run(ctx context.Context) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	logger().Infof("autosave every %s", a.interval)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.save(a.always)
		case <-a.requests:
			a.save(false)
		}
	}
}

// Request asks Run for an early save. Requests beyond the rate limit are
// dropped; the next tick picks up the change.
func (a *Autosaver) Request() bool {
	if !a.limiter.Allow() {
		return false
	}
	select {
	case a.requests <- struct{}{}:
	default:
	}
	return true
}

// Flush writes the current session synchronously, regardless of revision.
func (a *Autosaver) Flush() {
	a.save(true)
}

// Saves returns how many snapshots have been handed to the sink.
func (a *Autosaver) Saves() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.saves
}

func (a *Autosaver) save(force bool) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	entries, rev := a.source()
	if !force && a.written && rev == a.lastRev {
		return false
	}
	a.sink(entries)
	a.lastRev = rev
	a.written = true
	a.saves++
	return true
}
