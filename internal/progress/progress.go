// Package progress decouples the export pipeline from whatever displays its
// progress. The pipeline reports through the Sink interface; a terminal bar
// lives in the bar subpackage, and tests substitute in-memory sinks.
//
// This mirrors the metrics abstraction pattern used elsewhere in the
// codebase: a narrow interface, a no-op default, and concrete backends kept
// out of the core.
package progress

import "time"

// Sink consumes progress events for one export run. Implementations must
// tolerate Report values arriving faster than they can render; the pipeline
// already bounds the rate via Throttled.
type Sink interface {
	// Start announces the run. total is the best-effort row estimate, or
	// a negative value when the total is unknown.
	Start(total int64)
	// Report carries the monotonically increasing count of rows processed.
	Report(done int64)
	// Finish marks the run complete (or aborted).
	Finish()
}

// Nop is the default sink; it discards everything.
type Nop struct{}

func (Nop) Start(int64)  {}
func (Nop) Report(int64) {}
func (Nop) Finish()      {}

// Throttled wraps a Sink and forwards Report calls at a bounded rate: at
// most once per minGap, and only after everyRows additional rows. Start and
// Finish always pass through; Finish first flushes the latest count so the
// final value is never lost.
type Throttled struct {
	sink      Sink
	everyRows int64
	minGap    time.Duration

	lastSent int64
	lastTime time.Time
	pending  int64

	now func() time.Time // test seam
}

// NewThrottled wraps sink. everyRows <= 0 disables the row gate; minGap <= 0
// disables the time gate.
func NewThrottled(sink Sink, everyRows int64, minGap time.Duration) *Throttled {
	return &Throttled{sink: sink, everyRows: everyRows, minGap: minGap, now: time.Now}
}

func (t *Throttled) Start(total int64) {
	t.lastTime = t.now()
	t.sink.Start(total)
}

func (t *Throttled) Report(done int64) {
	t.pending = done
	if t.everyRows > 0 && done-t.lastSent < t.everyRows {
		return
	}
	now := t.now()
	if t.minGap > 0 && now.Sub(t.lastTime) < t.minGap {
		return
	}
	t.lastSent = done
	t.lastTime = now
	t.sink.Report(done)
}

func (t *Throttled) Finish() {
	if t.pending > t.lastSent {
		t.sink.Report(t.pending)
		t.lastSent = t.pending
	}
	t.sink.Finish()
}
