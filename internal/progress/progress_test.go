package progress

import (
	"testing"
	"time"
)

// recordSink captures every call for assertions.
type recordSink struct {
	started  []int64
	reports  []int64
	finished int
}

func (r *recordSink) Start(total int64)  { r.started = append(r.started, total) }
func (r *recordSink) Report(done int64)  { r.reports = append(r.reports, done) }
func (r *recordSink) Finish()            { r.finished++ }

func TestThrottled_RowGate(t *testing.T) {
	rec := &recordSink{}
	th := NewThrottled(rec, 100, 0)
	th.Start(1000)

	for done := int64(1); done <= 350; done++ {
		th.Report(done)
	}
	th.Finish()

	// 100, 200, 300 pass the row gate; Finish flushes 350.
	want := []int64{100, 200, 300, 350}
	if len(rec.reports) != len(want) {
		t.Fatalf("reports = %v, want %v", rec.reports, want)
	}
	for i := range want {
		if rec.reports[i] != want[i] {
			t.Fatalf("reports = %v, want %v", rec.reports, want)
		}
	}
	if rec.finished != 1 {
		t.Errorf("finished = %d", rec.finished)
	}
}

func TestThrottled_TimeGate(t *testing.T) {
	rec := &recordSink{}
	th := NewThrottled(rec, 0, time.Second)

	clock := time.Unix(0, 0)
	th.now = func() time.Time { return clock }
	th.Start(-1)

	th.Report(1) // same instant as Start: suppressed
	clock = clock.Add(500 * time.Millisecond)
	th.Report(2) // still inside the gap: suppressed
	clock = clock.Add(600 * time.Millisecond)
	th.Report(3) // 1.1s since Start: emitted
	th.Finish()  // nothing newer than 3 pending

	want := []int64{3}
	if len(rec.reports) != 1 || rec.reports[0] != want[0] {
		t.Fatalf("reports = %v, want %v", rec.reports, want)
	}
}

func TestThrottled_MonotonicCountsReachSink(t *testing.T) {
	rec := &recordSink{}
	th := NewThrottled(rec, 1, 0)
	th.Start(10)
	for done := int64(1); done <= 10; done++ {
		th.Report(done)
	}
	th.Finish()

	prev := int64(-1)
	for _, r := range rec.reports {
		if r <= prev {
			t.Fatalf("reports not strictly increasing: %v", rec.reports)
		}
		prev = r
	}
}

func TestThrottled_FinishWithoutReports(t *testing.T) {
	rec := &recordSink{}
	th := NewThrottled(rec, 100, time.Second)
	th.Start(0)
	th.Finish()
	if len(rec.reports) != 0 {
		t.Errorf("unexpected reports %v", rec.reports)
	}
	if rec.finished != 1 {
		t.Errorf("finished = %d", rec.finished)
	}
}

func TestNop_DoesNothing(t *testing.T) {
	var n Nop
	n.Start(5)
	n.Report(1)
	n.Finish()
}
