//go:build !nofuncprof

package profiler_test

import (
	"errors"
	"testing"
	"time"

	"github.com/torosent/funcprof/internal/clock"
	"github.com/torosent/funcprof/internal/profiler"
)

func TestGuardSingleCallRecordsSleep(t *testing.T) {
	c := profiler.NewCollector("sleepy", profiler.Options{Sink: profiler.Discard, Interval: -1})

	func() {
		defer profiler.Enter(c).Exit()
		time.Sleep(time.Millisecond)
	}()

	s := c.Snapshot()
	if s.Count != 1 {
		t.Fatalf("Count = %d, want 1", s.Count)
	}
	if s.Wall.Total < time.Millisecond {
		t.Fatalf("wall total = %s, want >= 1ms", s.Wall.Total)
	}
}

var errHalfway = errors.New("failed halfway")

func failingStep(c *profiler.Collector, m *clock.Manual) error {
	defer profiler.Enter(c).Exit()
	m.Advance(2*time.Millisecond, 0)
	if m.Now().Wall > 0 {
		return errHalfway
	}
	m.Advance(time.Hour, 0)
	return nil
}

func TestGuardRecordsErrorPath(t *testing.T) {
	m := clock.NewManual()
	c := profiler.NewCollector("fails", profiler.Options{Clock: m, Sink: profiler.Discard})

	if err := failingStep(c, m); !errors.Is(err, errHalfway) {
		t.Fatalf("error = %v, want errHalfway", err)
	}
	s := c.Snapshot()
	if s.Count != 1 {
		t.Fatalf("Count = %d, want 1", s.Count)
	}
	if s.Wall.Total != 2*time.Millisecond {
		t.Fatalf("wall total = %s, want 2ms", s.Wall.Total)
	}
}

func TestRunReturnsErrorAndRecords(t *testing.T) {
	c := profiler.NewCollector("run", profiler.Options{Clock: clock.NewManual(), Sink: profiler.Discard})

	err := profiler.Run(c, func() error { return errHalfway })
	if !errors.Is(err, errHalfway) {
		t.Fatalf("Run() error = %v", err)
	}
	if err := profiler.Run(c, func() error { return nil }); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if c.Count() != 2 {
		t.Fatalf("Count = %d, want 2", c.Count())
	}
}

func TestRunRecordsPanickingRegion(t *testing.T) {
	c := profiler.NewCollector("panics", profiler.Options{Clock: clock.NewManual(), Sink: profiler.Discard})

	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Fatal("expected the panic to propagate")
			}
		}()
		_ = profiler.Run(c, func() error { panic("boom") })
	}()

	if c.Count() != 1 {
		t.Fatalf("Count = %d, want 1", c.Count())
	}
}

func TestGuardExitIsSingleShot(t *testing.T) {
	c := profiler.NewCollector("once", profiler.Options{Clock: clock.NewManual(), Sink: profiler.Discard})

	g := profiler.Enter(c)
	g.Exit()
	g.Exit()

	if c.Count() != 1 {
		t.Fatalf("Count = %d, want 1", c.Count())
	}
}

func TestNilGuardIsHarmless(t *testing.T) {
	var g *profiler.Guard
	g.Exit()

	if profiler.Enter(nil) != nil {
		t.Fatal("Enter(nil) should return a nil guard")
	}
	if err := profiler.Run(nil, func() error { return nil }); err != nil {
		t.Fatalf("Run(nil) error = %v", err)
	}
}
