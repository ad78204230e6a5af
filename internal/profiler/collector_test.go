//go:build !nofuncprof

package profiler_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/torosent/funcprof/internal/clock"
	"github.com/torosent/funcprof/internal/profiler"
)

func newManualCollector(t *testing.T, interval time.Duration) (*profiler.Collector, *clock.Manual, *profiler.Recorder) {
	t.Helper()
	m := clock.NewManual()
	rec := profiler.NewRecorder()
	c := profiler.NewCollector("site", profiler.Options{
		Interval: interval,
		Clock:    m,
		Sink:     rec,
	})
	if c == nil {
		t.Fatal("NewCollector returned nil")
	}
	return c, m, rec
}

func TestCollectorCountsEveryStop(t *testing.T) {
	for _, n := range []int{0, 1, 7, 1000} {
		c, m, _ := newManualCollector(t, -1)
		for i := 0; i < n; i++ {
			c.Start()
			m.Advance(time.Microsecond, 0)
			c.Stop()
		}
		if got := c.Count(); got != uint64(n) {
			t.Errorf("after %d pairs Count() = %d", n, got)
		}
	}
}

func TestCollectorAccumulatesIntervals(t *testing.T) {
	c, m, _ := newManualCollector(t, -1)

	steps := []time.Duration{3 * time.Millisecond, time.Millisecond, 7 * time.Millisecond, 0}
	var want time.Duration
	for _, d := range steps {
		c.Start()
		m.Advance(d, d/2)
		c.Stop()
		m.Advance(50*time.Millisecond, 0) // time between calls is not measured
		want += d
	}

	s := c.Snapshot()
	if s.Wall.Total != want {
		t.Errorf("wall total = %s, want %s", s.Wall.Total, want)
	}
	if s.CPU == nil {
		t.Fatal("expected CPU summary")
	}
	if s.CPU.Total != want/2 {
		t.Errorf("cpu total = %s, want %s", s.CPU.Total, want/2)
	}
	if s.Wall.Min != 0 || s.Wall.Max != 7*time.Millisecond {
		t.Errorf("min/max = %s/%s, want 0s/7ms", s.Wall.Min, s.Wall.Max)
	}
	if s.Wall.Mean != want/time.Duration(len(steps)) {
		t.Errorf("mean = %s, want %s", s.Wall.Mean, want/time.Duration(len(steps)))
	}
}

func TestCollectorReportWithoutSamplesIsSilent(t *testing.T) {
	var buf bytes.Buffer
	c := profiler.NewCollector("idle", profiler.Options{
		Clock: clock.NewManual(),
		Sink:  profiler.NewWriterSink(&buf),
	})

	c.Report()
	c.Close()

	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
}

func TestCollectorThrottlesReports(t *testing.T) {
	c, m, rec := newManualCollector(t, time.Second)

	var reportedAt []time.Duration
	for i := 0; i < 10; i++ {
		before := rec.Reports()
		c.Start()
		m.Advance(300*time.Millisecond, 0)
		c.Stop()
		if rec.Reports() != before {
			reportedAt = append(reportedAt, m.Now().Wall)
		}
	}

	// 10 calls of 300ms span 3s: reports fire once the elapsed time since the
	// previous report exceeds 1s, at 1.2s and 2.4s.
	want := []time.Duration{1200 * time.Millisecond, 2400 * time.Millisecond}
	if len(reportedAt) != len(want) {
		t.Fatalf("reports at %v, want %v", reportedAt, want)
	}
	for i := range want {
		if reportedAt[i] != want[i] {
			t.Errorf("report %d at %s, want %s", i, reportedAt[i], want[i])
		}
	}

	stats := rec.Stats()
	if len(stats) != 1 || stats[0].Count != 8 {
		t.Fatalf("latest report = %+v, want count 8", stats)
	}
}

func TestCollectorReportingIsNotTimed(t *testing.T) {
	m := clock.NewManual()
	slowSink := profiler.SinkFunc(func(profiler.Stats) {
		m.Advance(500*time.Millisecond, 500*time.Millisecond)
	})
	c := profiler.NewCollector("site", profiler.Options{Interval: time.Second, Clock: m, Sink: slowSink})

	c.Start()
	m.Advance(2*time.Second, 0)
	c.Stop() // reports; the sink burns 500ms

	c.Start()
	m.Advance(time.Millisecond, 0)
	c.Stop()

	if got := c.Snapshot().Wall.Total; got != 2*time.Second+time.Millisecond {
		t.Fatalf("wall total = %s, report time leaked into samples", got)
	}
}

func TestCollectorFinalReportRepeatsLastTotals(t *testing.T) {
	c, m, rec := newManualCollector(t, time.Second)

	for i := 0; i < 4; i++ {
		c.Start()
		m.Advance(300*time.Millisecond, 100*time.Millisecond)
		c.Stop()
	}
	if rec.Reports() != 1 {
		t.Fatalf("expected one periodic report, got %d", rec.Reports())
	}
	periodic := rec.Stats()[0]

	c.Close()
	if rec.Reports() != 2 {
		t.Fatalf("expected a final report, got %d reports", rec.Reports())
	}
	final := rec.Stats()[0]
	if !final.Final || periodic.Final {
		t.Fatalf("final flags: periodic=%v final=%v", periodic.Final, final.Final)
	}
	if final.Count != periodic.Count || final.Wall.Total != periodic.Wall.Total {
		t.Fatalf("final report %d/%s differs from last periodic %d/%s",
			final.Count, final.Wall.Total, periodic.Count, periodic.Wall.Total)
	}
	if final.CPU == nil || final.CPU.Total != 400*time.Millisecond {
		t.Fatalf("final cpu = %+v, want 400ms total", final.CPU)
	}

	c.Close()
	if rec.Reports() != 2 {
		t.Fatalf("second Close emitted another report")
	}
}

func TestCollectorIgnoresUseAfterClose(t *testing.T) {
	c, m, _ := newManualCollector(t, -1)
	c.Start()
	m.Advance(time.Millisecond, 0)
	c.Stop()
	c.Close()

	c.Start()
	m.Advance(time.Millisecond, 0)
	c.Stop()
	if c.Count() != 1 {
		t.Fatalf("Count() = %d after close, want 1", c.Count())
	}
}

func TestCollectorNegativeIntervalOnlyReportsOnClose(t *testing.T) {
	c, m, rec := newManualCollector(t, -1)
	for i := 0; i < 5; i++ {
		c.Start()
		m.Advance(time.Second, 0)
		c.Stop()
	}
	if rec.Reports() != 0 {
		t.Fatalf("periodic reports with interval disabled: %d", rec.Reports())
	}
	c.Close()
	if rec.Reports() != 1 {
		t.Fatalf("expected the final report, got %d", rec.Reports())
	}
}

func TestCollectorWithoutCPUTime(t *testing.T) {
	c := profiler.NewCollector("wall-only", profiler.Options{
		NoCPUTime: true,
		Sink:      profiler.Discard,
	})
	defer profiler.Enter(c).Exit()
	if c.Snapshot().CPU != nil {
		t.Fatal("CPU summary present with NoCPUTime")
	}
}

func TestDisabledOptionYieldsNoops(t *testing.T) {
	c := profiler.NewCollector("off", profiler.Options{Disabled: true})
	if c != nil {
		t.Fatal("expected nil collector when disabled")
	}
	c.Start()
	c.Stop()
	c.Report()
	c.Close()
	if c.Count() != 0 || c.Name() != "" {
		t.Fatal("nil collector reported state")
	}

	l := profiler.NewLocal(profiler.Options{Disabled: true})
	if l != nil {
		t.Fatal("expected nil registry when disabled")
	}
	func() {
		defer l.Profile().Exit()
		defer l.Enter("x").Exit()
	}()
	l.Close()
}
