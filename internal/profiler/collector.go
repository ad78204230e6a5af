package profiler

import (
	"fmt"
	"time"

	"github.com/petermattis/goid"

	"github.com/torosent/funcprof/internal/clock"
	"github.com/torosent/funcprof/internal/metrics"
)

// Collector accumulates samples for one call site on one goroutine.
// It is not safe for concurrent use; see the package documentation.
type Collector struct {
	name      string
	prefix    string
	goroutine int64

	wall *metrics.Accumulator
	cpu  *metrics.Accumulator // nil when CPU time is not tracked

	lastStart  clock.Stamp
	lastReport time.Duration
	interval   time.Duration
	clock      clock.Clock
	sink       Sink
	closed     bool
}

// Stats is a snapshot of a collector.
type Stats struct {
	Site       string           `json:"site" yaml:"site"`
	Goroutine  int64            `json:"goroutine" yaml:"goroutine"`
	Prefix     string           `json:"-" yaml:"-"`
	Count      uint64           `json:"count" yaml:"count"`
	Wall       metrics.Summary  `json:"wall" yaml:"wall"`
	CPU        *metrics.Summary `json:"cpu,omitempty" yaml:"cpu,omitempty"`
	Final      bool             `json:"final" yaml:"final"`
	ReportedAt time.Time        `json:"reported_at" yaml:"reported_at"`
}

// NewCollector returns a collector for name owned by the calling goroutine.
// Most callers should use Local.Site instead, which guarantees one collector
// per site per goroutine.
func NewCollector(name string, opt Options) *Collector {
	if !Enabled || opt.Disabled {
		return nil
	}
	opt.normalize()
	return newCollector(name, goid.Get(), &opt)
}

func newCollector(name string, gid int64, opt *Options) *Collector {
	c := &Collector{
		name:      name,
		prefix:    fmt.Sprintf("[%s][goroutine %d][%s]", opt.Prefix, gid, name),
		goroutine: gid,
		wall:      metrics.NewAccumulator(opt.Percentiles),
		interval:  opt.Interval,
		clock:     opt.Clock,
		sink:      opt.Sink,
	}
	if opt.tracksCPU() {
		c.cpu = metrics.NewAccumulator(opt.Percentiles)
	}
	now := c.clock.Now()
	c.lastStart = now
	c.lastReport = now.Wall
	return c
}

// Name returns the call-site name.
func (c *Collector) Name() string {
	if c == nil {
		return ""
	}
	return c.name
}

// Count returns the number of completed samples.
func (c *Collector) Count() uint64 {
	if c == nil {
		return 0
	}
	return c.wall.Count()
}

// Start marks the beginning of a measured region. A second Start before Stop
// moves the mark; nested regions need distinct collectors.
func (c *Collector) Start() {
	if !Enabled || c == nil || c.closed {
		return
	}
	c.lastStart = c.clock.Now()
}

// Stop ends the region opened by Start, records it, and reports if the
// throttle interval has passed since the last report. The stop timestamp is
// taken before any reporting work.
func (c *Collector) Stop() {
	if !Enabled || c == nil || c.closed {
		return
	}
	now := c.clock.Now()
	d := now.Sub(c.lastStart)
	c.wall.Record(d.Wall)
	if c.cpu != nil {
		c.cpu.Record(d.CPU)
	}
	c.lastStart = now

	if c.interval > 0 && now.Wall-c.lastReport > c.interval {
		c.lastReport = now.Wall
		c.report(false)
	}
}

// Report emits the current totals. It does nothing before the first sample.
func (c *Collector) Report() {
	if !Enabled || c == nil {
		return
	}
	c.report(false)
}

// Close emits a final report regardless of the throttle and retires the
// collector. Later calls to Start, Stop and Close are ignored.
func (c *Collector) Close() {
	if !Enabled || c == nil || c.closed {
		return
	}
	c.closed = true
	c.report(true)
}

// Snapshot returns the current totals without reporting them.
func (c *Collector) Snapshot() Stats {
	if c == nil {
		return Stats{}
	}
	s := Stats{
		Site:      c.name,
		Goroutine: c.goroutine,
		Prefix:    c.prefix,
		Count:     c.wall.Count(),
		Wall:      c.wall.Summary(),
		Final:     c.closed,
	}
	if c.cpu != nil {
		cpu := c.cpu.Summary()
		s.CPU = &cpu
	}
	return s
}

func (c *Collector) report(final bool) {
	if c.wall.Count() == 0 {
		return
	}
	s := c.Snapshot()
	s.Final = final
	s.ReportedAt = time.Now()
	c.sink.Report(s)
}
