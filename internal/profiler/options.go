package profiler

import (
	"os"
	"time"

	"github.com/torosent/funcprof/internal/clock"
)

const (
	// DefaultInterval is the minimum wall time between periodic reports.
	DefaultInterval = time.Second
	// DefaultPrefix tags every report line.
	DefaultPrefix = "funcprof"
)

// Options configure collectors and registries.
type Options struct {
	Interval     time.Duration // report throttle (0 means DefaultInterval, negative means final report only)
	Sink         Sink          // report destination (nil means text lines on stdout)
	Clock        clock.Clock   // time source (nil means the system clock)
	NoCPUTime    bool          // skip thread CPU readings
	Percentiles  bool          // keep HDR histograms for p50/p90/p99
	LockOSThread bool          // pin the owning goroutine to its OS thread while a Local is open
	Disabled     bool          // turn every operation into a no-op
	Prefix       string        // report tag (empty means DefaultPrefix)
}

func (o *Options) normalize() {
	if o.Interval == 0 {
		o.Interval = DefaultInterval
	}
	if o.Sink == nil {
		o.Sink = NewWriterSink(os.Stdout)
	}
	if o.Clock == nil {
		o.Clock = clock.NewSystem(!o.NoCPUTime)
	}
	if o.Prefix == "" {
		o.Prefix = DefaultPrefix
	}
}

// tracksCPU reports whether stamps from the configured clock carry CPU time.
func (o *Options) tracksCPU() bool {
	if o.NoCPUTime {
		return false
	}
	if t, ok := o.Clock.(interface{ TracksCPU() bool }); ok {
		return t.TracksCPU()
	}
	return true
}
