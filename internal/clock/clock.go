// Package clock provides the timestamps the profiler measures with.
//
// A [Stamp] pairs two readings taken at the same instant: a monotonic wall
// reading and the CPU time consumed by the calling OS thread. Differences of
// stamps give elapsed wall time and elapsed thread CPU time for a region.
//
// Thread CPU time is only meaningful for a region that starts and ends on the
// same OS thread. Goroutines that need exact CPU figures should call
// runtime.LockOSThread for the lifetime of their profiler registry.
package clock

import "time"

// Stamp is a pair of clock readings taken together.
type Stamp struct {
	Wall time.Duration
	CPU  time.Duration
}

// Sub returns the per-clock difference s - earlier. A negative CPU delta
// means the goroutine moved to another thread in between; it is reported as
// zero rather than as a negative sample.
func (s Stamp) Sub(earlier Stamp) Stamp {
	d := Stamp{
		Wall: s.Wall - earlier.Wall,
		CPU:  s.CPU - earlier.CPU,
	}
	if d.Wall < 0 {
		d.Wall = 0
	}
	if d.CPU < 0 {
		d.CPU = 0
	}
	return d
}

// Clock produces stamps.
type Clock interface {
	Now() Stamp
}

// epoch anchors wall readings; time.Since uses the monotonic component.
var epoch = time.Now()

// System reads the monotonic wall clock and, when cpu is true and the
// platform supports it, the calling thread's CPU clock.
type System struct {
	cpu bool
}

// NewSystem returns the process clock. CPU readings are skipped when cpu is
// false or when the platform has no per-thread CPU clock.
func NewSystem(cpu bool) System {
	return System{cpu: cpu && CPUSupported()}
}

// Now implements Clock.
func (s System) Now() Stamp {
	st := Stamp{Wall: time.Since(epoch)}
	if s.cpu {
		st.CPU = threadCPU()
	}
	return st
}

// TracksCPU reports whether stamps from s carry CPU readings.
func (s System) TracksCPU() bool {
	return s.cpu
}
