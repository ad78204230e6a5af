// Package profiler implements an intrusive function-level profiler built
// from two pieces: a [Collector] that accumulates samples for one named call
// site, and a [Guard] that brackets a measured region.
//
// # Basic Usage
//
// Each goroutine that wants to profile owns a [Local] registry and inserts a
// guard at the top of every measured function:
//
//	l := profiler.NewLocal(profiler.Options{})
//	defer l.Close()
//
//	func work(l *profiler.Local) {
//		defer l.Profile().Exit()
//		...
//	}
//
// Profile names the collector after the calling function. Use [Local.Enter]
// with an explicit name for sub-regions, or [Enter] with a collector obtained
// from [Local.Site].
//
// # Reports
//
// A collector reports at most once per [Options.Interval] (one second by
// default) and once more when it is closed. Reports go to an [Options.Sink]:
//
//	[funcprof][goroutine 18][workload.Compute] #412, avg 1.08123ms, tot 445.46676ms, ...
//
// # Thread Confinement
//
// Collectors and registries belong to the goroutine that created them and are
// never locked. Two goroutines profiling the same function each get their own
// collector. Only sinks are shared, and they are touched only when a report is
// emitted. [Group] runs goroutines that each receive a fresh registry, closed
// when the goroutine returns.
//
// # Clocks
//
// Every sample is measured on two clocks: monotonic wall time and the CPU time
// of the current OS thread. CPU figures are exact only if the goroutine stays
// on one thread; set [Options.LockOSThread] for that.
//
// # Disabling
//
// Building with the nofuncprof tag sets [Enabled] to false, which turns every
// operation into a no-op. [Options.Disabled] does the same at run time.
package profiler
