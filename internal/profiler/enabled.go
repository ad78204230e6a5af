//go:build !nofuncprof

package profiler

// Enabled reports whether profiling is compiled in.
const Enabled = true
