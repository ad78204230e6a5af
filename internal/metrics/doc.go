// Package metrics provides the fixed-size duration accumulator behind each
// profiled call site.
//
// An [Accumulator] keeps a running count, sum, minimum and maximum of the
// durations recorded into it, and optionally an HDR histogram for
// percentiles. Memory does not grow with the number of samples, so an
// accumulator can sit on a function that is called billions of times.
//
//	acc := metrics.NewAccumulator(true)
//	acc.Record(3 * time.Millisecond)
//	summary := acc.Summary()
//
// # Thread Safety
//
// Accumulators are not synchronized. Each one belongs to a single goroutine,
// which is what keeps recording free of locks and atomics. Hand a [Summary]
// to other goroutines instead of the accumulator itself.
package metrics
