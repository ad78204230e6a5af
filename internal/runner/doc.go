// Package runner drives profiled tasks from a fixed set of worker goroutines.
//
// Every worker owns its own profiler registry ([profiler.Local]), so a task
// that profiles itself records into collectors no other worker touches. The
// registries are closed, emitting their final reports, as each worker exits.
//
// # Basic Usage
//
//	opts := runner.Options{
//		Workers:  2,
//		Calls:    1000,
//		Task:     workload.Spec{N: 20}.Task(),
//		Profiler: profiler.Options{Sink: sink},
//	}
//	result := runner.New(opts).Run(ctx)
//
// # Termination
//
// Each worker stops after Calls invocations, when Duration elapses, or when
// the context is canceled, whichever comes first.
//
// # Pacing
//
// RatePerSecond limits each worker independently with a token bucket from
// golang.org/x/time/rate. Zero means unlimited.
//
// # Middleware
//
// Tasks can be wrapped:
//   - [WithLogging]: report failed calls
//   - [WithRetry]: retry failed calls with backoff; each attempt is profiled
//     as its own call
package runner
