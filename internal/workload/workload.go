// Package workload holds the instrumented example functions the funcprof
// command drives.
package workload

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/torosent/funcprof/internal/profiler"
)

// Factorial returns n! computed recursively. Results overflow past n = 20.
func Factorial(n uint64) uint64 {
	if n <= 1 {
		return 1
	}
	return n * Factorial(n-1)
}

// Compute sleeps for pause and then computes n!. The sleep shows the gap
// between wall time and thread CPU time in reports.
func Compute(l *profiler.Local, n uint64, pause time.Duration) uint64 {
	defer l.Profile().Exit()

	if pause > 0 {
		time.Sleep(pause)
	}
	return Factorial(n)
}

// InjectedError is returned by Flaky on its scheduled failures.
type InjectedError struct {
	Call int
}

func (e *InjectedError) Error() string {
	return fmt.Sprintf("injected failure on call %d", e.Call)
}

// Flaky computes n! like Compute but fails on every everyth call. The failed
// calls are timed like any other.
func Flaky(l *profiler.Local, call, every int, n uint64) error {
	defer l.Profile().Exit()

	if every > 0 && call%every == 0 {
		return &InjectedError{Call: call}
	}
	runtime.KeepAlive(Factorial(n))
	return nil
}

// Spec describes one invocation pattern of the example functions.
type Spec struct {
	N         uint64
	Pause     time.Duration
	FailEvery int
}

// Task returns a function suitable for runner.Options.Task. Each call runs
// Compute and, when FailEvery is set, Flaky.
func (s Spec) Task() func(ctx context.Context, l *profiler.Local, call int) error {
	return func(ctx context.Context, l *profiler.Local, call int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		runtime.KeepAlive(Compute(l, s.N, s.Pause))
		if s.FailEvery > 0 {
			return Flaky(l, call, s.FailEvery, s.N)
		}
		return nil
	}
}
