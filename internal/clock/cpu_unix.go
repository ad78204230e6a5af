//go:build linux || darwin

package clock

import (
	"time"

	"golang.org/x/sys/unix"
)

// CPUSupported reports whether the platform exposes a per-thread CPU clock.
func CPUSupported() bool {
	var ts unix.Timespec
	return unix.ClockGettime(unix.CLOCK_THREAD_CPUTIME_ID, &ts) == nil
}

func threadCPU() time.Duration {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_THREAD_CPUTIME_ID, &ts); err != nil {
		return 0
	}
	return time.Duration(ts.Nano())
}
