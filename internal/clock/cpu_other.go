//go:build !linux && !darwin

package clock

import "time"

// CPUSupported reports whether the platform exposes a per-thread CPU clock.
func CPUSupported() bool { return false }

func threadCPU() time.Duration { return 0 }
