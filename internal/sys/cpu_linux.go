//go:build linux

package sys

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// PinToCore locks the calling goroutine's OS thread and binds it to one CPU
// core, keeping the event hot path off shared cores when cpu_isolation is
// enabled.
func PinToCore(coreID int) error {
	runtime.LockOSThread()

	var mask unix.CPUSet
	mask.Zero()
	mask.Set(coreID)

	return unix.SchedSetaffinity(0, &mask)
}
