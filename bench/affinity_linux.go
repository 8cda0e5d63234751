//go:build linux

// affinity_linux.go
//
// Pins the calling OS thread to one logical CPU with sched_setaffinity(2).
// Callers lock the goroutine to its thread first.  Errors are swallowed:
// inside a restricted cpuset the call may fail with EINVAL or EPERM and the
// fallback is simply "not pinned".

package bench

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// setAffinity binds the current thread to core modulo the CPU count.
func setAffinity(core int) {
	if core < 0 {
		return
	}
	var set unix.CPUSet
	set.Zero()
	set.Set(core % runtime.NumCPU())
	_ = unix.SchedSetaffinity(0, &set)
}
