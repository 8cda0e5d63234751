//go:build arm64 && !noasm

// relax_arm64.go
//
// Go declaration for cpuRelax on arm64.  relax_arm64.s emits YIELD, the
// spin-wait hint that lets the sibling hardware thread make progress.

package ring

// cpuRelax executes the ARM64 YIELD instruction.
//
//go:noescape
func cpuRelax()
