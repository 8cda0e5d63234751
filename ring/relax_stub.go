//go:build (!amd64 && !arm64) || noasm

// relax_stub.go
//
// Portable fall-back for targets without a spin-wait hint or when assembly
// stubs are disabled.  The spin loops still make progress; they simply burn
// the core at full speed.

package ring

// cpuRelax is a no-op on unsupported targets.
//
//go:nosplit
func cpuRelax() {}
