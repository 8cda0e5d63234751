//go:build !linux

// affinity_stub.go
//
// Thread pinning is Linux-only; elsewhere producers and the consumer run
// wherever the scheduler puts them.

package bench

func setAffinity(core int) {}
