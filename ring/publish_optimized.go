package ring

import "runtime"

// insertOptimized is the ordered-spin protocol with the copy moved ahead of
// the wait, so a producer's memcpy overlaps its predecessor's.
//
// Contention policy (producers p, hardware threads h):
//   - p > h/2: the whole reserve, copy, wait, publish sequence holds the ring
//     mutex.
//   - p ≥ h/4: waiters yield the processor each iteration.
//   - otherwise: waiters spin with cpuRelax.
func insertOptimized(r *Ring, payload []byte) bool {
	frame := FrameSize(len(payload))

	if r.overcommitted() {
		r.mu.Lock()
		defer r.mu.Unlock()
	}

	start, ok := r.reserve(frame)
	if !ok {
		return false
	}
	r.encode(start, frame, payload)

	yield := r.producers >= r.hwThreads/4
	for r.tail.Load() != start {
		if yield {
			runtime.Gosched()
		} else {
			cpuRelax()
		}
	}
	r.tail.Store((start + frame) & r.mask)
	return true
}

// overcommitted reports whether producers outnumber half the hardware
// threads.  Hyperthreads are counted as threads.
//
//go:nosplit
func (r *Ring) overcommitted() bool {
	return r.producers > r.hwThreads/2
}
