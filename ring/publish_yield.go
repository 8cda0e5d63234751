package ring

import "runtime"

// insertYield is the cooperative-yield protocol: copy first, then give the
// processor away until the safe tail reaches this reservation, then store
// the new end.  Same ticket discipline as insertTail, but waiting costs a
// scheduler round trip instead of a spinning core.
func insertYield(r *Ring, payload []byte) bool {
	frame := FrameSize(len(payload))

	start, ok := r.reserve(frame)
	if !ok {
		return false
	}
	r.encode(start, frame, payload)
	for r.safeTail.Load() != start {
		runtime.Gosched()
	}
	r.safeTail.Store((start + frame) & r.mask)
	return true
}
