package ring

// insertTail is the ordered-spin protocol.  The reservation start doubles
// as a ticket: the producer spins until the tail reaches it, which means
// every earlier reservation is written and published, then copies and
// hands the tail to its successor with a plain store.  Only the ticket
// holder ever writes the tail, so no CAS is needed.
func insertTail(r *Ring, payload []byte) bool {
	frame := FrameSize(len(payload))

	start, ok := r.reserve(frame)
	if !ok {
		return false
	}
	for r.tail.Load() != start {
		cpuRelax()
	}
	r.encode(start, frame, payload)
	r.tail.Store((start + frame) & r.mask)
	return true
}
