package ring

// insertFree is the optimistic-CAS protocol.  After its copy each producer
// adds its frame length to the safe tail with its own CAS loop and never
// waits for anyone.
//
// The safe tail then only counts finished bytes; it does not mark the end
// of a written prefix.  The consumer gate forwardTail == safeTail is what
// makes the batch safe: the two are equal only when every granted
// reservation has finished, because outstanding frames always total less
// than the capacity.  TryFetch loads the publish cursor before
// forwardTail for the same reason.
func insertFree(r *Ring, payload []byte) bool {
	frame := FrameSize(len(payload))

	start, ok := r.reserve(frame)
	if !ok {
		return false
	}
	r.encode(start, frame, payload)
	r.advanceSafeTail(frame)
	return true
}

// advanceSafeTail adds frame to the safe tail, retrying on contention.
func (r *Ring) advanceSafeTail(frame uint64) {
	for {
		st := r.safeTail.Load()
		if r.safeTail.CompareAndSwap(st, (st+frame)&r.mask) {
			return
		}
	}
}
