package ring

// reserve claims frame bytes at the forward tail and returns the start of
// the claimed range.  It fails without side effects when the producers are
// already a watermark ahead of the consumer or when the frame does not fit
// in the free space.  The free-space test is strict: a reservation that
// filled the ring exactly would leave forwardTail == head, which reads as
// empty.
//
// On CAS contention both cursors are reloaded and both limits rechecked, so
// a retry may fail where the first attempt would have succeeded.
func (r *Ring) reserve(frame uint64) (uint64, bool) {
	ft := r.forwardTail.Load()
	for {
		h := r.head.Load()
		dist := r.distance(ft, h)
		if dist >= r.watermark {
			return 0, false
		}
		if frame >= r.capacity-dist {
			return 0, false
		}
		if r.forwardTail.CompareAndSwap(ft, (ft+frame)&r.mask) {
			return ft, true
		}
		ft = r.forwardTail.Load()
	}
}
