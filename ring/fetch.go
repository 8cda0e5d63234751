package ring

// TryFetch moves every published byte between head and the publish cursor
// into dst, zeroes the source range and advances head.  It is the single
// consumer entry point and must never run concurrently with itself.
//
// Nothing is delivered while any reservation is outstanding
// (forwardTail != publish): the consumer drains only at quiescence, so it
// never needs to know which individual frames are complete.
//
// The publish cursor is loaded before forwardTail.  Reading them in the
// other order would let a reservation granted and finished in between make
// the two look equal while an earlier frame is still being written.
//
// dst must hold at least Capacity() bytes.
func (r *Ring) TryFetch(dst []byte) (int, bool) {
	if uint64(len(dst)) < r.capacity {
		panic("ring: fetch destination shorter than ring capacity")
	}

	pub := r.pub.Load()
	ft := r.forwardTail.Load()
	h := r.head.Load()

	if ft == h || ft != pub {
		return 0, false
	}

	n := r.distance(pub, h)
	r.take(h, n, dst)
	r.head.Store(pub)
	return int(n), true
}

// Drain fetches one batch and decodes it, calling fn for each payload in
// reservation order.  ok is false when nothing was ready.
func (r *Ring) Drain(dst []byte, fn func(payload []byte) error) (frames int, ok bool, err error) {
	n, ok := r.TryFetch(dst)
	if !ok {
		return 0, false, nil
	}
	frames, err = ForEachFrame(dst[:n], fn)
	return frames, true, err
}
