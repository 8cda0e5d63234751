package payload

import "fmt"

// Tracker checks that each producer's messages arrive exactly once and in
// the order they were sent.  Used only by the single consumer.
type Tracker struct {
	next []uint64
}

// NewTracker expects producers numbered 0..producers-1.
func NewTracker(producers int) *Tracker {
	return &Tracker{next: make([]uint64, producers)}
}

// Observe records message (producer, seq).
func (t *Tracker) Observe(producer int, seq uint64) error {
	if producer < 0 || producer >= len(t.next) {
		return &CorruptionError{Producer: producer, Seq: seq, Reason: "unknown producer"}
	}
	want := t.next[producer]
	switch {
	case seq == want:
		t.next[producer]++
		return nil
	case seq < want:
		return &CorruptionError{Producer: producer, Seq: seq, Reason: fmt.Sprintf("duplicate or reordered, expected %d", want)}
	default:
		return &CorruptionError{Producer: producer, Seq: seq, Reason: fmt.Sprintf("gap, expected %d", want)}
	}
}

// Complete verifies that every producer delivered exactly perProducer
// messages.
func (t *Tracker) Complete(perProducer uint64) error {
	for p, n := range t.next {
		if n != perProducer {
			return &CorruptionError{Producer: p, Seq: n, Reason: fmt.Sprintf("received %d of %d", n, perProducer)}
		}
	}
	return nil
}
