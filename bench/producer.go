package bench

import (
	"runtime"

	"ringbench/control"
	"ringbench/payload"
	"ringbench/ring"
)

// spinBudget is the number of failed attempts before a busy loop gives its
// processor away once.
const spinBudget = 256

// shaper builds producer messages and the consumer's check for them.
type shaper struct {
	kind      payload.Kind
	seq       payload.Sequenced
	producers int
	messages  uint64 // per producer
}

func newShaper(opts Options) shaper {
	return shaper{
		kind:      opts.Verify,
		seq:       payload.NewSequenced(opts.MinPayload, opts.MaxPayload),
		producers: opts.Producers,
		messages:  uint64(opts.Messages),
	}
}

// scratch returns a buffer large enough for any message of this shape.
func (s shaper) scratch() []byte {
	if s.kind == payload.Sequence {
		return make([]byte, s.seq.Max)
	}
	return make([]byte, len(payload.Message))
}

func (s shaper) message(dst []byte, producer int, seq uint64) []byte {
	if s.kind == payload.Sequence {
		return s.seq.Encode(dst, producer, seq)
	}
	return payload.Message[:]
}

// produce inserts n messages, retrying each until it fits.  It returns
// early only when the switch trips while the ring is refusing inserts.
func produce(r *ring.Ring, sw *control.Switch, shape shaper, id, n int, core int) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	setAffinity(core)

	buf := shape.scratch()
	for seq := 0; seq < n; seq++ {
		msg := shape.message(buf, id, uint64(seq))
		miss := 0
		for !r.TryInsert(msg) {
			if sw.Stopped() {
				return
			}
			if miss++; miss >= spinBudget {
				miss = 0
				runtime.Gosched()
			}
		}
	}
}
