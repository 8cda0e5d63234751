// ════════════════════════════════════════════════════════════════════════════
// ⚡ TRIAL CONSUMER
// ────────────────────────────────────────────────────────────────────────────
// The single reader of a trial.  Runs on its own locked (optionally pinned)
// OS thread, polls TryFetch in a tight loop, decodes every batch and applies
// the trial's verification to each payload.
//
// Polling:
//   - hit:  decode, verify, count
//   - miss: check the stop switch, give the processor away every spinBudget
// ════════════════════════════════════════════════════════════════════════════

package bench

import (
	"runtime"
	"time"

	"ringbench/control"
	"ringbench/payload"
	"ringbench/ring"
)

type consumeResult struct {
	received uint64
	measured uint64
	elapsed  time.Duration
	err      error
}

// consume starts the consumer goroutine; its result arrives on the channel.
func consume(r *ring.Ring, sw *control.Switch, shape shaper, total uint64, warmup float64, core int) <-chan consumeResult {
	out := make(chan consumeResult, 1)
	go func() {
		runtime.LockOSThread()
		setAffinity(core)
		defer runtime.UnlockOSThread()

		out <- drainAll(r, sw, shape, total, warmup)
	}()
	return out
}

// drainAll consumes until total messages arrived, verification fails or the
// switch trips.
func drainAll(r *ring.Ring, sw *control.Switch, shape shaper, total uint64, warmup float64) consumeResult {
	var res consumeResult
	dst := make([]byte, r.Capacity())
	check, finish := verifier(shape)

	warmupAt := uint64(float64(total) * warmup)
	warmed := warmupAt == 0
	var start time.Time
	if warmed {
		start = time.Now()
	}

	miss := 0
	for res.received < total {
		frames, ok, err := r.Drain(dst, check)
		res.received += uint64(frames)
		res.measured += uint64(frames)
		if err != nil {
			res.err = err
			return res
		}
		if !ok {
			if sw.Stopped() {
				res.err = sw.Err()
				if res.err == nil {
					res.err = ErrStopped
				}
				return res
			}
			if miss++; miss >= spinBudget {
				miss = 0
				runtime.Gosched()
			}
			continue
		}
		miss = 0

		if !warmed && res.received >= warmupAt {
			start = time.Now()
			res.measured = 0
			warmed = true
		}
	}
	res.elapsed = time.Since(start)
	res.err = finish()
	return res
}

// verifier returns the per-payload check and the end-of-trial check for a
// shape.
func verifier(shape shaper) (check func([]byte) error, finish func() error) {
	none := func() error { return nil }
	switch shape.kind {
	case payload.Pattern:
		return payload.CheckPattern, none
	case payload.Sequence:
		tracker := payload.NewTracker(shape.producers)
		check = func(p []byte) error {
			id, seq, err := shape.seq.Check(p)
			if err != nil {
				return err
			}
			return tracker.Observe(id, seq)
		}
		return check, func() error { return tracker.Complete(shape.messages) }
	default:
		return func([]byte) error { return nil }, none
	}
}
