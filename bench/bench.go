// ════════════════════════════════════════════════════════════════════════════
// RING THROUGHPUT HARNESS
// ────────────────────────────────────────────────────────────────────────────
// Drives one ring with N producer goroutines and one consumer goroutine per
// trial, each locked to its own OS thread (optionally pinned to a core), and
// measures consumed messages per second after a warmup share of the traffic.
//
// Trial lifecycle:
//   allocate ring → start producers → consume N·M messages → join → release
//
// Stop paths:
//   - context cancelled (signal)   → Switch tripped, producers bail out
//   - consumer verification fails  → Switch tripped with *CorruptionError
// ════════════════════════════════════════════════════════════════════════════

package bench

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"ringbench/constants"
	"ringbench/control"
	"ringbench/debug"
	"ringbench/payload"
	"ringbench/ring"
)

var log = debug.Logger("bench")

// ErrStopped is returned when a trial is interrupted without a recorded cause.
var ErrStopped = errors.New("bench: trial stopped before completion")

// Options describes one trial.
type Options struct {
	Mode            ring.Mode
	Producers       int
	Messages        int // per producer
	Verify          payload.Kind
	MinPayload      int // sequence verification only
	MaxPayload      int
	Capacity        uint64
	Watermark       uint64
	HardwareThreads int
	Warmup          float64 // share of total messages excluded from timing
	Pin             bool
}

// DefaultOptions is the full-size benchmark: 10M pattern messages per
// producer into a 16 MiB ring with a 1 MiB watermark.
func DefaultOptions() Options {
	return Options{
		Mode:       ring.ModeLock,
		Producers:  1,
		Messages:   constants.NumMessages,
		Verify:     payload.None,
		MinPayload: payload.MinSequenced,
		MaxPayload: 256,
		Capacity:   constants.RingSize,
		Watermark:  constants.ForwardDegree,
		Warmup:     constants.WarmupFraction,
	}
}

func (o Options) validate() error {
	if o.Producers < 1 {
		return errors.Errorf("bench: producers %d < 1", o.Producers)
	}
	if o.Messages < 1 {
		return errors.Errorf("bench: messages %d < 1", o.Messages)
	}
	if o.Warmup < 0 || o.Warmup >= 1 {
		return errors.Errorf("bench: warmup %.3f outside [0, 1)", o.Warmup)
	}
	if o.Verify == payload.Sequence {
		largest := payload.NewSequenced(o.MinPayload, o.MaxPayload).Max
		if frame := ring.FrameSize(largest); frame >= o.Capacity {
			return errors.Errorf("bench: %d-byte payload needs a %d-byte frame, ring holds %d", largest, frame, o.Capacity)
		}
	}
	return nil
}

func (o Options) ringOptions() ring.Options {
	return ring.Options{
		Capacity:        o.Capacity,
		Watermark:       o.Watermark,
		Mode:            o.Mode,
		Producers:       o.Producers,
		HardwareThreads: o.HardwareThreads,
	}
}

// Trial is the outcome of one run.
type Trial struct {
	Mode       ring.Mode
	Producers  int
	Repeat     int
	Verify     payload.Kind
	Received   uint64        // all messages consumed
	Measured   uint64        // messages consumed after warmup
	Duration   time.Duration // measured window
	Throughput float64       // Measured per second
	Started    time.Time
}

// RunTrial executes one trial and returns its throughput.  A verification
// failure comes back as an error wrapping *payload.CorruptionError.
func RunTrial(ctx context.Context, opts Options) (Trial, error) {
	trial := Trial{Mode: opts.Mode, Producers: opts.Producers, Verify: opts.Verify, Started: time.Now()}
	if err := opts.validate(); err != nil {
		return trial, err
	}
	r, err := ring.New(opts.ringOptions())
	if err != nil {
		return trial, err
	}
	defer r.Release()

	sw := control.New()
	release := control.Bind(ctx, sw)
	defer release()

	shape := newShaper(opts)
	var wg sync.WaitGroup
	for id := 0; id < opts.Producers; id++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			produce(r, sw, shape, id, opts.Messages, pinCore(opts.Pin, id))
		}(id)
	}

	total := uint64(opts.Producers) * uint64(opts.Messages)
	res := <-consume(r, sw, shape, total, opts.Warmup, pinCore(opts.Pin, opts.Producers))
	sw.Shutdown(res.err)
	wg.Wait()

	trial.Received = res.received
	trial.Measured = res.measured
	trial.Duration = res.elapsed
	if res.elapsed > 0 {
		trial.Throughput = float64(res.measured) / res.elapsed.Seconds()
	}
	if res.err != nil {
		return trial, errors.Wrapf(res.err, "%s with %d producers", opts.Mode, opts.Producers)
	}
	log.WithField("mode", opts.Mode.String()).
		WithField("producers", opts.Producers).
		WithField("duration", res.elapsed.Round(time.Millisecond).String()).
		Debug("trial complete")
	return trial, nil
}

// pinCore maps a worker index to a core, or -1 when pinning is off.
func pinCore(pin bool, idx int) int {
	if !pin {
		return -1
	}
	return idx
}

// Recorder receives each trial as soon as it finishes.
type Recorder interface {
	Record(Trial) error
}

// Plan is a sweep over modes, producer counts and repeats.
type Plan struct {
	Base      Options
	Modes     []ring.Mode
	Producers []int
	Repeats   int
}

// ProducerSweep returns 1, 2, 4, ... up to and including limit.
func ProducerSweep(limit int) []int {
	var counts []int
	for n := 1; n <= limit; n *= 2 {
		counts = append(counts, n)
	}
	return counts
}

// Sweep runs every trial of plan in order, handing each to rec before the
// next starts so an interrupted sweep keeps its finished rows.
func Sweep(ctx context.Context, plan Plan, rec Recorder) ([]Trial, error) {
	repeats := max(plan.Repeats, 1)
	var trials []Trial
	for _, mode := range plan.Modes {
		for _, producers := range plan.Producers {
			opts := plan.Base
			opts.Mode, opts.Producers = mode, producers

			sum := 0.0
			for rep := 0; rep < repeats; rep++ {
				if err := ctx.Err(); err != nil {
					return trials, err
				}
				t, err := RunTrial(ctx, opts)
				if err != nil {
					return trials, err
				}
				t.Repeat = rep + 1
				trials = append(trials, t)
				sum += t.Throughput
				if rec != nil {
					if err := rec.Record(t); err != nil {
						return trials, errors.Wrap(err, "bench: record trial")
					}
				}
			}
			log.WithField("mode", mode.String()).
				WithField("producers", producers).
				WithField("throughput_mps", sum/float64(repeats)).
				Info("average throughput")
		}
	}
	return trials, nil
}
