// control.go — per-run stop switch and signal wiring for the benchmark
// ============================================================================
// RUN CONTROL
// ============================================================================
//
// A Switch is the one piece of state shared between the producers, the
// consumer and the orchestrating goroutine of a trial.  Producers poll it
// from their retry loops, the consumer polls it between fetches, and the
// first Shutdown call records why the run stopped.
//
// Performance characteristics:
//   • Stopped() is one atomic load, safe in the hottest retry loop
//   • Shutdown is idempotent; only the first cause is kept
//
// Threading model:
//   • Any goroutine may call Shutdown
//   • Done() closes exactly once, for select-based waiters

package control

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"ringbench/debug"
)

var log = debug.Logger("control")

// Switch is a one-shot stop flag with a recorded cause.
type Switch struct {
	stop  atomic.Uint32
	once  sync.Once
	cause error
	done  chan struct{}
}

// New returns an armed switch.
func New() *Switch {
	return &Switch{done: make(chan struct{})}
}

// Shutdown flips the switch.  err may be nil for a clean stop.
func (s *Switch) Shutdown(err error) {
	s.once.Do(func() {
		s.cause = err
		s.stop.Store(1)
		close(s.done)
	})
}

// Stopped reports whether Shutdown has been called.
//
//go:nosplit
//go:inline
func (s *Switch) Stopped() bool {
	return s.stop.Load() != 0
}

// Done is closed by the first Shutdown.
func (s *Switch) Done() <-chan struct{} { return s.done }

// Err returns the cause passed to the first Shutdown, once Done is closed.
func (s *Switch) Err() error {
	select {
	case <-s.done:
		return s.cause
	default:
		return nil
	}
}

// Bind trips s when ctx ends.  The returned func detaches the watcher and
// must be called once the run is over.
func Bind(ctx context.Context, s *Switch) (release func()) {
	quit := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case <-ctx.Done():
			s.Shutdown(ctx.Err())
		case <-s.done:
		case <-quit:
		}
	}()
	return func() {
		close(quit)
		wg.Wait()
	}
}

// WithSignals returns a context cancelled on SIGINT or SIGTERM.
func WithSignals(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.WithField("signal", sig.String()).Warn("interrupt received, stopping run")
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
