// ════════════════════════════════════════════════════════════════════════════
// TRIAL REPORTING
// ────────────────────────────────────────────────────────────────────────────
// Sinks receive each finished trial from bench.Sweep and persist it at once,
// so an interrupted sweep leaves every completed row on disk.
//
// Sinks:
//   - CSV      per-mode checkpoint files, rewritten after every trial
//   - Store    sqlite table of every trial
//   - Summary  per (mode, producers) aggregate as JSON
//   - Chart    HTML line chart of throughput against producer count
//   - Multi    fan-out to any of the above
// ════════════════════════════════════════════════════════════════════════════

package report

import (
	"github.com/pkg/errors"

	"ringbench/bench"
	"ringbench/debug"
)

var log = debug.Logger("report")

// Sink is a bench.Recorder that owns an output and must be closed.
type Sink interface {
	bench.Recorder
	Close() error
}

// Multi fans each trial out to every sink in order.
type Multi []Sink

// Record stops at the first failing sink.
func (m Multi) Record(t bench.Trial) error {
	for _, s := range m {
		if err := s.Record(t); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every sink and returns the first error.
func (m Multi) Close() error {
	var first error
	for _, s := range m {
		if err := s.Close(); err != nil && first == nil {
			first = errors.Wrap(err, "report: close sink")
		}
	}
	return first
}
