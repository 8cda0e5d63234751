// ════════════════════════════════════════════════════════════════════════════════════════════════
// Ring Throughput Benchmark - Main Entry Point
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Component: Command line orchestration
//
// Description:
//   Sweeps every selected publish protocol over a range of producer counts and records the
//   consumer-side throughput of each trial.
//   Configuration → Sinks → Sweep → Reports
//
// Exit paths:
//   - corruption detected by the consumer: fatal, non-zero exit
//   - interrupt: finished trials stay on disk, exit 130
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"

	"ringbench/bench"
	"ringbench/config"
	"ringbench/control"
	"ringbench/debug"
	"ringbench/payload"
	"ringbench/report"
)

func main() {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, config.Flags().FlagUsages())
		os.Exit(2)
	}
	if err := debug.SetLevel(cfg.LogLevel); err != nil {
		debug.Fatal("CONFIG", err)
	}

	ctx, cancel := control.WithSignals(context.Background())
	defer cancel()

	sinks, err := openSinks(cfg)
	if err != nil {
		debug.Fatal("REPORT", err)
	}

	plan := cfg.Plan()
	debug.DropMessage("START", strconv.Itoa(len(plan.Modes))+" modes × "+
		strconv.Itoa(len(plan.Producers))+" producer counts × "+strconv.Itoa(plan.Repeats)+" repeats, verify="+cfg.Verify.String())

	trials, runErr := bench.Sweep(ctx, plan, sinks)
	if err := sinks.Close(); err != nil {
		debug.DropError("REPORT", err)
	}

	var corrupt *payload.CorruptionError
	switch {
	case errors.As(runErr, &corrupt):
		debug.Fatal("CORRUPTION", runErr)
	case errors.Is(runErr, context.Canceled):
		debug.DropError("INTERRUPTED", runErr)
		os.Exit(130)
	case runErr != nil:
		debug.Fatal("RUN", runErr)
	}

	total := 0.0
	for _, t := range trials {
		total += t.Throughput
	}
	if len(trials) > 0 {
		debug.DropMessage("DONE", strconv.Itoa(len(trials))+" trials, average "+
			strconv.FormatFloat(total/float64(len(trials)), 'f', 0, 64)+" msg/s")
	}
}

// openSinks builds the reporters named by cfg.  The CSV checkpoint is always
// on.
func openSinks(cfg config.Config) (report.Multi, error) {
	csv, err := report.NewCSV(cfg.Out)
	if err != nil {
		return nil, err
	}
	sinks := report.Multi{csv}
	if cfg.SQLite != "" {
		store, err := report.OpenStore(cfg.SQLite)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, store)
	}
	if cfg.Summary != "" {
		sinks = append(sinks, report.NewSummary(resolve(cfg.Out, cfg.Summary)))
	}
	if cfg.Chart != "" {
		sinks = append(sinks, report.NewChart(resolve(cfg.Out, cfg.Chart)))
	}
	return sinks, nil
}

// resolve places bare file names inside the output directory.
func resolve(dir, name string) string {
	if filepath.Base(name) == name {
		return filepath.Join(dir, name)
	}
	return name
}
