// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: constants.go — Ring geometry & benchmark tunables
//
// Purpose:
//   - Defines the design defaults for the framed MPSC ring (size, watermark,
//     cache-line framing) and the throughput harness (message counts, repeats).
//
// Notes:
//   - Every value here is a default only; config and ring.Options override them.
//   - Ring sizes must stay powers of two so offsets wrap with a mask.
//
// ⚠️ No runtime logic here; all values must be compile-time resolvable
// ─────────────────────────────────────────────────────────────────────────────

package constants

// ───────────────────────────── Ring Geometry ──────────────────────────────

const (
	// RingSize is the default ring capacity: 2^24 bytes = 16 MiB.
	RingSize = 1 << 24

	// ForwardDegree is the default look-ahead watermark: producers may not
	// reserve once they are 1 MiB ahead of the consumer head.
	ForwardDegree = 1 << 20

	// CacheLine is the frame alignment. Every frame starts on a 64-byte
	// boundary so neighbouring frames never share a line.
	CacheLine = 64

	// HeaderSize is the width of the little-endian frame-length prefix.
	HeaderSize = 4
)

// ──────────────────────────── Harness Defaults ─────────────────────────────

const (
	// TotalCores bounds the producer sweep (1, 2, 4, ... TotalCores).
	// Zero means "use runtime.NumCPU()".
	TotalCores = 0

	// MessageSize is the payload width of the classic pattern message.
	MessageSize = 8

	// NumMessages is the number of messages each producer inserts per trial.
	NumMessages = 10_000_000

	// Repeats is the number of trials per (mode, producer count).
	Repeats = 3

	// WarmupFraction of the total message count is consumed before the
	// throughput clock starts.
	WarmupFraction = 0.05
)

// ───────────────────────────── Report Defaults ─────────────────────────────

const (
	// OutputDir receives the CSV checkpoint, summary and chart.
	OutputDir = "data"

	// EnvPrefix scopes environment overrides (RINGBENCH_MODE, ...).
	EnvPrefix = "RINGBENCH"
)
