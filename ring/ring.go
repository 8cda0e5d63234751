// ============================================================================
// FRAMED MPSC BYTE RING
// ============================================================================
//
// Fixed-capacity circular byte region shared by many producers and exactly
// one consumer.  Producers reserve a cache-line aligned byte range with a
// single CAS on the forward tail, copy a length-prefixed frame into it and
// then publish it through one of five protocols (see Mode).  The consumer
// drains everything between head and the publish cursor in one batch, and
// only when no reservation is outstanding.
//
// Memory layout:
//   - forwardTail, safeTail, tail and head each own a cache line
//   - buf starts on a 64-byte boundary inside its backing slice
//
// Cursor semantics (offsets mod capacity):
//   - forwardTail: end of every reservation granted so far
//   - safeTail / tail: end of the contiguous prefix known to be written
//   - head: end of what the consumer has already delivered and zeroed
//
// Invariant: head ≤ publish ≤ forwardTail (modular distance) and
// forwardTail − head < capacity.

package ring

import (
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/cpu"

	"ringbench/constants"
)

const (
	// HeaderSize is the width of the frame-length prefix.
	HeaderSize = constants.HeaderSize

	// CacheLine is the frame alignment.
	CacheLine = constants.CacheLine

	lineMask = CacheLine - 1

	// maxCapacity keeps every frame length representable in the 32-bit header.
	maxCapacity = 1 << 31
)

var (
	// ErrInvalidCapacity rejects capacities that are not a power of two of
	// at least two cache lines.
	ErrInvalidCapacity = errors.New("ring: capacity must be a power of two between 128 B and 2 GiB")

	// ErrInvalidWatermark rejects watermarks of zero or beyond capacity.
	ErrInvalidWatermark = errors.New("ring: watermark must be in (0, capacity]")

	// ErrShortMemory is returned by NewFromMemory when the caller's region
	// cannot hold capacity bytes after alignment.
	ErrShortMemory = errors.New("ring: backing memory shorter than capacity + cache line")
)

// Options configures a Ring.  Producers and HardwareThreads only matter for
// ModeOptimized, which adapts its waiting strategy to oversubscription.
type Options struct {
	Capacity        uint64
	Watermark       uint64
	Mode            Mode
	Producers       int
	HardwareThreads int
}

// DefaultOptions returns the design defaults: 16 MiB ring, 1 MiB watermark.
func DefaultOptions(mode Mode) Options {
	return Options{
		Capacity:        constants.RingSize,
		Watermark:       constants.ForwardDegree,
		Mode:            mode,
		Producers:       1,
		HardwareThreads: runtime.NumCPU(),
	}
}

// Validate checks geometry and mode.
func (o Options) Validate() error {
	c := o.Capacity
	if c < 2*CacheLine || c > maxCapacity || c&(c-1) != 0 {
		return errors.Wrapf(ErrInvalidCapacity, "capacity %d", c)
	}
	if o.Watermark == 0 || o.Watermark > c {
		return errors.Wrapf(ErrInvalidWatermark, "watermark %d, capacity %d", o.Watermark, c)
	}
	if !o.Mode.Valid() {
		return errors.Wrapf(ErrUnknownMode, "%s", o.Mode)
	}
	if o.Producers < 0 || o.HardwareThreads < 0 {
		return errors.Errorf("ring: negative producer (%d) or hardware thread (%d) count", o.Producers, o.HardwareThreads)
	}
	return nil
}

// Ring is the shared storage plus its four cursors.
type Ring struct {
	_           cpu.CacheLinePad
	forwardTail atomic.Uint64 // reservation cursor, CAS by producers
	_           cpu.CacheLinePad
	safeTail    atomic.Uint64 // publish cursor for lock / free / yield
	_           cpu.CacheLinePad
	tail        atomic.Uint64 // publish cursor for tail / optimized
	_           cpu.CacheLinePad
	head        atomic.Uint64 // consumer cursor
	_           cpu.CacheLinePad

	pub    *atomic.Uint64 // &safeTail or &tail, chosen by mode
	insert InsertFunc
	mu     sync.Mutex // lock mode, optimized mode under oversubscription

	mode      Mode
	capacity  uint64
	mask      uint64
	watermark uint64
	producers int
	hwThreads int

	buf     []byte // aligned working region, len == capacity
	backing []byte // full allocation, zeroed on Release
}

// New allocates a zeroed ring.  The backing slice is over-allocated by one
// cache line so the working region can be aligned inside it.
func New(opts Options) (*Ring, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return NewFromMemory(make([]byte, opts.Capacity+CacheLine), opts)
}

// NewFromMemory builds a ring over caller-supplied memory of at least
// Capacity + CacheLine bytes.  The memory is zeroed.
func NewFromMemory(mem []byte, opts Options) (*Ring, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if uint64(len(mem)) < opts.Capacity+CacheLine {
		return nil, errors.Wrapf(ErrShortMemory, "have %d, need %d", len(mem), opts.Capacity+CacheLine)
	}
	clear(mem)

	off := alignOffset(mem)
	r := &Ring{
		insert:    Inserter(opts.Mode),
		mode:      opts.Mode,
		capacity:  opts.Capacity,
		mask:      opts.Capacity - 1,
		watermark: opts.Watermark,
		producers: max(opts.Producers, 1),
		hwThreads: opts.HardwareThreads,
		buf:       mem[off : off+opts.Capacity : off+opts.Capacity],
		backing:   mem,
	}
	if r.hwThreads == 0 {
		r.hwThreads = runtime.NumCPU()
	}
	if opts.Mode.Cursor() == CursorTail {
		r.pub = &r.tail
	} else {
		r.pub = &r.safeTail
	}
	return r, nil
}

// alignOffset returns the index of the first cache-line aligned byte of mem.
//
//go:nosplit
func alignOffset(mem []byte) uint64 {
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(mem)))
	return uint64((CacheLine - addr&lineMask) & lineMask)
}

// Release zeroes the cursors and the whole backing memory and drops the
// ring's references to it.  The ring must not be used afterwards.
func (r *Ring) Release() {
	r.forwardTail.Store(0)
	r.safeTail.Store(0)
	r.tail.Store(0)
	r.head.Store(0)
	clear(r.backing)
	r.buf, r.backing = nil, nil
}

// TryInsert reserves, writes and publishes one frame with the ring's
// protocol.  False means "retry later": the reservation would pass the
// watermark or the free space.
func (r *Ring) TryInsert(payload []byte) bool {
	return r.insert(r, payload)
}

// Mode returns the publish protocol fixed at construction.
func (r *Ring) Mode() Mode { return r.mode }

// Capacity returns the ring size in bytes.
func (r *Ring) Capacity() int { return int(r.capacity) }

// Watermark returns the look-ahead limit in bytes.
func (r *Ring) Watermark() int { return int(r.watermark) }

// distance is the modular gap from head to forwardTail.
//
//go:nosplit
func (r *Ring) distance(ft, h uint64) uint64 {
	return (ft - h) & r.mask
}

// State is a point-in-time view of the cursors for logs and tests.  The
// loads are individually atomic, not a consistent snapshot.
type State struct {
	Mode        Mode
	Capacity    uint64
	Watermark   uint64
	ForwardTail uint64
	SafeTail    uint64
	Tail        uint64
	Published   uint64
	Head        uint64
	Distance    uint64
}

// Snapshot reads every cursor once.
func (r *Ring) Snapshot() State {
	s := State{
		Mode:        r.mode,
		Capacity:    r.capacity,
		Watermark:   r.watermark,
		SafeTail:    r.safeTail.Load(),
		Tail:        r.tail.Load(),
		ForwardTail: r.forwardTail.Load(),
		Head:        r.head.Load(),
	}
	s.Published = s.SafeTail
	if r.mode.Cursor() == CursorTail {
		s.Published = s.Tail
	}
	s.Distance = r.distance(s.ForwardTail, s.Head)
	return s
}
