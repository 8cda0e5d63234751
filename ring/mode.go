package ring

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrUnknownMode is returned by ParseMode for names no protocol answers to.
	ErrUnknownMode = errors.New("ring: unknown publish mode")

	// ErrModeUnavailable is returned for strategies older harnesses
	// named ("spin", "notify") but whose algorithm was never recovered.
	ErrModeUnavailable = errors.New("ring: publish mode has no implementation")
)

// Mode selects the producer publish protocol of a Ring. It is fixed at
// construction together with the Cursor the consumer reads.
type Mode uint8

const (
	// ModeLock wraps reserve, write and publish in the ring mutex.
	ModeLock Mode = iota
	// ModeFree publishes with an independent CAS loop on the safe tail.
	ModeFree
	// ModeTail spins until its reservation is next, then writes and publishes.
	ModeTail
	// ModeOptimized writes first, then waits for its turn; degrades to the
	// ring mutex when producers oversubscribe the hardware threads.
	ModeOptimized
	// ModeYield writes, then yields the processor until its turn.
	ModeYield

	numModes
)

// Cursor names which publish cursor is authoritative for the consumer.
type Cursor uint8

const (
	// CursorSafeTail is the atomically published cursor (lock, free, yield).
	CursorSafeTail Cursor = iota
	// CursorTail is the turn-ordered cursor (tail, optimized).
	CursorTail
)

var modeNames = [numModes]string{
	ModeLock:      "lock",
	ModeFree:      "free",
	ModeTail:      "tail",
	ModeOptimized: "optimized",
	ModeYield:     "yield",
}

// Modes lists every implemented protocol in benchmark order.
func Modes() []Mode {
	return []Mode{ModeLock, ModeFree, ModeTail, ModeOptimized, ModeYield}
}

func (m Mode) String() string {
	if m < numModes {
		return modeNames[m]
	}
	return "mode(" + strconv.Itoa(int(m)) + ")"
}

// Valid reports whether m names an implemented protocol.
func (m Mode) Valid() bool { return m < numModes }

// Cursor returns the publish cursor the consumer must read for m.
func (m Mode) Cursor() Cursor {
	switch m {
	case ModeTail, ModeOptimized:
		return CursorTail
	default:
		return CursorSafeTail
	}
}

// Ordered reports whether m publishes strictly in reservation order.
func (m Mode) Ordered() bool {
	switch m {
	case ModeTail, ModeOptimized, ModeYield:
		return true
	default:
		return false
	}
}

// ParseMode resolves a protocol by name or by its unique leading letter ("l", "f", "t", "o", "y").
func ParseMode(name string) (Mode, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "spin", "s", "notify", "n":
		return 0, errors.Wrapf(ErrModeUnavailable, "%q", name)
	case "":
		return 0, errors.Wrap(ErrUnknownMode, "empty name")
	}
	for m := Mode(0); m < numModes; m++ {
		if n == modeNames[m] || (len(n) == 1 && n[0] == modeNames[m][0]) {
			return m, nil
		}
	}
	return 0, errors.Wrapf(ErrUnknownMode, "%q", name)
}

// InsertFunc is the producer entry point of one publish protocol.
type InsertFunc func(r *Ring, payload []byte) bool

// Inserter returns the raw producer entry point for m, or nil.
func Inserter(m Mode) InsertFunc {
	switch m {
	case ModeLock:
		return insertLock
	case ModeFree:
		return insertFree
	case ModeTail:
		return insertTail
	case ModeOptimized:
		return insertOptimized
	case ModeYield:
		return insertYield
	}
	return nil
}
