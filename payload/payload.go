// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: payload.go — benchmark message shapes and their verifiers
//
// Purpose:
//   - Pattern: the classic fixed 8-byte message, checked by size and bytes.
//   - Sequenced: variable-length messages stamped with producer and sequence
//     and sealed with a truncated SHA3-256 tag, so torn, mixed or reordered
//     frames are caught by the consumer.
//
// Notes:
//   - Encoders write into caller scratch; nothing allocates per message.
//   - A verification failure is a *CorruptionError; the harness treats it as
//     fatal for the whole run.
// ─────────────────────────────────────────────────────────────────────────────

package payload

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/sha3"

	"ringbench/constants"
)

// Kind selects how producers shape messages and how the consumer checks them.
type Kind uint8

const (
	// None sends Pattern messages and skips verification.
	None Kind = iota
	// Pattern sends and verifies the fixed 8-byte message.
	Pattern
	// Sequence sends sealed, sequenced, variable-length messages and verifies
	// content, size and per-producer order.
	Sequence
)

// ErrUnknownKind is returned by ParseKind.
var ErrUnknownKind = errors.New("payload: unknown verification kind")

func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case Pattern:
		return "pattern"
	case Sequence:
		return "sequence"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind accepts "none", "pattern", "sequence" and the numeric check
// check levels of the positional command line (0, 1, 2).
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "off", "false", "0", "":
		return None, nil
	case "pattern", "on", "true", "1":
		return Pattern, nil
	case "sequence", "seq", "2":
		return Sequence, nil
	}
	return None, errors.Wrapf(ErrUnknownKind, "%q", s)
}

// CorruptionError describes a message that failed verification.  Producer
// and Seq are -1 / 0 when the message was too damaged to identify.
type CorruptionError struct {
	Producer int
	Seq      uint64
	Reason   string
}

func (e *CorruptionError) Error() string {
	if e.Producer < 0 {
		return "corrupted message: " + e.Reason
	}
	return fmt.Sprintf("corrupted message from producer %d seq %d: %s", e.Producer, e.Seq, e.Reason)
}

// ═══════════════════════════════════════════════════════════════════════════
// FIXED PATTERN
// ═══════════════════════════════════════════════════════════════════════════

// Message is the 8-byte pattern payload: seven letters and a NUL.
var Message = [constants.MessageSize]byte{'A', 'B', 'C', 'D', 'E', 'F', 'G', 0}

// CheckPattern verifies size and content of a pattern payload.
func CheckPattern(p []byte) error {
	if len(p) != len(Message) {
		return &CorruptionError{Producer: -1, Reason: fmt.Sprintf("size %d, want %d", len(p), len(Message))}
	}
	if !bytes.Equal(p, Message[:]) {
		return &CorruptionError{Producer: -1, Reason: fmt.Sprintf("content %q", p)}
	}
	return nil
}

// ═══════════════════════════════════════════════════════════════════════════
// SEQUENCED, SEALED MESSAGES
// ═══════════════════════════════════════════════════════════════════════════
//
//	[ producer u32 ][ seq u64 ][ fill ... ][ tag 8B = sha3-256(prefix)[:8] ]

const (
	stampSize = 4 + 8
	tagSize   = 8

	// MinSequenced is the smallest sequenced payload: stamp plus tag.
	MinSequenced = stampSize + tagSize
)

// Sequenced shapes sealed messages whose length is a deterministic function
// of (producer, seq) within [Min, Max].
type Sequenced struct {
	Min, Max int
}

// NewSequenced clamps the bounds so every message has room for its stamp
// and tag.
func NewSequenced(minSize, maxSize int) Sequenced {
	minSize = max(minSize, MinSequenced)
	maxSize = max(maxSize, minSize)
	return Sequenced{Min: minSize, Max: maxSize}
}

// Size returns the payload length for (producer, seq).
//
//go:nosplit
//go:inline
func (s Sequenced) Size(producer int, seq uint64) int {
	span := uint64(s.Max - s.Min + 1)
	return s.Min + int(mix64(uint64(producer)<<40^seq)%span)
}

// Encode writes message (producer, seq) into dst, which must hold Max
// bytes, and returns the written prefix.
func (s Sequenced) Encode(dst []byte, producer int, seq uint64) []byte {
	n := s.Size(producer, seq)
	p := dst[:n]
	binary.LittleEndian.PutUint32(p, uint32(producer))
	binary.LittleEndian.PutUint64(p[4:], seq)
	body := p[stampSize : n-tagSize]
	for i := range body {
		body[i] = fillByte(producer, seq, i)
	}
	tag := sha3.Sum256(p[:n-tagSize])
	copy(p[n-tagSize:], tag[:tagSize])
	return p
}

// Check verifies size, seal and fill of p and returns its stamp.
func (s Sequenced) Check(p []byte) (producer int, seq uint64, err error) {
	if len(p) < MinSequenced {
		return -1, 0, &CorruptionError{Producer: -1, Reason: fmt.Sprintf("size %d below minimum %d", len(p), MinSequenced)}
	}
	producer = int(binary.LittleEndian.Uint32(p))
	seq = binary.LittleEndian.Uint64(p[4:])
	n := len(p)

	tag := sha3.Sum256(p[:n-tagSize])
	if !bytes.Equal(tag[:tagSize], p[n-tagSize:]) {
		return producer, seq, &CorruptionError{Producer: producer, Seq: seq, Reason: "seal mismatch"}
	}
	if want := s.Size(producer, seq); n != want {
		return producer, seq, &CorruptionError{Producer: producer, Seq: seq, Reason: fmt.Sprintf("size %d, want %d", n, want)}
	}
	for i, b := range p[stampSize : n-tagSize] {
		if b != fillByte(producer, seq, i) {
			return producer, seq, &CorruptionError{Producer: producer, Seq: seq, Reason: fmt.Sprintf("fill byte %d", i)}
		}
	}
	return producer, seq, nil
}

//go:nosplit
//go:inline
func fillByte(producer int, seq uint64, i int) byte {
	return byte(seq) ^ byte(i*31) ^ byte(producer*17)
}

// mix64 is a Murmur3-style finalizer; it spreads sizes across the range.
//
//go:nosplit
//go:inline
func mix64(x uint64) uint64 {
	x ^= x >> 33
	x *= 0xff51afd7ed558ccd
	x ^= x >> 33
	x *= 0xc4ceb9fe1a85ec53
	x ^= x >> 33
	return x
}
