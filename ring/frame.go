package ring

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// ErrCorruptFrame reports a header that cannot describe a frame inside the
// fetched range.  Under a correct protocol it never happens.
var ErrCorruptFrame = errors.New("ring: corrupt frame header")

// ═══════════════════════════════════════════════════════════════════════════
// FRAME LAYOUT
// ═══════════════════════════════════════════════════════════════════════════
//
//	[ header u32 LE ][ payload ... ][ pad → next 64-byte boundary ]
//
// header = frameLen | pad, where frameLen = roundup(4 + len(payload), 64).
// frameLen never uses the low six bits, so they carry the pad count and the
// exact payload length survives the rounding.

// FrameSize returns the ring footprint of a payload of n bytes.
//
//go:nosplit
//go:inline
func FrameSize(n int) uint64 {
	return (uint64(HeaderSize+n) + lineMask) &^ lineMask
}

// encode writes the frame for payload at off.  frame must equal
// FrameSize(len(payload)) and [off, off+frame) must be owned by the caller.
// Both the header and the payload are split at the physical end of buf.
func (r *Ring) encode(off, frame uint64, payload []byte) {
	var hdr [HeaderSize]byte
	pad := frame - HeaderSize - uint64(len(payload))
	binary.LittleEndian.PutUint32(hdr[:], uint32(frame|pad))
	off = r.put(off, hdr[:])
	r.put(off, payload)
}

// put copies src into buf at off, wrapping to offset 0, and returns the
// offset just past it.
//
//go:nosplit
func (r *Ring) put(off uint64, src []byte) uint64 {
	if n := copy(r.buf[off:], src); n < len(src) {
		copy(r.buf, src[n:])
	}
	return (off + uint64(len(src))) & r.mask
}

// take moves n bytes starting at off into dst and zeroes the source.
func (r *Ring) take(off, n uint64, dst []byte) {
	first := min(n, r.capacity-off)
	copy(dst, r.buf[off:off+first])
	clear(r.buf[off : off+first])
	if rest := n - first; rest > 0 {
		copy(dst[first:], r.buf[:rest])
		clear(r.buf[:rest])
	}
}

// DecodeNext parses the frame at the start of b, a contiguous range
// returned by TryFetch.  rest is nil once b is exhausted.  It never reads
// past len(b) and never allocates.
func DecodeNext(b []byte) (payload, rest []byte, err error) {
	if len(b) < HeaderSize {
		return nil, nil, errors.Wrapf(ErrCorruptFrame, "%d trailing bytes", len(b))
	}
	word := uint64(binary.LittleEndian.Uint32(b))
	frame, pad := word&^lineMask, word&lineMask
	if frame == 0 || frame > uint64(len(b)) || HeaderSize+pad > frame {
		return nil, nil, errors.Wrapf(ErrCorruptFrame, "header %#x with %d bytes left", word, len(b))
	}
	payload = b[HeaderSize : frame-pad : frame-pad]
	if frame < uint64(len(b)) {
		rest = b[frame:]
	}
	return payload, rest, nil
}

// ForEachFrame decodes every frame in b in order and hands each payload to
// fn.  It stops at the first decode or callback error and returns the
// number of payloads delivered.
func ForEachFrame(b []byte, fn func(payload []byte) error) (int, error) {
	n := 0
	for len(b) > 0 {
		p, rest, err := DecodeNext(b)
		if err != nil {
			return n, err
		}
		if err := fn(p); err != nil {
			return n, err
		}
		n++
		b = rest
	}
	return n, nil
}
