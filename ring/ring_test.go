// ============================================================================
// FRAMED RING CORRECTNESS VALIDATION SUITE
// ============================================================================
//
// Test categories:
//   - Constructor validation: capacity, watermark and memory checks
//   - Basic operations: insert, fetch and decode for every protocol
//   - Capacity management: free-space and watermark rejection
//   - Consumer gate: outstanding reservations withhold the whole batch
//   - Lifetime: Release zeroes cursors and memory

package ring

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// CONSTRUCTOR VALIDATION
// ============================================================================

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want error
	}{
		{"not power of two", Options{Capacity: 1000, Watermark: 512}, ErrInvalidCapacity},
		{"too small", Options{Capacity: 64, Watermark: 64}, ErrInvalidCapacity},
		{"too large", Options{Capacity: 1 << 32, Watermark: 1 << 20}, ErrInvalidCapacity},
		{"zero watermark", Options{Capacity: 1024}, ErrInvalidWatermark},
		{"watermark beyond capacity", Options{Capacity: 1024, Watermark: 2048}, ErrInvalidWatermark},
		{"unknown mode", Options{Capacity: 1024, Watermark: 512, Mode: numModes}, ErrUnknownMode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	r, err := New(DefaultOptions(ModeFree))
	require.NoError(t, err)
	assert.Equal(t, 1<<24, r.Capacity())
	assert.Equal(t, 1<<20, r.Watermark())
	assert.Equal(t, ModeFree, r.Mode())
}

func TestNewFromMemory(t *testing.T) {
	opts := Options{Capacity: 1024, Watermark: 512, Mode: ModeTail}

	t.Run("short memory", func(t *testing.T) {
		_, err := NewFromMemory(make([]byte, 1024), opts)
		assert.ErrorIs(t, err, ErrShortMemory)
	})

	t.Run("alignment at every offset", func(t *testing.T) {
		mem := make([]byte, 1024+2*CacheLine)
		for skew := 0; skew < CacheLine; skew++ {
			for i := range mem {
				mem[i] = 0xFF
			}
			r, err := NewFromMemory(mem[skew:], opts)
			require.NoError(t, err)
			addr := uintptr(unsafe.Pointer(&r.buf[0]))
			assert.Zero(t, addr%CacheLine, "skew %d", skew)
			assert.Len(t, r.buf, 1024)
			assert.Equal(t, make([]byte, 1024), r.buf, "memory must be zeroed")
		}
	})

	t.Run("cursor selection", func(t *testing.T) {
		for _, mode := range Modes() {
			o := opts
			o.Mode = mode
			r, err := NewFromMemory(make([]byte, 1024+CacheLine), o)
			require.NoError(t, err)
			if mode.Cursor() == CursorTail {
				assert.Same(t, &r.tail, r.pub, mode.String())
			} else {
				assert.Same(t, &r.safeTail, r.pub, mode.String())
			}
		}
	})
}

func TestRelease(t *testing.T) {
	r := newTestRing(t, 1024, 512, ModeLock)
	backing := r.backing
	require.True(t, r.TryInsert([]byte("payload!")))

	r.Release()
	assert.Equal(t, make([]byte, len(backing)), backing)
	assert.Nil(t, r.buf)
	s := r.Snapshot()
	assert.Zero(t, s.ForwardTail)
	assert.Zero(t, s.SafeTail)
	assert.Zero(t, s.Head)
}

// ============================================================================
// BASIC OPERATIONS
// ============================================================================

func TestThreeMessageScenario(t *testing.T) {
	for _, mode := range Modes() {
		t.Run(mode.String(), func(t *testing.T) {
			r := newTestRing(t, 1024, 512, mode)
			msgs := [][]byte{[]byte("msg-0001"), []byte("msg-0002"), []byte("msg-0003")}
			for _, m := range msgs {
				require.True(t, r.TryInsert(m))
			}

			dst := make([]byte, r.Capacity())
			var got [][]byte
			frames, ok, err := r.Drain(dst, func(p []byte) error {
				assert.Len(t, p, 8)
				got = append(got, append([]byte{}, p...))
				return nil
			})
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, 3, frames)
			assert.Equal(t, msgs, got)

			s := r.Snapshot()
			assert.Equal(t, uint64(192), s.Head)
			assert.Equal(t, uint64(192), s.ForwardTail)
			assert.Equal(t, uint64(192), s.Published)

			_, ok = r.TryFetch(dst)
			assert.False(t, ok, "ring must be empty after the drain")
		})
	}
}

func TestFetchEmpty(t *testing.T) {
	r := newTestRing(t, 1024, 512, ModeFree)
	n, ok := r.TryFetch(make([]byte, 1024))
	assert.False(t, ok)
	assert.Zero(t, n)

	assert.Panics(t, func() { r.TryFetch(make([]byte, 512)) })
}

// ============================================================================
// CAPACITY MANAGEMENT
// ============================================================================

func TestFullBufferRejection(t *testing.T) {
	for _, mode := range Modes() {
		t.Run(mode.String(), func(t *testing.T) {
			r := newTestRing(t, 1024, 1024, mode)
			msg := pattern(60, 1)

			// 15 frames of 64 bytes fit; the 16th would make forwardTail
			// wrap onto head.
			for i := 0; i < 15; i++ {
				require.True(t, r.TryInsert(msg), "frame %d", i)
			}
			before := r.Snapshot()
			assert.False(t, r.TryInsert(msg))
			assert.False(t, r.TryInsert(pattern(200, 2)))
			assert.Equal(t, before, r.Snapshot(), "rejection must not move any cursor")

			dst := make([]byte, 1024)
			n, ok := r.TryFetch(dst)
			require.True(t, ok)
			assert.Equal(t, 960, n)
			assert.True(t, r.TryInsert(msg))
		})
	}
}

func TestOversizeFrameRejected(t *testing.T) {
	r := newTestRing(t, 1024, 1024, ModeLock)
	require.True(t, r.TryInsert(pattern(8, 0)))
	before := r.Snapshot()
	assert.False(t, r.TryInsert(pattern(1000, 0)))
	assert.Equal(t, before, r.Snapshot())
}

func TestWatermarkRejection(t *testing.T) {
	r := newTestRing(t, 1024, 256, ModeYield)
	msg := pattern(8, 3)
	for i := 0; i < 4; i++ {
		require.True(t, r.TryInsert(msg))
	}
	before := r.Snapshot()
	require.Equal(t, uint64(256), before.Distance)
	assert.False(t, r.TryInsert(msg), "distance reached the watermark")
	assert.Equal(t, before, r.Snapshot())

	_, ok := r.TryFetch(make([]byte, 1024))
	require.True(t, ok)
	assert.True(t, r.TryInsert(msg))
}

// ============================================================================
// CONSUMER GATE
// ============================================================================

func TestOutstandingReservationWithholdsBatch(t *testing.T) {
	for _, mode := range []Mode{ModeLock, ModeFree} {
		t.Run(mode.String(), func(t *testing.T) {
			r := newTestRing(t, 1024, 1024, mode)
			require.True(t, r.TryInsert([]byte("first")))

			// A reservation nobody has published yet.
			start, ok := r.reserve(64)
			require.True(t, ok)

			dst := make([]byte, 1024)
			_, ok = r.TryFetch(dst)
			assert.False(t, ok, "published frame must wait for the outstanding one")

			r.encode(start, 64, []byte("second"))
			r.advanceSafeTail(64)

			var got []string
			frames, ok, err := r.Drain(dst, func(p []byte) error {
				got = append(got, string(p))
				return nil
			})
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, 2, frames)
			assert.Equal(t, []string{"first", "second"}, got)
		})
	}
}

func TestDrainPropagatesCallbackError(t *testing.T) {
	r := newTestRing(t, 1024, 1024, ModeTail)
	require.True(t, r.TryInsert([]byte("a")))
	require.True(t, r.TryInsert([]byte("b")))

	stop := assert.AnError
	frames, ok, err := r.Drain(make([]byte, 1024), func(p []byte) error {
		if string(p) == "b" {
			return stop
		}
		return nil
	})
	assert.True(t, ok)
	assert.Equal(t, 1, frames)
	assert.ErrorIs(t, err, stop)
}
