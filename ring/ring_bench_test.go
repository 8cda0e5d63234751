// ============================================================================
// FRAMED RING PERFORMANCE MEASUREMENT SUITE
// ============================================================================
//
// Benchmark categories:
//   - Single producer: insert then fetch, no contention
//   - Parallel producers: b.RunParallel inserts against one draining consumer
//   - Codec: frame decode over a fetched batch

package ring

import (
	"sync/atomic"
	"testing"
)

var benchMessage = []byte("ABCDEFG\x00")

func BenchmarkInsertFetch(b *testing.B) {
	for _, mode := range Modes() {
		b.Run(mode.String(), func(b *testing.B) {
			r, err := New(Options{Capacity: 1 << 20, Watermark: 1 << 19, Mode: mode, Producers: 1, HardwareThreads: 64})
			if err != nil {
				b.Fatal(err)
			}
			defer r.Release()
			dst := make([]byte, r.Capacity())

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if !r.TryInsert(benchMessage) {
					r.TryFetch(dst)
					r.TryInsert(benchMessage)
				}
			}
		})
	}
}

func BenchmarkParallelInsert(b *testing.B) {
	for _, mode := range Modes() {
		b.Run(mode.String(), func(b *testing.B) {
			r, err := New(Options{Capacity: 1 << 22, Watermark: 1 << 20, Mode: mode, Producers: 4})
			if err != nil {
				b.Fatal(err)
			}
			defer r.Release()

			var stop atomic.Bool
			done := make(chan struct{})
			go func() {
				defer close(done)
				dst := make([]byte, r.Capacity())
				for !stop.Load() {
					r.TryFetch(dst)
				}
			}()

			b.ResetTimer()
			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					for !r.TryInsert(benchMessage) {
					}
				}
			})
			b.StopTimer()

			stop.Store(true)
			<-done
		})
	}
}

func BenchmarkDecode(b *testing.B) {
	r, _ := New(Options{Capacity: 1 << 16, Watermark: 1 << 16, Mode: ModeLock})
	for r.TryInsert(benchMessage) {
	}
	dst := make([]byte, r.Capacity())
	n, _ := r.TryFetch(dst)
	batch := dst[:n]

	b.SetBytes(int64(n))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ForEachFrame(batch, func([]byte) error { return nil })
	}
}
