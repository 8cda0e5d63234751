package report

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ringbench/bench"
	"ringbench/payload"
	"ringbench/ring"
)

func trial(mode ring.Mode, producers, repeat int, mps float64) bench.Trial {
	return bench.Trial{
		Mode:       mode,
		Producers:  producers,
		Repeat:     repeat,
		Verify:     payload.Pattern,
		Received:   1000,
		Measured:   950,
		Duration:   time.Duration(950/mps*1e9) * time.Nanosecond,
		Throughput: mps,
		Started:    time.Unix(1_700_000_000, 0),
	}
}

var sample = []bench.Trial{
	trial(ring.ModeLock, 1, 1, 100),
	trial(ring.ModeLock, 1, 2, 300),
	trial(ring.ModeLock, 2, 1, 150),
	trial(ring.ModeTail, 2, 1, 500),
	trial(ring.ModeTail, 1, 1, 400),
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVCheckpointsEveryTrial(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	c, err := NewCSV(dir)
	require.NoError(t, err)

	require.NoError(t, c.Record(sample[0]))
	rows := readCSV(t, c.Path(ring.ModeLock))
	assert.Equal(t, [][]string{CSVHeader, {"lock", "1", "100.00"}}, rows)

	for _, tr := range sample[1:] {
		require.NoError(t, c.Record(tr))
	}
	require.NoError(t, c.Close())

	assert.Len(t, readCSV(t, c.Path(ring.ModeLock)), 4)
	assert.Equal(t, [][]string{CSVHeader, {"tail", "2", "500.00"}, {"tail", "1", "400.00"}},
		readCSV(t, c.Path(ring.ModeTail)))

	_, err = os.Stat(c.Path(ring.ModeLock) + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trials.db")
	s, err := OpenStore(path)
	require.NoError(t, err)
	for _, tr := range sample {
		require.NoError(t, s.Record(tr))
	}

	got, err := s.Trials()
	require.NoError(t, err)
	require.Len(t, got, len(sample))
	for i := range sample {
		assert.Equal(t, sample[i].Mode, got[i].Mode)
		assert.Equal(t, sample[i].Producers, got[i].Producers)
		assert.Equal(t, sample[i].Repeat, got[i].Repeat)
		assert.Equal(t, sample[i].Verify, got[i].Verify)
		assert.Equal(t, sample[i].Measured, got[i].Measured)
		assert.Equal(t, sample[i].Duration, got[i].Duration)
		assert.Equal(t, sample[i].Throughput, got[i].Throughput)
		assert.True(t, sample[i].Started.Equal(got[i].Started))
	}
	require.NoError(t, s.Close())

	// Reopening appends to the same table.
	s, err = OpenStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Record(sample[0]))
	got, err = s.Trials()
	require.NoError(t, err)
	assert.Len(t, got, len(sample)+1)
	require.NoError(t, s.Close())
}

func TestSummarize(t *testing.T) {
	rows := Summarize(sample)
	assert.Equal(t, []Row{
		{Mode: "lock", Producers: 1, Repeats: 2, Mean: 200, Min: 100, Max: 300},
		{Mode: "lock", Producers: 2, Repeats: 1, Mean: 150, Min: 150, Max: 150},
		{Mode: "tail", Producers: 1, Repeats: 1, Mean: 400, Min: 400, Max: 400},
		{Mode: "tail", Producers: 2, Repeats: 1, Mean: 500, Min: 500, Max: 500},
	}, rows)
	assert.Empty(t, Summarize(nil))
}

func TestSummaryFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.json")
	s := NewSummary(path)
	for _, tr := range sample {
		require.NoError(t, s.Record(tr))
	}
	require.NoError(t, s.Close())

	rows, err := ReadSummary(path)
	require.NoError(t, err)
	assert.Equal(t, Summarize(sample), rows)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"num_producers":1`)
}

func TestChart(t *testing.T) {
	c := NewChart(filepath.Join(t.TempDir(), "chart.html"))
	for _, tr := range sample {
		require.NoError(t, c.Record(tr))
	}
	var buf bytes.Buffer
	require.NoError(t, c.Render(&buf))
	html := buf.String()
	assert.Contains(t, html, "ring throughput")
	assert.Contains(t, html, "lock")
	assert.Contains(t, html, "tail")

	require.NoError(t, c.Close())
	info, err := os.Stat(c.path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

type failing struct{ closed bool }

func (f *failing) Record(bench.Trial) error { return assert.AnError }
func (f *failing) Close() error {
	f.closed = true
	return assert.AnError
}

func TestMulti(t *testing.T) {
	first := NewSummary(filepath.Join(t.TempDir(), "s.json"))
	bad := &failing{}
	m := Multi{first, bad}

	assert.ErrorIs(t, m.Record(sample[0]), assert.AnError)
	assert.Len(t, first.trials, 1, "sinks before the failing one still record")

	assert.ErrorIs(t, m.Close(), assert.AnError)
	assert.True(t, bad.closed)
}
