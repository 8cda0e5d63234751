package report

import (
	"io"
	"math"
	"os"
	"sort"

	"github.com/pkg/errors"
	"github.com/sugawarayuuta/sonnet"

	"ringbench/bench"
)

// Row aggregates the repeats of one (mode, producers) cell.
type Row struct {
	Mode      string  `json:"mode"`
	Producers int     `json:"num_producers"`
	Repeats   int     `json:"repeats"`
	Mean      float64 `json:"mean_mps"`
	Min       float64 `json:"min_mps"`
	Max       float64 `json:"max_mps"`
}

// Summarize groups trials by (mode, producers), ordered by mode then
// producer count.
func Summarize(trials []bench.Trial) []Row {
	type key struct {
		mode      int
		producers int
	}
	cells := make(map[key]*Row)
	var keys []key
	for _, t := range trials {
		k := key{int(t.Mode), t.Producers}
		row, ok := cells[k]
		if !ok {
			row = &Row{Mode: t.Mode.String(), Producers: t.Producers, Min: math.Inf(1), Max: math.Inf(-1)}
			cells[k] = row
			keys = append(keys, k)
		}
		row.Repeats++
		row.Mean += t.Throughput
		row.Min = math.Min(row.Min, t.Throughput)
		row.Max = math.Max(row.Max, t.Throughput)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].mode != keys[j].mode {
			return keys[i].mode < keys[j].mode
		}
		return keys[i].producers < keys[j].producers
	})

	rows := make([]Row, 0, len(keys))
	for _, k := range keys {
		row := cells[k]
		row.Mean /= float64(row.Repeats)
		rows = append(rows, *row)
	}
	return rows
}

// Summary collects trials and writes their aggregate as a JSON array on
// Close.
type Summary struct {
	path   string
	trials []bench.Trial
}

// NewSummary writes to path when closed.
func NewSummary(path string) *Summary {
	return &Summary{path: path}
}

func (s *Summary) Record(t bench.Trial) error {
	s.trials = append(s.trials, t)
	return nil
}

// WriteTo encodes the current aggregate to w.
func (s *Summary) WriteTo(w io.Writer) (int64, error) {
	data, err := sonnet.Marshal(Summarize(s.trials))
	if err != nil {
		return 0, errors.Wrap(err, "report: encode summary")
	}
	n, err := w.Write(append(data, '\n'))
	return int64(n), err
}

func (s *Summary) Close() error {
	f, err := os.Create(s.path)
	if err != nil {
		return errors.Wrapf(err, "report: create %s", s.path)
	}
	if _, err := s.WriteTo(f); err != nil {
		f.Close()
		return errors.Wrapf(err, "report: write %s", s.path)
	}
	log.WithField("file", s.path).Info("summary written")
	return f.Close()
}

// ReadSummary decodes a file written by Summary.
func ReadSummary(path string) ([]Row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "report: read %s", path)
	}
	var rows []Row
	if err := sonnet.Unmarshal(data, &rows); err != nil {
		return nil, errors.Wrapf(err, "report: decode %s", path)
	}
	return rows, nil
}
