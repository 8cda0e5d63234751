package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"

	"ringbench/bench"
	"ringbench/ring"
)

// CSVHeader is the first row of every checkpoint file.
var CSVHeader = []string{"mode", "num_producers", "throughput_mps"}

// CSV keeps one file per mode, <dir>/<mode>.csv, and rewrites it in full
// after every trial.
type CSV struct {
	dir  string
	rows map[ring.Mode][][]string
}

// NewCSV creates dir if needed.
func NewCSV(dir string) (*CSV, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "report: create %s", dir)
	}
	return &CSV{dir: dir, rows: make(map[ring.Mode][][]string)}, nil
}

// Path returns the checkpoint file for mode.
func (c *CSV) Path(mode ring.Mode) string {
	return filepath.Join(c.dir, mode.String()+".csv")
}

func (c *CSV) Record(t bench.Trial) error {
	row := []string{
		t.Mode.String(),
		strconv.Itoa(t.Producers),
		strconv.FormatFloat(t.Throughput, 'f', 2, 64),
	}
	c.rows[t.Mode] = append(c.rows[t.Mode], row)
	return c.flush(t.Mode)
}

// flush writes to a temp file and renames it over the checkpoint so a crash
// mid-write never leaves a truncated file.
func (c *CSV) flush(mode ring.Mode) error {
	path := c.Path(mode)
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return errors.Wrapf(err, "report: create %s", tmp)
	}
	w := csv.NewWriter(f)
	rows := append([][]string{CSVHeader}, c.rows[mode]...)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return errors.Wrapf(err, "report: write %s", tmp)
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "report: close %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.Wrapf(err, "report: replace %s", path)
	}
	log.WithField("file", path).Debug("checkpoint written")
	return nil
}

// Close is a no-op; every Record already left a complete file.
func (c *CSV) Close() error { return nil }
