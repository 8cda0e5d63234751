package report

import (
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/pkg/errors"

	"ringbench/bench"
)

// Chart renders mean throughput against producer count, one line per mode,
// as a standalone HTML page on Close.
type Chart struct {
	path   string
	trials []bench.Trial
}

// NewChart writes to path when closed.
func NewChart(path string) *Chart {
	return &Chart{path: path}
}

func (c *Chart) Record(t bench.Trial) error {
	c.trials = append(c.trials, t)
	return nil
}

// Render draws the trials recorded so far.
func (c *Chart) Render(w io.Writer) error {
	rows := Summarize(c.trials)

	var counts []int
	seen := make(map[int]bool)
	for _, r := range rows {
		if !seen[r.Producers] {
			seen[r.Producers] = true
			counts = append(counts, r.Producers)
		}
	}
	sort.Ints(counts)
	axis := make([]string, len(counts))
	slot := make(map[int]int, len(counts))
	for i, n := range counts {
		axis[i] = strconv.Itoa(n)
		slot[n] = i
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "ring throughput", Subtitle: "messages per second"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "producers"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "msg/s"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: true, Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: true}),
	)
	line.SetXAxis(axis)

	series := make(map[string][]opts.LineData)
	var order []string
	for _, r := range rows {
		data, ok := series[r.Mode]
		if !ok {
			data = make([]opts.LineData, len(counts))
			for i := range data {
				data[i] = opts.LineData{Value: "-"}
			}
			order = append(order, r.Mode)
		}
		data[slot[r.Producers]] = opts.LineData{Value: r.Mean}
		series[r.Mode] = data
	}
	for _, mode := range order {
		line.AddSeries(mode, series[mode])
	}
	return errors.Wrap(line.Render(w), "report: render chart")
}

func (c *Chart) Close() error {
	f, err := os.Create(c.path)
	if err != nil {
		return errors.Wrapf(err, "report: create %s", c.path)
	}
	if err := c.Render(f); err != nil {
		f.Close()
		return err
	}
	log.WithField("file", c.path).Info("chart written")
	return f.Close()
}
