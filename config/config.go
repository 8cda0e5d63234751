// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: config.go — command line, environment and file configuration
//
// Purpose:
//   - Binds a pflag set into a private viper instance so every setting can
//     come from a flag, a RINGBENCH_* variable or a JSON/YAML file.
//   - Accepts the classic positional form `<check> [<mode>]` on top.
//   - Resolves the loose values into a typed Config.
//
// Precedence (highest first):
//   positional → flag → environment → config file → default
// ─────────────────────────────────────────────────────────────────────────────

package config

import (
	"io"
	"runtime"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"ringbench/bench"
	"ringbench/constants"
	"ringbench/payload"
	"ringbench/ring"
)

// ErrUsage marks errors caused by bad arguments rather than bad files.
var ErrUsage = errors.New("config: invalid usage")

// Config is the resolved run configuration.
type Config struct {
	Modes      []ring.Mode  `json:"modes"`
	Verify     payload.Kind `json:"verify"`
	Producers  []int        `json:"producers"`
	Messages   int          `json:"messages"`
	Repeats    int          `json:"repeats"`
	Warmup     float64      `json:"warmup"`
	RingSize   uint64       `json:"ringSize"`
	Watermark  uint64       `json:"watermark"`
	HWThreads  int          `json:"hwThreads"`
	MinPayload int          `json:"minPayload"`
	MaxPayload int          `json:"maxPayload"`
	Pin        bool         `json:"pin"`
	Out        string       `json:"out"`
	SQLite     string       `json:"sqlite"`
	Chart      string       `json:"chart"`
	Summary    string       `json:"summary"`
	LogLevel   string       `json:"logLevel"`
}

// Flags returns the flag set Parse reads, for usage output.
func Flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("ringbench", pflag.ContinueOnError)
	fs.String("mode", "all", "publish protocol: lock|free|tail|optimized|yield, a comma list, or all")
	fs.String("verify", "none", "payload check: none|pattern|sequence")
	fs.StringSlice("producers", nil, "producer counts to sweep (default 1,2,4,... up to the core count)")
	fs.Int("messages", constants.NumMessages, "messages per producer per trial")
	fs.Int("repeats", constants.Repeats, "trials per (mode, producers)")
	fs.Float64("warmup", constants.WarmupFraction, "share of messages excluded from timing")
	fs.Uint64("ring-size", constants.RingSize, "ring capacity in bytes, power of two")
	fs.Uint64("watermark", constants.ForwardDegree, "look-ahead watermark in bytes")
	fs.Int("hw-threads", 0, "hardware threads assumed by the optimized protocol (0 = runtime.NumCPU)")
	fs.Int("min-payload", payload.MinSequenced, "smallest sequenced payload")
	fs.Int("max-payload", 256, "largest sequenced payload")
	fs.Bool("pin", false, "pin producers and consumer to cores")
	fs.String("out", constants.OutputDir, "directory for CSV checkpoints")
	fs.String("sqlite", "", "sqlite database receiving every trial")
	fs.String("chart", "", "HTML chart output path")
	fs.String("summary", "", "JSON summary output path")
	fs.String("log-level", "info", "trace|debug|info|warn|error")
	fs.String("config", "", "JSON or YAML config file")
	return fs
}

// Parse resolves args (without the program name) into a Config.
func Parse(args []string) (Config, error) {
	fs := Flags()
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		return Config{}, errors.Wrap(ErrUsage, err.Error())
	}

	v := viper.New()
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return Config{}, errors.Wrap(err, "config: bind flags")
	}

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "config: read %s", file)
		}
	}

	switch rest := fs.Args(); {
	case len(rest) > 2:
		return Config{}, errors.Wrapf(ErrUsage, "usage: ringbench [flags] [<check> [<mode>]], got %d arguments", len(rest))
	case len(rest) == 2:
		v.Set("mode", rest[1])
		fallthrough
	case len(rest) == 1:
		v.Set("verify", rest[0])
	}

	return resolve(v)
}

func resolve(v *viper.Viper) (Config, error) {
	var err error
	c := Config{
		Messages:   v.GetInt("messages"),
		Repeats:    v.GetInt("repeats"),
		Warmup:     v.GetFloat64("warmup"),
		RingSize:   v.GetUint64("ring-size"),
		Watermark:  v.GetUint64("watermark"),
		HWThreads:  v.GetInt("hw-threads"),
		MinPayload: v.GetInt("min-payload"),
		MaxPayload: v.GetInt("max-payload"),
		Pin:        v.GetBool("pin"),
		Out:        v.GetString("out"),
		SQLite:     v.GetString("sqlite"),
		Chart:      v.GetString("chart"),
		Summary:    v.GetString("summary"),
		LogLevel:   v.GetString("log-level"),
	}
	if c.Modes, err = parseModes(v.GetString("mode")); err != nil {
		return c, err
	}
	if c.Verify, err = payload.ParseKind(cast.ToString(v.Get("verify"))); err != nil {
		return c, errors.Wrap(ErrUsage, err.Error())
	}
	if c.Producers, err = parseCounts(v.Get("producers")); err != nil {
		return c, err
	}
	return c, c.validate()
}

func (c Config) validate() error {
	switch {
	case c.Messages < 1:
		return errors.Wrapf(ErrUsage, "messages %d < 1", c.Messages)
	case c.Repeats < 1:
		return errors.Wrapf(ErrUsage, "repeats %d < 1", c.Repeats)
	case c.Warmup < 0 || c.Warmup >= 1:
		return errors.Wrapf(ErrUsage, "warmup %.3f outside [0, 1)", c.Warmup)
	case c.MinPayload > c.MaxPayload:
		return errors.Wrapf(ErrUsage, "min-payload %d > max-payload %d", c.MinPayload, c.MaxPayload)
	}
	opts := ring.Options{Capacity: c.RingSize, Watermark: c.Watermark}
	if err := opts.Validate(); err != nil {
		return errors.Wrap(err, "config")
	}
	if c.Verify == payload.Sequence {
		largest := payload.NewSequenced(c.MinPayload, c.MaxPayload).Max
		if frame := ring.FrameSize(largest); frame >= c.RingSize {
			return errors.Wrapf(ErrUsage, "max-payload %d needs a %d-byte frame, ring-size is %d", largest, frame, c.RingSize)
		}
	}
	return nil
}

// parseModes accepts "all", a single mode or a comma separated list.
func parseModes(s string) ([]ring.Mode, error) {
	if strings.EqualFold(strings.TrimSpace(s), "all") {
		return ring.Modes(), nil
	}
	var modes []ring.Mode
	for _, name := range strings.Split(s, ",") {
		m, err := ring.ParseMode(name)
		if err != nil {
			return nil, err
		}
		modes = append(modes, m)
	}
	return modes, nil
}

// parseCounts takes the producers value in whatever shape viper holds it:
// a flag slice, a comma string from the environment or a file list.
func parseCounts(raw interface{}) ([]int, error) {
	var counts []int
	for _, item := range cast.ToStringSlice(raw) {
		for _, field := range strings.Split(item, ",") {
			field = strings.TrimSpace(field)
			if field == "" {
				continue
			}
			n, err := cast.ToIntE(field)
			if err != nil || n < 1 {
				return nil, errors.Wrapf(ErrUsage, "producer count %q", field)
			}
			counts = append(counts, n)
		}
	}
	if len(counts) == 0 {
		limit := constants.TotalCores
		if limit == 0 {
			limit = runtime.NumCPU()
		}
		counts = bench.ProducerSweep(limit)
	}
	return counts, nil
}

// Plan turns the configuration into a bench sweep.
func (c Config) Plan() bench.Plan {
	base := bench.DefaultOptions()
	base.Messages = c.Messages
	base.Verify = c.Verify
	base.MinPayload = c.MinPayload
	base.MaxPayload = c.MaxPayload
	base.Capacity = c.RingSize
	base.Watermark = c.Watermark
	base.HardwareThreads = c.HWThreads
	base.Warmup = c.Warmup
	base.Pin = c.Pin
	return bench.Plan{Base: base, Modes: c.Modes, Producers: c.Producers, Repeats: c.Repeats}
}
