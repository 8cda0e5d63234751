// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: debug.go — cold-path structured logging
//
// Purpose:
//   - One logrus logger for the process, handed out as per-module entries
//     tagged with a "module" field.
//   - DropMessage / DropError keep the short "TAG: message" call sites used
//     for lifecycle events (run start, trial result, report written).
//
// Notes:
//   - Never call from the insert/fetch hot loops.
//   - Fatal is the only exit path for corruption detected by the consumer.
// ─────────────────────────────────────────────────────────────────────────────

package debug

import (
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	base    = newBase()
	entries sync.Map // module name → *logrus.Entry
)

func newBase() *logrus.Logger {
	l := logrus.New()
	l.Out = os.Stderr
	l.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	l.Level = logrus.InfoLevel
	return l
}

// Logger returns the entry for module, creating it on first use.
func Logger(module string) *logrus.Entry {
	if e, ok := entries.Load(module); ok {
		return e.(*logrus.Entry)
	}
	e, _ := entries.LoadOrStore(module, base.WithField("module", module))
	return e.(*logrus.Entry)
}

// SetLevel accepts logrus level names (trace, debug, info, warn, error,
// fatal, panic).
func SetLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return errors.Wrap(err, "debug: log level")
	}
	base.SetLevel(lvl)
	return nil
}

// SetOutput redirects every module logger.
func SetOutput(w io.Writer) {
	base.SetOutput(w)
}

// SetExitFunc replaces the process exit used by Fatal; tests use it to
// observe fatal paths.
func SetExitFunc(fn func(int)) {
	base.ExitFunc = fn
}

// DropMessage logs an informational "prefix: message" line.
func DropMessage(prefix, message string) {
	base.WithField("tag", prefix).Info(message)
}

// DropError logs prefix with err, or prefix alone as a warning tag when err
// is nil.
func DropError(prefix string, err error) {
	if err != nil {
		base.WithField("tag", prefix).WithError(err).Error(prefix)
		return
	}
	base.WithField("tag", prefix).Warn(prefix)
}

// Fatal logs err and terminates the process through the logger's exit
// function.
func Fatal(prefix string, err error) {
	base.WithField("tag", prefix).WithError(err).Fatal(prefix)
}
