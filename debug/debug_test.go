package debug

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetExitFunc(os.Exit)
		_ = SetLevel("info")
	})
	return &buf
}

func TestLoggerTagsModule(t *testing.T) {
	buf := capture(t)
	l := Logger("ring")
	assert.Same(t, l, Logger("ring"))

	l.Info("hello")
	assert.Contains(t, buf.String(), "module=ring")
	assert.Contains(t, buf.String(), "msg=hello")
}

func TestSetLevel(t *testing.T) {
	buf := capture(t)
	require.NoError(t, SetLevel("warn"))
	Logger("x").Info("hidden")
	Logger("x").Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	assert.Error(t, SetLevel("loud"))
	assert.Equal(t, logrus.WarnLevel, base.GetLevel())
}

func TestDropHelpers(t *testing.T) {
	buf := capture(t)
	DropMessage("START", "sweep begins")
	DropError("REPORT", errors.New("disk full"))
	DropError("IDLE", nil)

	out := buf.String()
	assert.Contains(t, out, "tag=START")
	assert.Contains(t, out, "sweep begins")
	assert.Contains(t, out, "disk full")
	assert.Contains(t, out, "level=warning")
}

func TestFatalUsesExitFunc(t *testing.T) {
	buf := capture(t)
	code := -1
	SetExitFunc(func(c int) { code = c })

	Fatal("CORRUPTION", errors.New("seal mismatch"))
	assert.Equal(t, 1, code)
	assert.Contains(t, buf.String(), "seal mismatch")
}
