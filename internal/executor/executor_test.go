package executor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Success(t *testing.T) {
	e := New(nil)
	res := e.Run(context.Background(), "echo hello", "")

	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "hello\n", res.Stdout)
	assert.Empty(t, res.Stderr)
	assert.Greater(t, res.Duration.Nanoseconds(), int64(0))
}

func TestRun_NonzeroExit(t *testing.T) {
	e := New(nil)
	res := e.Run(context.Background(), "echo oops >&2; exit 3", "")

	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "oops\n", res.Stderr)
}

func TestRun_RespectsDir(t *testing.T) {
	dir := t.TempDir()
	e := New(nil)
	res := e.Run(context.Background(), "pwd", dir)

	require.Equal(t, 0, res.ExitCode)
	assert.Contains(t, res.Stdout, dir)
}

func TestRun_MissingCommand(t *testing.T) {
	e := New(nil)
	res := e.Run(context.Background(), "definitely-not-a-real-command-xyz", "")

	assert.NotEqual(t, 0, res.ExitCode)
	assert.NotEmpty(t, res.Stderr)
}

func TestDebugContext(t *testing.T) {
	res := Result{Stdout: "out", Stderr: "err", ExitCode: 1}
	dc := res.DebugContext("node app.js", "/srv/app")

	assert.Equal(t, "node app.js", dc.Command)
	assert.Equal(t, "out", dc.Stdout)
	assert.Equal(t, "err", dc.Stderr)
	assert.Equal(t, "/srv/app", dc.Dir)
	assert.False(t, dc.CapturedAt.IsZero())
}
