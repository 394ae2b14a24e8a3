// Package executor runs shell commands and captures their output.
//
// A nonzero exit is not an error here: Run always returns a Result, and a
// command that cannot be spawned at all still yields one with the failure
// text in Stderr. Callers decide what a failure means.
package executor

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/fixd/internal/diagnose"
)

// spawnExitCode marks a command that could not be started at all.
const spawnExitCode = 127

// Result is the captured outcome of one command execution.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// DebugContext packages a Result with its originating command for the
// classifier.
func (r Result) DebugContext(command, dir string) diagnose.Context {
	return diagnose.Context{
		Command:    command,
		Stdout:     r.Stdout,
		Stderr:     r.Stderr,
		Dir:        dir,
		CapturedAt: time.Now(),
	}
}

// Executor runs commands through the user's shell.
type Executor struct {
	shell  string
	logger *zap.Logger
}

// New creates an executor using $SHELL, falling back to /bin/sh.
func New(logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/sh"
	}
	return &Executor{shell: shell, logger: logger}
}

// Run executes command in dir (empty dir means the current directory) and
// captures stdout, stderr, exit code and duration. It never returns an
// error value: spawn failures surface in the Result itself.
func (e *Executor) Run(ctx context.Context, command, dir string) Result {
	cmd := exec.CommandContext(ctx, e.shell, "-c", command)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
		} else {
			// Spawn failure: report it through the result, not an error.
			res.ExitCode = spawnExitCode
			if res.Stderr != "" {
				res.Stderr += "\n"
			}
			res.Stderr += err.Error()
		}
	}

	e.logger.Debug("command executed",
		zap.String("command", command),
		zap.Int("exit_code", res.ExitCode),
		zap.Duration("duration", res.Duration),
	)
	return res
}
