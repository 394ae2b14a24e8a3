package fix

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/fixd/internal/executor"
)

// Runner executes shell commands on behalf of fix actions.
type Runner interface {
	Run(ctx context.Context, command, dir string) executor.Result
}

// managerProbes maps lock-file markers to package managers, in priority
// order. The first marker found on disk wins; absent all markers the most
// broadly compatible manager (npm) is used. The probe re-reads the
// filesystem on every invocation and never fails.
var managerProbes = []struct {
	lockFile   string
	name       string
	subcommand string
}{
	{"pnpm-lock.yaml", "pnpm", "add"},
	{"yarn.lock", "yarn", "add"},
	{"bun.lockb", "bun", "add"},
	{"package-lock.json", "npm", "install"},
}

// detectPackageManager probes dir for lock-file markers.
func detectPackageManager(dir string) (name, subcommand string) {
	for _, probe := range managerProbes {
		if _, err := os.Stat(filepath.Join(dir, probe.lockFile)); err == nil {
			return probe.name, probe.subcommand
		}
	}
	return "npm", "install"
}

// Applier interprets tagged fix actions. Each action is executed at most
// once per Apply call; failures are returned verbatim with no retry.
type Applier struct {
	runner Runner
	out    io.Writer
	logger *zap.Logger
}

// NewApplier creates an action interpreter. out receives advisory guidance
// text; it defaults to os.Stdout when nil.
func NewApplier(runner Runner, out io.Writer, logger *zap.Logger) *Applier {
	if out == nil {
		out = os.Stdout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Applier{runner: runner, out: out, logger: logger}
}

// Apply executes the fix's action. It returns the underlying failure
// unmodified so the caller can decide whether to try another fix.
func (a *Applier) Apply(ctx context.Context, f Fix) error {
	act := f.Action
	a.logger.Info("applying fix",
		zap.String("kind", string(act.Kind)),
		zap.String("description", f.Description),
		zap.Float64("confidence", f.Confidence),
	)

	switch act.Kind {
	case KindRunCommand:
		if act.Command == "" {
			// Advisory action: guidance only, no execution.
			fmt.Fprintln(a.out, act.Advisory)
			return nil
		}
		return a.runCommand(ctx, act.Command, act.Dir)

	case KindInstallPackage:
		if act.Package == "" {
			return fmt.Errorf("install_package action has no package name")
		}
		mgr, sub := detectPackageManager(act.Dir)
		command := fmt.Sprintf("%s %s %s", mgr, sub, act.Package)
		fmt.Fprintf(a.out, "Installing %s via %s\n", act.Package, mgr)
		return a.runCommand(ctx, command, act.Dir)

	case KindChangePermission:
		if act.Path == "" {
			// No file to act on; a safe no-op by contract.
			return nil
		}
		info, err := os.Stat(act.Path)
		if err != nil {
			return fmt.Errorf("stat %s: %w", act.Path, err)
		}
		return os.Chmod(act.Path, info.Mode().Perm()|0o111)

	case KindEditFile, KindUpdateConfig:
		if act.Path == "" {
			return fmt.Errorf("%s action has no path", act.Kind)
		}
		return os.WriteFile(act.Path, []byte(act.Content), 0o644)

	default:
		return fmt.Errorf("unknown action kind %q", act.Kind)
	}
}

func (a *Applier) runCommand(ctx context.Context, command, dir string) error {
	res := a.runner.Run(ctx, command, dir)
	if res.ExitCode != 0 {
		msg := strings.TrimSpace(res.Stderr)
		if msg == "" {
			msg = strings.TrimSpace(res.Stdout)
		}
		return fmt.Errorf("command %q exited %d: %s", command, res.ExitCode, msg)
	}
	return nil
}
