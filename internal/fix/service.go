package fix

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/fixd/internal/diagnose"
	"github.com/fyrsmithlabs/fixd/internal/ollama"
)

// Per-rule confidence policy constants.
const (
	installConfidence    = 0.9
	commandConfidence    = 0.8
	permissionConfidence = 0.7
	modelConfidence      = 0.6
)

// Completer is the slice of the inference gateway the synthesizer needs.
type Completer interface {
	Complete(ctx context.Context, prompt string, opts ollama.Options) (string, error)
}

var (
	// moduleNameRe alternates the two phrasings the classifier recognizes
	// for missing modules.
	moduleNameRe = regexp.MustCompile(`Cannot find module '([^']+)'|No module named '([^']+)'`)

	// commandTokenRe extracts the unrecognized command token.
	commandTokenRe = regexp.MustCompile(`command not found:?\s*(\S+)|(\S+): command not found`)
)

const commandSystemPrompt = "You are a terminal assistant. Reply with a single executable shell command and nothing else. No prose, no markdown fences."

// Service synthesizes candidate fixes for a diagnosis.
type Service struct {
	ai     Completer
	logger *zap.Logger
}

// NewService creates a fix synthesizer. The completer may be nil, in which
// case categories without a deterministic rule yield no fixes.
func NewService(ai Completer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{ai: ai, logger: logger}
}

// Synthesize returns zero or more candidate fixes for the diagnosis, ordered
// by preference. It never fails: gateway errors degrade to an empty result.
func (s *Service) Synthesize(ctx context.Context, d *diagnose.Diagnosis, dc diagnose.Context) []Fix {
	switch d.Category {
	case diagnose.CategoryModule:
		return s.moduleFix(d, dc)
	case diagnose.CategoryCommand:
		return s.commandFix(d)
	case diagnose.CategoryPermission:
		return s.permissionFix(d)
	default:
		return s.modelFix(ctx, d, dc)
	}
}

// moduleFix proposes installing the missing module via the active package
// manager. The manager itself is resolved at apply time, not here.
func (s *Service) moduleFix(d *diagnose.Diagnosis, dc diagnose.Context) []Fix {
	name := d.Detail
	if m := moduleNameRe.FindStringSubmatch(d.Message); m != nil {
		if m[1] != "" {
			name = m[1]
		} else if m[2] != "" {
			name = m[2]
		}
	}
	if name == "" {
		return nil
	}
	return []Fix{{
		Description: fmt.Sprintf("Install missing module: %s", name),
		Confidence:  installConfidence,
		Action: Action{
			Kind:    KindInstallPackage,
			Package: name,
			Dir:     dc.Dir,
		},
	}}
}

// commandFix is advisory only: the right installation mechanism for an
// arbitrary missing command cannot be inferred reliably.
func (s *Service) commandFix(d *diagnose.Diagnosis) []Fix {
	token := d.Detail
	if m := commandTokenRe.FindStringSubmatch(d.Message); m != nil {
		if m[1] != "" {
			token = m[1]
		} else if m[2] != "" {
			token = m[2]
		}
	}
	if token == "" {
		return nil
	}
	return []Fix{{
		Description: fmt.Sprintf("Command %q was not found; verify it is installed and on your PATH", token),
		Confidence:  commandConfidence,
		Action: Action{
			Kind:     KindRunCommand,
			Advisory: fmt.Sprintf("Install %q with your system package manager, or add its directory to PATH.", token),
		},
	}}
}

func (s *Service) permissionFix(d *diagnose.Diagnosis) []Fix {
	return []Fix{{
		Description: "Mark the target file executable",
		Confidence:  permissionConfidence,
		Action: Action{
			Kind: KindChangePermission,
			// Path may be empty; applying is then a deliberate no-op.
			Path: d.File,
		},
	}}
}

// modelFix asks the gateway for a single shell command resolving the error.
func (s *Service) modelFix(ctx context.Context, d *diagnose.Diagnosis, dc diagnose.Context) []Fix {
	if s.ai == nil {
		return nil
	}

	errText := dc.Stderr
	if strings.TrimSpace(errText) == "" {
		errText = dc.Stdout
	}
	prompt := fmt.Sprintf(
		"The command %q failed in directory %s with this error:\n\n%s\n\nReply with one shell command that would resolve the error.",
		dc.Command, dc.Dir, errText,
	)

	reply, err := s.ai.Complete(ctx, prompt, ollama.Options{System: commandSystemPrompt})
	if err != nil {
		s.logger.Warn("fix suggestion request failed",
			zap.String("category", string(d.Category)),
			zap.Error(err),
		)
		return nil
	}

	command := firstCommandLine(reply)
	if command == "" {
		return nil
	}
	return []Fix{{
		Description: fmt.Sprintf("Run suggested command: %s", command),
		Confidence:  modelConfidence,
		Action: Action{
			Kind:    KindRunCommand,
			Command: command,
			Dir:     dc.Dir,
		},
	}}
}

// firstCommandLine strips markdown fences and returns the first non-empty
// line of a model reply, or "" when the reply carries no command.
func firstCommandLine(reply string) string {
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "```") {
			continue
		}
		return line
	}
	return ""
}
