// Package history resolves the user's most recent shell command.
//
// It reads the shell history file directly ($HISTFILE, then the usual zsh
// and bash locations), understanding zsh extended history lines. fixd's own
// invocations are skipped so "fix the last command" never points at fixd.
package history

import (
	"os"
	"path/filepath"
	"strings"
)

// zsh extended history lines look like ": 1700000000:0;git push".
const zshExtendedPrefix = ": "

// Resolver finds the last command in the user's shell history.
type Resolver struct {
	paths []string
	skip  string
}

// NewResolver creates a resolver over the default history locations.
func NewResolver() *Resolver {
	var paths []string
	if hf := os.Getenv("HISTFILE"); hf != "" {
		paths = append(paths, hf)
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".zsh_history"),
			filepath.Join(home, ".bash_history"),
		)
	}
	return &Resolver{paths: paths, skip: "fixd"}
}

// NewResolverWithPaths creates a resolver over explicit history files.
func NewResolverWithPaths(paths ...string) *Resolver {
	return &Resolver{paths: paths, skip: "fixd"}
}

// LastCommand returns the most recent history entry, or ok=false when no
// usable history exists.
func (r *Resolver) LastCommand() (string, bool) {
	for _, path := range r.paths {
		if cmd, ok := lastFromFile(path, r.skip); ok {
			return cmd, true
		}
	}
	return "", false
}

func lastFromFile(path, skip string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}

	lines := strings.Split(string(data), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		cmd := parseLine(lines[i])
		if cmd == "" {
			continue
		}
		if first := strings.Fields(cmd); len(first) > 0 && first[0] == skip {
			continue
		}
		return cmd, true
	}
	return "", false
}

// parseLine strips the zsh extended history prefix when present.
func parseLine(line string) string {
	line = strings.TrimSpace(line)
	if line == "" {
		return ""
	}
	if strings.HasPrefix(line, zshExtendedPrefix) {
		if i := strings.IndexByte(line, ';'); i >= 0 {
			return strings.TrimSpace(line[i+1:])
		}
	}
	return line
}
