package diagnose

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Confidence priors. Fixed policy constants, not calibrated probabilities.
const (
	matchedConfidence = 0.8
	unknownConfidence = 0.5
)

// rule binds a category to its recognition patterns. Patterns carry at most
// one capturing group, extracted as the diagnosis detail.
type rule struct {
	category Category
	patterns []*regexp.Regexp
}

// rules is scanned in order; the first match anywhere in the table wins.
// Keep the category order exactly as declared: syntax, type, module,
// runtime, permission, command.
var rules = []rule{
	{CategorySyntax, []*regexp.Regexp{
		regexp.MustCompile(`SyntaxError:\s*(.+)`),
		regexp.MustCompile(`IndentationError:\s*(.+)`),
		regexp.MustCompile(`(?i)syntax error[:,]?\s*(.*)`),
		regexp.MustCompile(`Unexpected token\s*('?[^'\s]+'?)`),
	}},
	{CategoryType, []*regexp.Regexp{
		regexp.MustCompile(`TypeError:\s*(.+)`),
		regexp.MustCompile(`cannot use (.+) as .+ value`),
		regexp.MustCompile(`(?i)incompatible types?:?\s*(.*)`),
	}},
	{CategoryModule, []*regexp.Regexp{
		regexp.MustCompile(`Cannot find module '([^']+)'`),
		regexp.MustCompile(`No module named '([^']+)'`),
		regexp.MustCompile(`ImportError:\s*(.+)`),
		regexp.MustCompile(`cannot find package "([^"]+)"`),
	}},
	{CategoryRuntime, []*regexp.Regexp{
		regexp.MustCompile(`ReferenceError:\s*(.+)`),
		regexp.MustCompile(`NameError:\s*(.+)`),
		regexp.MustCompile(`panic:\s*(.+)`),
		regexp.MustCompile(`RuntimeError:\s*(.+)`),
		regexp.MustCompile(`(?i)segmentation fault`),
	}},
	{CategoryPermission, []*regexp.Regexp{
		regexp.MustCompile(`(?i)permission denied`),
		regexp.MustCompile(`EACCES[:,]?\s*(.+)`),
		regexp.MustCompile(`(?i)operation not permitted`),
	}},
	{CategoryCommand, []*regexp.Regexp{
		regexp.MustCompile(`command not found:?\s*(\S+)`),
		regexp.MustCompile(`(\S+): command not found`),
		regexp.MustCompile(`'([^']+)' is not recognized as an internal or external command`),
	}},
}

// locationPatterns extract a file:line hint from stack-frame-like fragments.
// Extraction is independent of which category matched.
var locationPatterns = []*regexp.Regexp{
	// e.g. "at doWork (/srv/app/lib/worker.js:42:7)"
	regexp.MustCompile(`\(([^():\s]+):(\d+)(?::\d+)?\)`),
	// e.g. `File "/srv/app/main.py", line 12`
	regexp.MustCompile(`File "([^"]+)", line (\d+)`),
}

// Classify maps a captured failure to a Diagnosis. It returns nil when there
// is nothing to diagnose (both streams empty). Unmatched output yields a
// CategoryUnknown diagnosis with the first output line as message.
func Classify(c Context) *Diagnosis {
	text := c.Stderr
	if strings.TrimSpace(text) == "" {
		text = c.Stdout
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}

	for _, r := range rules {
		for _, p := range r.patterns {
			m := p.FindStringSubmatch(text)
			if m == nil {
				continue
			}
			detail := ""
			if len(m) > 1 {
				detail = strings.TrimSpace(m[1])
			}
			d := &Diagnosis{
				Category:   r.category,
				Message:    m[0],
				Detail:     detail,
				Suggestion: suggestionFor(r.category, detail),
				Confidence: matchedConfidence,
			}
			d.File, d.Line = extractLocation(text)
			return d
		}
	}

	d := &Diagnosis{
		Category:   CategoryUnknown,
		Message:    firstLine(text),
		Confidence: unknownConfidence,
	}
	d.File, d.Line = extractLocation(text)
	return d
}

// suggestionFor returns the deterministic pattern-derived hint for a
// category. Enrichment may later replace it with model prose.
func suggestionFor(cat Category, detail string) string {
	switch cat {
	case CategoryModule:
		return fmt.Sprintf("Install missing module: %s", detail)
	case CategoryCommand:
		return "Command not found. Check that it is installed and that your PATH includes it."
	case CategoryPermission:
		return "Permission was denied. Retry with elevated privileges (sudo) or fix the file permissions."
	case CategorySyntax:
		if detail != "" {
			return fmt.Sprintf("Fix the syntax error near: %s", detail)
		}
		return "Fix the reported syntax error."
	case CategoryType:
		return "Check the types of the values involved in the failing expression."
	case CategoryRuntime:
		return "Inspect the runtime failure at the reported location."
	default:
		return ""
	}
}

func extractLocation(text string) (string, int) {
	for _, p := range locationPatterns {
		m := p.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		line, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		return m[1], line
	}
	return "", 0
}

func firstLine(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		return text[:i]
	}
	return text
}
