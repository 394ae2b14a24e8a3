package diagnose

import (
	"time"
)

// Category is the typed class of a command failure.
type Category string

const (
	// CategorySyntax represents syntax errors in source or shell input.
	CategorySyntax Category = "syntax"
	// CategoryRuntime represents errors raised while the program was running.
	CategoryRuntime Category = "runtime"
	// CategoryType represents type errors.
	CategoryType Category = "type"
	// CategoryCommand represents unrecognized or missing commands.
	CategoryCommand Category = "command"
	// CategoryModule represents missing modules or packages.
	CategoryModule Category = "module"
	// CategoryPermission represents permission and privilege failures.
	CategoryPermission Category = "permission"
	// CategoryUnknown is the catch-all for unmatched output.
	CategoryUnknown Category = "unknown"
)

// Context captures one failed command execution. It is immutable once
// created; the executor produces it and everything downstream only reads it.
type Context struct {
	// Command is the shell command text that was executed.
	Command string `json:"command"`

	// Stdout is the captured standard output.
	Stdout string `json:"stdout"`

	// Stderr is the captured standard error.
	Stderr string `json:"stderr"`

	// Dir is the working directory the command ran in.
	Dir string `json:"dir"`

	// CapturedAt is when the execution result was captured.
	CapturedAt time.Time `json:"captured_at"`
}

// Diagnosis is the structured classification of a failure.
type Diagnosis struct {
	// Category is the matched error category.
	Category Category `json:"category"`

	// Message is the full matched substring, or the first output line for
	// the unknown category.
	Message string `json:"message"`

	// Detail is the optional captured submatch (module name, command token).
	Detail string `json:"detail,omitempty"`

	// File and Line locate the error in source when a stack-frame-like
	// fragment was present in the output. Line is 0 when absent.
	File string `json:"file,omitempty"`
	Line int    `json:"line,omitempty"`

	// Suggestion is the remediation hint currently surfaced to the user.
	// The classifier fills it with a pattern-derived hint; enrichment may
	// replace it with model-generated text.
	Suggestion string `json:"suggestion,omitempty"`

	// PatternHint preserves the deterministic pattern-derived hint after
	// enrichment replaces Suggestion.
	PatternHint string `json:"pattern_hint,omitempty"`

	// Confidence is a heuristic quality signal in [0,1], not a calibrated
	// probability.
	Confidence float64 `json:"confidence"`
}
