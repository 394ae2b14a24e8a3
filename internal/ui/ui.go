// Package ui renders diagnoses, fixes and progress for the terminal.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fyrsmithlabs/fixd/internal/diagnose"
	"github.com/fyrsmithlabs/fixd/internal/fix"
	"github.com/fyrsmithlabs/fixd/internal/ollama"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	categoryStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	okStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	failStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	indexStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
)

// Diagnosis renders a classified error for display.
func Diagnosis(d *diagnose.Diagnosis) string {
	var sb strings.Builder
	sb.WriteString(headerStyle.Render("Diagnosis"))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  %s %s\n", categoryStyle.Render(string(d.Category)), d.Message))
	if d.File != "" {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("  at %s:%d", d.File, d.Line)))
		sb.WriteString("\n")
	}
	if d.Suggestion != "" {
		sb.WriteString(fmt.Sprintf("  %s\n", d.Suggestion))
	}
	if d.PatternHint != "" && d.PatternHint != d.Suggestion {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("  hint: %s", d.PatternHint)))
		sb.WriteString("\n")
	}
	sb.WriteString(dimStyle.Render(fmt.Sprintf("  confidence %.0f%%", d.Confidence*100)))
	return sb.String()
}

// Fixes renders the candidate fix list with selection indexes.
func Fixes(fixes []fix.Fix) string {
	if len(fixes) == 0 {
		return dimStyle.Render("No automatic fix available.")
	}
	var sb strings.Builder
	sb.WriteString(headerStyle.Render("Suggested fixes"))
	sb.WriteString("\n")
	for i, f := range fixes {
		sb.WriteString(fmt.Sprintf("  %s %s %s\n",
			indexStyle.Render(fmt.Sprintf("[%d]", i+1)),
			f.Description,
			dimStyle.Render(fmt.Sprintf("(%.0f%%)", f.Confidence*100)),
		))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// PullProgress renders one model download progress event as a single line.
func PullProgress(p ollama.PullProgress) string {
	if p.Total > 0 {
		percent := float64(p.Completed) / float64(p.Total) * 100
		return fmt.Sprintf("\r%s %.0f%%", p.Status, percent)
	}
	return fmt.Sprintf("\r%s", p.Status)
}

// Success renders a success banner.
func Success(msg string) string { return okStyle.Render("✓ " + msg) }

// Failure renders a failure banner.
func Failure(msg string) string { return failStyle.Render("✗ " + msg) }
