package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fyrsmithlabs/fixd/internal/diagnose"
	"github.com/fyrsmithlabs/fixd/internal/fix"
	"github.com/fyrsmithlabs/fixd/internal/ollama"
)

func TestDiagnosis(t *testing.T) {
	out := Diagnosis(&diagnose.Diagnosis{
		Category:   diagnose.CategoryModule,
		Message:    "Cannot find module 'left-pad'",
		File:       "/srv/app/index.js",
		Line:       3,
		Suggestion: "Install missing module: left-pad",
		Confidence: 0.8,
	})

	assert.Contains(t, out, "module")
	assert.Contains(t, out, "Cannot find module 'left-pad'")
	assert.Contains(t, out, "/srv/app/index.js:3")
	assert.Contains(t, out, "80%")
}

func TestDiagnosis_ShowsPatternHintWhenDistinct(t *testing.T) {
	out := Diagnosis(&diagnose.Diagnosis{
		Category:    diagnose.CategoryModule,
		Message:     "Cannot find module 'left-pad'",
		Suggestion:  "left-pad is missing from node_modules.",
		PatternHint: "Install missing module: left-pad",
		Confidence:  0.8,
	})

	assert.Contains(t, out, "left-pad is missing from node_modules.")
	assert.Contains(t, out, "hint: Install missing module: left-pad")
}

func TestFixes(t *testing.T) {
	out := Fixes([]fix.Fix{
		{Description: "Install missing module: left-pad", Confidence: 0.9},
		{Description: "Run suggested command: npm rebuild", Confidence: 0.6},
	})

	assert.Contains(t, out, "[1]")
	assert.Contains(t, out, "[2]")
	assert.Contains(t, out, "left-pad")
	assert.Contains(t, out, "90%")
}

func TestFixes_Empty(t *testing.T) {
	assert.Contains(t, Fixes(nil), "No automatic fix")
}

func TestPullProgress(t *testing.T) {
	out := PullProgress(ollama.PullProgress{Status: "downloading", Completed: 512, Total: 1024})
	assert.Contains(t, out, "downloading")
	assert.Contains(t, out, "50%")

	out = PullProgress(ollama.PullProgress{Status: "pulling manifest"})
	assert.Contains(t, out, "pulling manifest")
}
