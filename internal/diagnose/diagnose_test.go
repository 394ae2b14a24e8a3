package diagnose

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_Categories(t *testing.T) {
	tests := []struct {
		name       string
		stderr     string
		wantCat    Category
		wantDetail string
	}{
		{
			name:       "node missing module",
			stderr:     "Error: Cannot find module 'left-pad'\nRequire stack:\n- /srv/app/index.js",
			wantCat:    CategoryModule,
			wantDetail: "left-pad",
		},
		{
			name:       "python missing module",
			stderr:     "ModuleNotFoundError: No module named 'requests'",
			wantCat:    CategoryModule,
			wantDetail: "requests",
		},
		{
			name:       "zsh command not found",
			stderr:     "zsh: command not found: gitx",
			wantCat:    CategoryCommand,
			wantDetail: "gitx",
		},
		{
			name:       "bash command not found",
			stderr:     "gitx: command not found",
			wantCat:    CategoryCommand,
			wantDetail: "gitx",
		},
		{
			name:       "js syntax error",
			stderr:     "SyntaxError: Unexpected end of input",
			wantCat:    CategorySyntax,
			wantDetail: "Unexpected end of input",
		},
		{
			name:       "python indentation",
			stderr:     "IndentationError: unexpected indent",
			wantCat:    CategorySyntax,
			wantDetail: "unexpected indent",
		},
		{
			name:       "type error",
			stderr:     "TypeError: Cannot read properties of undefined (reading 'map')",
			wantCat:    CategoryType,
			wantDetail: "Cannot read properties of undefined (reading 'map')",
		},
		{
			name:       "reference error",
			stderr:     "ReferenceError: foo is not defined",
			wantCat:    CategoryRuntime,
			wantDetail: "foo is not defined",
		},
		{
			name:       "go panic",
			stderr:     "panic: runtime error: index out of range [3] with length 2",
			wantCat:    CategoryRuntime,
			wantDetail: "runtime error: index out of range [3] with length 2",
		},
		{
			name:    "permission denied",
			stderr:  "/bin/deploy.sh: Permission denied",
			wantCat: CategoryPermission,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Classify(Context{Command: "run", Stderr: tt.stderr})
			require.NotNil(t, d)
			assert.Equal(t, tt.wantCat, d.Category)
			assert.Equal(t, tt.wantDetail, d.Detail)
			assert.InDelta(t, 0.8, d.Confidence, 1e-9)
		})
	}
}

func TestClassify_MessageIsFullMatchedSubstring(t *testing.T) {
	d := Classify(Context{Stderr: "Error: Cannot find module 'left-pad'"})
	require.NotNil(t, d)
	assert.Equal(t, "Cannot find module 'left-pad'", d.Message)
}

func TestClassify_PriorityOrder(t *testing.T) {
	// A syntax pattern appearing after a command pattern in the text still
	// wins: categories are scanned in declaration order, not text order.
	out := "gitx: command not found\nSyntaxError: Unexpected token ')'"
	d := Classify(Context{Stderr: out})
	require.NotNil(t, d)
	assert.Equal(t, CategorySyntax, d.Category)
}

func TestClassify_PrefersStderr(t *testing.T) {
	d := Classify(Context{
		Stdout: "TypeError: boom",
		Stderr: "Error: Cannot find module 'chalk'",
	})
	require.NotNil(t, d)
	assert.Equal(t, CategoryModule, d.Category)
}

func TestClassify_FallsBackToStdout(t *testing.T) {
	d := Classify(Context{
		Stdout: "TypeError: boom",
		Stderr: "   \n",
	})
	require.NotNil(t, d)
	assert.Equal(t, CategoryType, d.Category)
}

func TestClassify_NothingToDiagnose(t *testing.T) {
	assert.Nil(t, Classify(Context{}))
	assert.Nil(t, Classify(Context{Stdout: "  ", Stderr: "\n\t"}))
}

func TestClassify_UnknownFallback(t *testing.T) {
	d := Classify(Context{Stderr: "something inexplicable happened\nsecond line"})
	require.NotNil(t, d)
	assert.Equal(t, CategoryUnknown, d.Category)
	assert.Equal(t, "something inexplicable happened", d.Message)
	assert.InDelta(t, 0.5, d.Confidence, 1e-9)
	assert.Empty(t, d.Suggestion)
}

func TestClassify_LocationFromStackFrame(t *testing.T) {
	stderr := "ReferenceError: foo is not defined\n    at doWork (/srv/app/lib/worker.js:42:7)\n    at main (/srv/app/index.js:9:3)"
	d := Classify(Context{Stderr: stderr})
	require.NotNil(t, d)
	assert.Equal(t, "/srv/app/lib/worker.js", d.File)
	assert.Equal(t, 42, d.Line)
}

func TestClassify_LocationFromPythonTraceback(t *testing.T) {
	stderr := "Traceback (most recent call last):\n  File \"/srv/app/main.py\", line 12, in <module>\nNameError: name 'foo' is not defined"
	d := Classify(Context{Stderr: stderr})
	require.NotNil(t, d)
	assert.Equal(t, CategoryRuntime, d.Category)
	assert.Equal(t, "/srv/app/main.py", d.File)
	assert.Equal(t, 12, d.Line)
}

func TestClassify_NoLocation(t *testing.T) {
	d := Classify(Context{Stderr: "zsh: command not found: gitx"})
	require.NotNil(t, d)
	assert.Empty(t, d.File)
	assert.Zero(t, d.Line)
}

func TestClassify_ModuleSuggestion(t *testing.T) {
	d := Classify(Context{Stderr: "Cannot find module 'left-pad'"})
	require.NotNil(t, d)
	assert.Equal(t, "Install missing module: left-pad", d.Suggestion)
}

func TestClassify_Deterministic(t *testing.T) {
	c := Context{Command: "node app.js", Stderr: "Cannot find module 'left-pad'"}
	first := Classify(c)
	second := Classify(c)
	require.NotNil(t, first)
	assert.Equal(t, first, second)
}
