package contract

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/huangsam/corpusmetrics/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureLog redirects the log helpers into a buffer for the duration of the test.
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOut, prevColor := logOutput, color.NoColor
	logOutput = &buf
	color.NoColor = true
	t.Cleanup(func() {
		logOutput = prevOut
		color.NoColor = prevColor
		SetQuiet(false)
	})
	return &buf
}

func TestLogHelpers(t *testing.T) {
	buf := captureLog(t)

	LogWarn("Run tracking failed", errors.New("boom"))
	LogInfo("[%d/%d] %s", 1, 2, "acme/widget")
	LogDiagnostic(schema.Diagnostic{Kind: schema.SubtreeDiagnostic, Path: "/corpus/a", Message: "permission denied"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Warn Run tracking failed: boom", lines[0])
	assert.Equal(t, "Info [1/2] acme/widget", lines[1])
	assert.Equal(t, "[subtree] /corpus/a: permission denied", lines[2])
}

func TestLogInfoQuiet(t *testing.T) {
	buf := captureLog(t)
	SetQuiet(true)

	LogInfo("hidden")
	LogWarn("visible", errors.New("x"))

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "visible")
}

func TestDiagnosticLabel(t *testing.T) {
	captureLog(t)
	assert.Equal(t, "[missing]", DiagnosticLabel(schema.MissingDiagnostic))
	assert.Equal(t, "[other]", DiagnosticLabel("other"))
}

func TestBuildIgnore(t *testing.T) {
	assert.Nil(t, BuildIgnore(nil))

	gi := BuildIgnore([]string{"target/", "*.min.js"})
	require.NotNil(t, gi)
	assert.True(t, gi.MatchesPath("target/classes/A.class"))
	assert.True(t, gi.MatchesPath("web/app.min.js"))
	assert.False(t, gi.MatchesPath("src/A.java"))
}

func TestGetDBFilePath(t *testing.T) {
	assert.Equal(t, ".corpusmetrics.db", filepath.Base(GetDBFilePath()))
}

func TestSelectOutputFile(t *testing.T) {
	f, err := SelectOutputFile("")
	require.NoError(t, err)
	assert.Equal(t, "/dev/stdout", f.Name())

	path := filepath.Join(t.TempDir(), "nested", "out.csv")
	f, err = SelectOutputFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	assert.Equal(t, path, f.Name())
}

func TestTruncatePath(t *testing.T) {
	tests := []struct {
		path     string
		maxWidth int
		expected string
	}{
		{"short.go", 20, "short.go"},
		{"very/long/path/to/file.go", 10, "...file.go"},
		{"abc", 3, "abc"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, TruncatePath(tt.path, tt.maxWidth))
	}
}

func TestParseBoolString(t *testing.T) {
	tests := []struct {
		in          string
		expected    bool
		expectError bool
	}{
		{"yes", true, false},
		{"TRUE", true, false},
		{"1", true, false},
		{"no", false, false},
		{"False", false, false},
		{"0", false, false},
		{"", false, true},
		{"maybe", false, true},
	}
	for _, tt := range tests {
		got, err := ParseBoolString(tt.in)
		if tt.expectError {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.expected, got, tt.in)
	}
}
