package contract

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/fatih/color"
	"github.com/huangsam/corpusmetrics/schema"
	ignore "github.com/sabhiram/go-gitignore"
)

// Color variables for console output.
var (
	FatalColor = color.New(color.FgRed, color.Bold) // FatalColor marks errors that end the run.
	WarnColor  = color.New(color.FgYellow)          // WarnColor marks recoverable problems.
	InfoColor  = color.New(color.FgCyan)            // InfoColor marks progress lines.
)

// diagnosticColors maps each diagnostic kind to its console color.
var diagnosticColors = map[schema.DiagnosticKind]*color.Color{
	schema.SubtreeDiagnostic:   color.New(color.FgRed),
	schema.FileDiagnostic:      color.New(color.FgMagenta),
	schema.KeyDiagnostic:       color.New(color.FgYellow),
	schema.DuplicateDiagnostic: color.New(color.FgBlue),
	schema.MissingDiagnostic:   color.New(color.FgCyan),
	schema.ArityDiagnostic:     color.New(color.FgRed, color.Bold),
}

// logOutput is where the log helpers write; tests swap it out.
var logOutput io.Writer = os.Stderr

var quiet atomic.Bool

// SetQuiet silences LogInfo.
func SetQuiet(q bool) {
	quiet.Store(q)
}

// SetColors toggles colored labels for every console helper.
func SetColors(enabled bool) {
	color.NoColor = !enabled
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(logOutput, "%s %s: %v\n", FatalColor.Sprint("Fatal"), msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(logOutput, "%s %s: %v\n", WarnColor.Sprint("Warn"), msg, err)
}

// LogInfo logs a progress message to stderr unless quiet mode is on.
func LogInfo(format string, args ...any) {
	if quiet.Load() {
		return
	}
	_, _ = fmt.Fprintf(logOutput, "%s %s\n", InfoColor.Sprint("Info"), fmt.Sprintf(format, args...))
}

// LogDiagnostic logs a single diagnostic with a colored kind label.
func LogDiagnostic(d schema.Diagnostic) {
	_, _ = fmt.Fprintf(logOutput, "%s %s: %s\n", DiagnosticLabel(d.Kind), d.Path, d.Message)
}

// DiagnosticLabel returns the bracketed, colored label for a diagnostic kind.
func DiagnosticLabel(kind schema.DiagnosticKind) string {
	label := "[" + string(kind) + "]"
	if c, ok := diagnosticColors[kind]; ok {
		return c.Sprint(label)
	}
	return label
}

// BuildIgnore compiles gitignore-style exclude patterns. It returns nil when there are none.
func BuildIgnore(patterns []string) *ignore.GitIgnore {
	if len(patterns) == 0 {
		return nil
	}
	return ignore.CompileIgnoreLines(patterns...)
}

// GetDBFilePath returns the path to the default SQLite run store.
func GetDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".corpusmetrics.db"
	}
	return filepath.Join(homeDir, ".corpusmetrics.db")
}

// SelectOutputFile returns the file handle for output. An empty path means stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return nil, err
	}
	return os.Create(filePath)
}

// TruncatePath truncates a file path to a maximum width with ellipsis prefix.
// Requires maxWidth > 3 to leave room for the prefix and at least one character.
func TruncatePath(path string, maxWidth int) string {
	runes := []rune(path)
	if len(runes) > maxWidth && maxWidth > 3 {
		return "..." + string(runes[len(runes)-maxWidth+3:])
	}
	return path
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
