package contract

import (
	"strings"
	"testing"
)

// FuzzBuildIgnore fuzzes exclude pattern compilation and matching with random inputs.
func FuzzBuildIgnore(f *testing.F) {
	seeds := []struct {
		path     string
		excludes string // comma-separated
	}{
		{"main.go", "*.log"},
		{"vendor/package/file.go", "vendor/"},
		{"test_file.min.js", "*.min.js"},
		{"", ""},
		{"very/long/path/to/file.txt", "**/temp/**"},
		{"a[b].go", "[,!"},
	}
	for _, seed := range seeds {
		f.Add(seed.path, seed.excludes)
	}

	f.Fuzz(func(_ *testing.T, path string, excludesStr string) {
		var excludes []string
		for ex := range strings.SplitSeq(excludesStr, ",") {
			if trimmed := strings.TrimSpace(ex); trimmed != "" {
				excludes = append(excludes, trimmed)
			}
		}
		if gi := BuildIgnore(excludes); gi != nil {
			_ = gi.MatchesPath(path)
		}
	})
}
