//go:build basic

// Package integration contains integration tests for corpusmetrics.
// These tests are excluded from normal test runs due to build tags.
// To run these tests: go test -tags basic ./integration
// Or use: go test -tags database ./integration for the database backends
package integration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func verificationCorpus(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeCorpus(t, filepath.Join(dir, "corpus"), map[string]string{
		"acme/widget/src/A.java": "if (a == null || b == null) return null;",
		"acme/widget/src/B.java": "// null\nreturn x;",
		"acme/widget/README.md":  "null",
		"zeta/tool/Main.java":    `String s = "null";`,
	})
	writeCorpus(t, dir, map[string]string{
		"wide.csv": "repository,file,loc\nacme/widget,/src/A.java,10\nzeta/tool,/Main.java,4\nghost/repo,/X.java,7",
	})
	return dir
}

func readOutput(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(content)
}

// TestCollectMergeCompress runs the three table commands end to end.
func TestCollectMergeCompress(t *testing.T) {
	dir := verificationCorpus(t)

	_, err := runCommand(t, dir, nil, "collect", "corpus", "--output-file", "out/nullReferences.csv", "-q")
	require.NoError(t, err)
	assert.Equal(t,
		"repository,file,nullReferences\nacme/widget,/src/A.java,3\nacme/widget,/src/B.java,1\nzeta/tool,/Main.java,1",
		readOutput(t, filepath.Join(dir, "out", "nullReferences.csv")))

	_, err = runCommand(t, dir, nil, "merge", "--wide", "wide.csv", "--narrow", "out/nullReferences.csv", "--output-file", "merged.csv", "-q")
	require.NoError(t, err)
	assert.Equal(t,
		"repository,file,loc,nullReferences\nacme/widget,/src/A.java,10,3\nzeta/tool,/Main.java,4,1\nghost/repo,/X.java,7,0",
		readOutput(t, filepath.Join(dir, "merged.csv")))

	_, err = runCommand(t, dir, nil, "compress", "--input", "merged.csv", "--output-file", "matrix.csv", "-q")
	require.NoError(t, err)
	assert.Equal(t, "loc,nullReferences\n10,3\n4,1\n7,0", readOutput(t, filepath.Join(dir, "matrix.csv")))
}

// TestCollectIsStableAcrossConcurrency compares stdout for different admission limits.
func TestCollectIsStableAcrossConcurrency(t *testing.T) {
	dir := verificationCorpus(t)

	var outputs []string
	for _, limit := range []string{"1", "64"} {
		out, err := runCommand(t, dir, nil, "collect", "corpus", "--concurrency", limit, "-q")
		require.NoError(t, err)
		outputs = append(outputs, out)
	}
	assert.Equal(t, outputs[0], outputs[1])
}

// TestCollectFromEnvironment configures the keyword and comment stripping through env vars.
func TestCollectFromEnvironment(t *testing.T) {
	dir := verificationCorpus(t)
	env := []string{"CORPUSMETRICS_STRIP_COMMENTS=true", "CORPUSMETRICS_METRIC=nulls"}

	out, err := runCommand(t, dir, env, "collect", "corpus", "-q")
	require.NoError(t, err)
	assert.Equal(t,
		"repository,file,nulls\nacme/widget,/src/A.java,3\nacme/widget,/src/B.java,0\nzeta/tool,/Main.java,1\n",
		out)
}
