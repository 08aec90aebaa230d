package core

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/huangsam/corpusmetrics/internal/admission"
	"github.com/huangsam/corpusmetrics/internal/contract"
	"github.com/huangsam/corpusmetrics/internal/tabular"
	"github.com/huangsam/corpusmetrics/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(root string) *contract.Config {
	return &contract.Config{
		CorpusRoot:  root,
		Extensions:  []string{".src"},
		Concurrency: 4,
		MetricName:  "metric",
		Keyword:     "null",
	}
}

func nullCounter(t *testing.T) Analyzer {
	t.Helper()
	counter, err := NewKeywordCounter("null", false)
	require.NoError(t, err)
	return counter
}

func collect(t *testing.T, cfg *contract.Config, analyzer Analyzer, opts ...PipelineOption) (*schema.CollectOutput, error) {
	t.Helper()
	ctx := WithSuppressProgress(context.Background())
	return NewPipeline(cfg, analyzer, admission.New(cfg.Concurrency), opts...).Collect(ctx)
}

func TestCollectEndToEnd(t *testing.T) {
	root := t.TempDir()
	writeCorpus(t, root, map[string]string{
		"acme/widget/src/A.src":     "if (a == null || b == null) return null;",
		"acme/widget/src/sub/B.src": "return nothing;",
		"acme/widget/src/notes.txt": "null null",
	})

	out, err := collect(t, testConfig(root), nullCounter(t))
	require.NoError(t, err)

	table := NarrowTable(out.Entries, "metric")
	assert.Equal(t,
		"repository,file,metric\nacme/widget,/src/A.src,3\nacme/widget,/src/sub/B.src,0",
		tabular.Encode(table.Records()))
	assert.Empty(t, out.Diagnostics)
	require.Len(t, out.Repositories, 1)
	assert.Equal(t, 2, out.Repositories[0].Files)
	assert.Equal(t, 2, out.TotalFiles())
}

func TestCollectIsDeterministic(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{}
	for _, repo := range []string{"acme/widget", "acme/gadget", "zeta/tool"} {
		for _, f := range []string{"a.src", "b/c.src", "b/d/e.src", "z.src", "m,n.src"} {
			files[repo+"/"+f] = strings.Repeat("null ", len(f))
		}
	}
	writeCorpus(t, root, files)

	var encoded []string
	for _, limit := range []int{1, 3, 64} {
		cfg := testConfig(root)
		cfg.Concurrency = limit
		out, err := collect(t, cfg, nullCounter(t))
		require.NoError(t, err)
		encoded = append(encoded, tabular.Encode(NarrowTable(out.Entries, "metric").Records()))
	}
	assert.Equal(t, encoded[0], encoded[1])
	assert.Equal(t, encoded[0], encoded[2])
	assert.Contains(t, encoded[0], `acme/gadget,/m\,n.src,7`)
	assert.True(t, strings.HasPrefix(encoded[0], "repository,file,metric\nacme/gadget,/a.src,5\n"))
}

func failingAnalyzer() Analyzer {
	return AnalyzerFunc(func(content string) (float64, error) {
		if content == "bad" {
			return 0, errors.New("cannot parse")
		}
		return 1, nil
	})
}

func TestCollectAbortsOnFileError(t *testing.T) {
	root := t.TempDir()
	writeCorpus(t, root, map[string]string{
		"acme/widget/ok.src":  "fine",
		"acme/widget/bad.src": "bad",
	})

	out, err := collect(t, testConfig(root), failingAnalyzer())
	require.Error(t, err)
	assert.Nil(t, out)

	var ferr *FileError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, filepath.Join(root, "acme", "widget", "bad.src"), ferr.Path)
	assert.Equal(t, "acme/widget", ferr.Repository)
	assert.Contains(t, err.Error(), "bad.src")
}

func TestCollectSkipFileErrors(t *testing.T) {
	root := t.TempDir()
	writeCorpus(t, root, map[string]string{
		"acme/widget/ok.src":  "fine",
		"acme/widget/bad.src": "bad",
	})

	var mu sync.Mutex
	var reported []schema.Diagnostic
	reporter := func(d schema.Diagnostic) {
		mu.Lock()
		defer mu.Unlock()
		reported = append(reported, d)
	}

	out, err := collect(t, testConfig(root), failingAnalyzer(), WithFileErrorHandler(SkipFileErrors), WithReporter(reporter))
	require.NoError(t, err)
	require.Len(t, out.Entries, 1)
	assert.Equal(t, "/ok.src", out.Entries[0].File)

	require.Len(t, out.Diagnostics, 1)
	assert.Equal(t, schema.FileDiagnostic, out.Diagnostics[0].Kind)
	assert.Equal(t, filepath.Join(root, "acme", "widget", "bad.src"), out.Diagnostics[0].Path)
	assert.Equal(t, out.Diagnostics, reported)
	assert.Equal(t, 1, out.Repositories[0].Files)
}

func TestCollectCustomHandlerCanAbort(t *testing.T) {
	root := t.TempDir()
	writeCorpus(t, root, map[string]string{"acme/widget/bad.src": "bad"})
	sentinel := errors.New("stop here")

	_, err := collect(t, testConfig(root), failingAnalyzer(), WithFileErrorHandler(func(file schema.FileRecord, _ error) error {
		assert.Equal(t, "/bad.src", file.RelPath)
		return sentinel
	}))
	assert.ErrorIs(t, err, sentinel)
}

func TestCollectNoRepositories(t *testing.T) {
	_, err := collect(t, testConfig(t.TempDir()), nullCounter(t))
	assert.ErrorIs(t, err, ErrNoRepositories)
}

func TestCollectExcludes(t *testing.T) {
	root := t.TempDir()
	writeCorpus(t, root, map[string]string{
		"acme/widget/src/A.src":       "null",
		"acme/widget/generated/G.src": "null",
		"acme/widget/src/A_test.src":  "null",
	})
	cfg := testConfig(root)
	cfg.Ignore = contract.BuildIgnore([]string{"generated/", "*_test.src"})

	out, err := collect(t, cfg, nullCounter(t))
	require.NoError(t, err)
	require.Len(t, out.Entries, 1)
	assert.Equal(t, "/src/A.src", out.Entries[0].File)
}

func TestCollectCancelled(t *testing.T) {
	root := t.TempDir()
	writeCorpus(t, root, map[string]string{"acme/widget/A.src": "null"})
	ctx, cancel := context.WithCancel(WithSuppressProgress(context.Background()))
	cancel()

	cfg := testConfig(root)
	_, err := NewPipeline(cfg, nullCounter(t), admission.New(1)).Collect(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCollectEmptyRepository(t *testing.T) {
	root := t.TempDir()
	writeCorpus(t, root, map[string]string{
		"acme/empty/readme.md": "",
		"acme/widget/A.src":    "null",
	})

	out, err := collect(t, testConfig(root), nullCounter(t))
	require.NoError(t, err)
	require.Len(t, out.Repositories, 2)
	assert.Equal(t, "acme/empty", out.Repositories[0].Repository)
	assert.Equal(t, 0, out.Repositories[0].Files)
	assert.Len(t, out.Entries, 1)
}

func TestCollectGoroutinesBoundedByLimit(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{}
	for i := range 300 {
		files[fmt.Sprintf("acme/widget/f%d.src", i)] = "null"
	}
	writeCorpus(t, root, files)
	cfg := testConfig(root)
	cfg.Concurrency = 2

	baseline := runtime.NumGoroutine()
	var mu sync.Mutex
	peak := 0
	analyzer := AnalyzerFunc(func(content string) (float64, error) {
		mu.Lock()
		peak = max(peak, runtime.NumGoroutine())
		mu.Unlock()
		return float64(strings.Count(content, "null")), nil
	})

	out, err := collect(t, cfg, analyzer)
	require.NoError(t, err)
	assert.Len(t, out.Entries, 300)
	assert.LessOrEqual(t, peak, baseline+cfg.Concurrency+2, "file tasks should not grow with the repository")
}

func TestDedupeKeepsFirst(t *testing.T) {
	p := NewPipeline(testConfig(""), nullCounter(t), admission.New(1))
	out := &schema.CollectOutput{}
	entries := p.dedupe(out, []schema.MetricEntry{
		{Repository: "a/b", File: "/y", Value: 2},
		{Repository: "a/b", File: "/x", Value: 1},
		{Repository: "a/b", File: "/x", Value: 9},
	})
	assert.Equal(t, []schema.MetricEntry{
		{Repository: "a/b", File: "/x", Value: 1},
		{Repository: "a/b", File: "/y", Value: 2},
	}, entries)
	require.Len(t, out.Diagnostics, 1)
	assert.Equal(t, schema.DuplicateDiagnostic, out.Diagnostics[0].Kind)
	assert.Equal(t, "a/b/x", out.Diagnostics[0].Path)
}

func TestNarrowTable(t *testing.T) {
	table := NarrowTable([]schema.MetricEntry{
		{Repository: "acme/widget", File: "/A.src", Value: 0.5},
		{Repository: "acme/widget", File: "/B.src", Value: 12},
	}, "ratio")
	assert.Equal(t, []string{"repository", "file", "ratio"}, table.Header)
	assert.Equal(t, [][]string{{"acme/widget", "/A.src", "0.5"}, {"acme/widget", "/B.src", "12"}}, table.Rows)

	empty := NarrowTable(nil, "m")
	assert.Equal(t, [][]string{{"repository", "file", "m"}}, empty.Records())
}
