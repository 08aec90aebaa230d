// Package core has the metrics pipeline and the collect, merge and compress entry points.
package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/huangsam/corpusmetrics/core/crawl"
	"github.com/huangsam/corpusmetrics/internal/admission"
	"github.com/huangsam/corpusmetrics/internal/contract"
	"github.com/huangsam/corpusmetrics/internal/telemetry"
	"github.com/huangsam/corpusmetrics/schema"
	"golang.org/x/sync/errgroup"
)

// ErrNoRepositories is returned when the corpus root holds no owner/repo directories.
var ErrNoRepositories = errors.New("no repositories found")

// FileError is a failure to read or analyze a single file.
type FileError struct {
	Repository string
	Path       string
	Err        error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("failed to analyze %s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// FileErrorHandler decides what a file failure means for the run. Returning an
// error aborts the run with it; returning nil skips the file, which is then
// recorded as a file diagnostic.
type FileErrorHandler func(file schema.FileRecord, err error) error

// abortOnFileError is the default handler.
func abortOnFileError(_ schema.FileRecord, err error) error {
	return err
}

// SkipFileErrors is a FileErrorHandler that skips every failing file.
func SkipFileErrors(schema.FileRecord, error) error {
	return nil
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithFileErrorHandler replaces the default abort-on-first-failure behavior.
func WithFileErrorHandler(h FileErrorHandler) PipelineOption {
	return func(p *Pipeline) { p.onFileError = h }
}

// WithReporter receives each diagnostic as soon as it is found.
func WithReporter(report func(schema.Diagnostic)) PipelineOption {
	return func(p *Pipeline) { p.report = report }
}

// Pipeline computes one metric for every matching file of every repository in a corpus.
type Pipeline struct {
	cfg         *contract.Config
	analyzer    Analyzer
	ctrl        *admission.Controller
	onFileError FileErrorHandler
	report      func(schema.Diagnostic)
}

// NewPipeline creates a pipeline. All directory and file I/O goes through ctrl.
func NewPipeline(cfg *contract.Config, analyzer Analyzer, ctrl *admission.Controller, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		cfg:         cfg,
		analyzer:    analyzer,
		ctrl:        ctrl,
		onFileError: abortOnFileError,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// fileSlot holds the outcome for one file. Each task owns exactly one slot.
type fileSlot struct {
	value float64
	ok    bool
	diag  *schema.Diagnostic
}

// Collect runs the pipeline. Repositories are processed one at a time and the
// returned entries are sorted by (repository, file).
func (p *Pipeline) Collect(ctx context.Context) (*schema.CollectOutput, error) {
	start := time.Now()
	root := p.cfg.CorpusRoot

	repos, diags, err := ListRepositories(p.ctrl, root)
	if err != nil {
		return nil, err
	}
	out := &schema.CollectOutput{}
	for _, d := range diags {
		p.diagnose(out, d, false)
	}
	if len(repos) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoRepositories, root)
	}

	crawler := crawl.New(p.ctrl, crawl.WithIgnore(p.cfg.Ignore), crawl.WithReporter(p.report))
	match := crawl.SuffixMatcher(p.cfg.Extensions...)

	for i, repo := range repos {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		repoStart := time.Now()

		paths, crawlDiags := crawler.Crawl(repo.Root, match)
		out.Diagnostics = append(out.Diagnostics, crawlDiags...)

		entries, err := p.collectRepository(ctx, out, repo, paths)
		if err != nil {
			return nil, err
		}
		out.Entries = append(out.Entries, entries...)
		out.Repositories = append(out.Repositories, schema.RepositoryResult{
			Repository: repo.ID,
			Files:      len(entries),
			Duration:   time.Since(repoStart),
		})

		if !shouldSuppressProgress(ctx) {
			contract.LogInfo("[%d/%d] %s (%d files)", i+1, len(repos), repo.ID, len(entries))
		}
	}

	schema.SortEntries(out.Entries)
	out.Duration = time.Since(start)
	return out, nil
}

// collectRepository analyzes the files of one repository concurrently and returns
// one entry per relative path, sorted by file.
func (p *Pipeline) collectRepository(ctx context.Context, out *schema.CollectOutput, repo schema.Repository, paths []string) ([]schema.MetricEntry, error) {
	files := make([]schema.FileRecord, len(paths))
	for i, path := range paths {
		rel, err := filepath.Rel(repo.Root, path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s against %s: %w", path, repo.Root, err)
		}
		files[i] = schema.FileRecord{AbsPath: path, RelPath: "/" + filepath.ToSlash(rel)}
	}

	slots := make([]fileSlot, len(files))
	g, gctx := errgroup.WithContext(ctx)
	// No more tasks than slots; the rest wait in g.Go.
	g.SetLimit(p.ctrl.Limit())
	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			value, err := admission.Do(p.ctrl, func() (float64, error) {
				// An aborted run may still have tasks queued for a slot.
				if err := gctx.Err(); err != nil {
					return 0, err
				}
				content, err := os.ReadFile(file.AbsPath)
				if err != nil {
					return 0, err
				}
				return p.analyzer.Analyze(string(content))
			})
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				ferr := &FileError{Repository: repo.ID, Path: file.AbsPath, Err: err}
				if herr := p.onFileError(file, ferr); herr != nil {
					return herr
				}
				d := schema.NewDiagnostic(schema.FileDiagnostic, file.AbsPath, err)
				slots[i].diag = &d
				return nil
			}
			telemetry.FilesAnalyzed.Inc()
			slots[i] = fileSlot{value: value, ok: true}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	entries := make([]schema.MetricEntry, 0, len(files))
	for i, slot := range slots {
		if slot.diag != nil {
			p.diagnose(out, *slot.diag, true)
		}
		if slot.ok {
			entries = append(entries, schema.MetricEntry{Repository: repo.ID, File: files[i].RelPath, Value: slot.value})
		}
	}
	return p.dedupe(out, entries), nil
}

// dedupe keeps the first entry per relative path.
func (p *Pipeline) dedupe(out *schema.CollectOutput, entries []schema.MetricEntry) []schema.MetricEntry {
	schema.SortEntries(entries)
	result := entries[:0]
	for _, e := range entries {
		if n := len(result); n > 0 && result[n-1].File == e.File {
			p.diagnose(out, schema.Diagnostic{
				Kind:    schema.DuplicateDiagnostic,
				Path:    e.Repository + e.File,
				Message: "file produced more than one value, keeping the first",
			}, true)
			continue
		}
		result = append(result, e)
	}
	return result
}

// diagnose records a pipeline diagnostic. Crawl diagnostics are counted and
// reported by the crawler itself.
func (p *Pipeline) diagnose(out *schema.CollectOutput, d schema.Diagnostic, count bool) {
	if count {
		telemetry.Diagnostics.WithLabelValues(string(d.Kind)).Inc()
	}
	out.Diagnostics = append(out.Diagnostics, d)
	if p.report != nil {
		p.report(d)
	}
}

// NarrowTable renders entries as a narrow table with header repository,file,<metricName>.
func NarrowTable(entries []schema.MetricEntry, metricName string) schema.MetricTable {
	table := schema.MetricTable{
		Header: []string{schema.RepositoryColumn, schema.FileColumn, metricName},
		Rows:   make([][]string, len(entries)),
	}
	for i, e := range entries {
		table.Rows[i] = []string{e.Repository, e.File, schema.FormatValue(e.Value)}
	}
	return table
}
