package core

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/huangsam/corpusmetrics/core/crawl"
	"github.com/huangsam/corpusmetrics/core/merge"
	"github.com/huangsam/corpusmetrics/internal/admission"
	"github.com/huangsam/corpusmetrics/internal/contract"
	"github.com/huangsam/corpusmetrics/internal/outwriter"
	"github.com/huangsam/corpusmetrics/internal/tabular"
	"github.com/huangsam/corpusmetrics/internal/telemetry"
	"github.com/huangsam/corpusmetrics/schema"
)

// ExecutorFunc defines the function signature for the collect, merge and compress commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, runs contract.RunStore) error

// NewAnalyzer builds the keyword counter configured on the command line.
func NewAnalyzer(cfg *contract.Config) (Analyzer, error) {
	return NewKeywordCounter(cfg.Keyword, cfg.StripComments)
}

// CollectOptions translates the configured policies into pipeline options.
func CollectOptions(cfg *contract.Config) []PipelineOption {
	var opts []PipelineOption
	if cfg.OnFileError == schema.SkipOnFileError {
		opts = append(opts, WithFileErrorHandler(SkipFileErrors))
	}
	if !cfg.Quiet {
		opts = append(opts, WithReporter(contract.LogDiagnostic))
	}
	return opts
}

// summaryWriter keeps stdout clean when the table itself is printed there.
func summaryWriter(cfg *contract.Config) io.Writer {
	if cfg.OutputFile == "" {
		return os.Stderr
	}
	return os.Stdout
}

// RunCollect runs the metrics pipeline with run tracking and returns the output
// together with its narrow table.
func RunCollect(ctx context.Context, cfg *contract.Config, runs contract.RunStore, opts ...PipelineOption) (*schema.CollectOutput, schema.MetricTable, error) {
	analyzer, err := NewAnalyzer(cfg)
	if err != nil {
		return nil, schema.MetricTable{}, err
	}
	ctrl := admission.New(cfg.Concurrency)

	ctx = beginRun(ctx, cfg, runs)
	out, err := NewPipeline(cfg, analyzer, ctrl, opts...).Collect(ctx)
	if err != nil {
		return nil, schema.MetricTable{}, err
	}
	endRun(ctx, cfg, runs, out)
	return out, NarrowTable(out.Entries, cfg.MetricName), nil
}

// beginRun starts run tracking. Tracking failures are logged and never fail the run.
func beginRun(ctx context.Context, cfg *contract.Config, runs contract.RunStore) context.Context {
	if runs == nil {
		return ctx
	}
	configParams := map[string]any{
		"corpus_root":    cfg.CorpusRoot,
		"extensions":     cfg.Extensions,
		"excludes":       cfg.Excludes,
		"metric":         cfg.MetricName,
		"keyword":        cfg.Keyword,
		"strip_comments": cfg.StripComments,
		"concurrency":    cfg.Concurrency,
		"on_file_error":  string(cfg.OnFileError),
	}
	runID, err := runs.BeginRun(time.Now(), configParams)
	if err != nil {
		contract.LogWarn("Run tracking initialization failed", err)
		return ctx
	}
	if runID > 0 {
		ctx = withRunID(ctx, runID)
	}
	return ctx
}

// endRun stores the entries and counters of a tracked run.
func endRun(ctx context.Context, cfg *contract.Config, runs contract.RunStore, out *schema.CollectOutput) {
	runID := runIDFromContext(ctx)
	if runs == nil || runID == 0 {
		return
	}
	if err := runs.RecordEntries(runID, cfg.MetricName, out.Entries); err != nil {
		contract.LogWarn("Failed to record run entries", err)
	}
	if err := runs.EndRun(runID, time.Now(), len(out.Repositories), out.TotalFiles(), len(out.Diagnostics)); err != nil {
		contract.LogWarn("Failed to finalize run tracking", err)
	}
}

// ExecuteCollect runs the pipeline over the corpus and writes the narrow table.
// It serves as the main entry point for the 'collect' command.
func ExecuteCollect(ctx context.Context, cfg *contract.Config, runs contract.RunStore) error {
	if cfg.CorpusRoot == "" {
		return fmt.Errorf("corpus root is required")
	}
	out, table, err := RunCollect(ctx, cfg, runs, CollectOptions(cfg)...)
	if err != nil {
		return err
	}
	if err := outwriter.NewOutWriter().WriteNarrow(table, out.Entries, cfg); err != nil {
		return err
	}
	if !cfg.Quiet {
		w := summaryWriter(cfg)
		if err := outwriter.PrintCollectSummary(w, out, cfg); err != nil {
			return err
		}
		// Diagnostics were already reported one by one.
		if err := outwriter.PrintDiagnostics(w, out.Diagnostics, 0); err != nil {
			return err
		}
	}
	return telemetry.WriteTextfile(cfg.MetricsFile)
}

// RunMerge joins the configured supplements onto the wide table.
func RunMerge(ctx context.Context, cfg *contract.Config, report func(schema.Diagnostic)) (*merge.Result, schema.MergeSummary, error) {
	start := time.Now()
	if cfg.WidePath == "" {
		return nil, schema.MergeSummary{}, fmt.Errorf("--wide is required")
	}
	if len(cfg.NarrowPaths) == 0 && cfg.ShardRoot == "" {
		return nil, schema.MergeSummary{}, fmt.Errorf("at least one --narrow table or a --shard-root is required")
	}
	ctrl := admission.New(cfg.Concurrency)

	wide, err := admission.Do(ctrl, func() (schema.MetricTable, error) {
		return tabular.ReadTable(cfg.WidePath, cfg.HasHeader)
	})
	if err != nil {
		return nil, schema.MergeSummary{}, fmt.Errorf("failed to read wide table %s: %w", cfg.WidePath, err)
	}

	supplements, diags, err := loadSupplements(ctx, cfg, ctrl, report)
	if err != nil {
		return nil, schema.MergeSummary{}, err
	}

	res, err := merge.Join(wide, supplements, merge.Options{
		Layout:       cfg.KeyLayout,
		NarrowLayout: cfg.NarrowLayout,
		Duplicates:   cfg.Duplicates,
		Fill:         cfg.Fill,
		Report:       report,
	})
	if err != nil {
		return nil, schema.MergeSummary{}, err
	}
	res.Diagnostics = append(diags, res.Diagnostics...)

	summary := schema.MergeSummary{
		Rows:        len(res.Table.Rows),
		Columns:     res.Table.Arity(),
		Supplements: len(supplements),
		Matched:     res.Matched,
		Defaulted:   res.Defaulted,
		KeyErrors:   res.KeyErrors,
		Diagnostics: res.Diagnostics,
		Duration:    time.Since(start),
	}
	return res, summary, nil
}

// loadSupplements reads each --narrow table as its own supplement, then the
// shards under --shard-root as one more. Column names come from --name in that order.
func loadSupplements(ctx context.Context, cfg *contract.Config, ctrl *admission.Controller, report func(schema.Diagnostic)) ([]merge.Supplement, []schema.Diagnostic, error) {
	columnName := func(i int) string {
		if i < len(cfg.ColumnNames) {
			return cfg.ColumnNames[i]
		}
		return ""
	}

	var supplements []merge.Supplement
	for i, path := range cfg.NarrowPaths {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		tables, err := merge.LoadShards(ctrl, []string{path}, cfg.HasHeader)
		if err != nil {
			return nil, nil, err
		}
		supplements = append(supplements, merge.Supplement{
			Name:   merge.SupplementName(columnName(i), tables, cfg.NarrowLayout),
			Tables: tables,
		})
	}

	if cfg.ShardRoot == "" {
		return supplements, nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	opts := []crawl.Option{crawl.WithIgnore(cfg.Ignore)}
	if report != nil {
		opts = append(opts, crawl.WithReporter(report))
	}
	paths, diags := merge.DiscoverShards(ctrl, cfg.ShardRoot, cfg.ShardSuffix, opts...)
	if len(paths) == 0 {
		return nil, nil, fmt.Errorf("no shards ending in %s found under %s", cfg.ShardSuffix, cfg.ShardRoot)
	}
	contract.LogInfo("Loading %d shard(s) from %s", len(paths), cfg.ShardRoot)
	tables, err := merge.LoadShards(ctrl, paths, cfg.HasHeader)
	if err != nil {
		return nil, nil, err
	}
	supplements = append(supplements, merge.Supplement{
		Name:   merge.SupplementName(columnName(len(cfg.NarrowPaths)), tables, cfg.NarrowLayout),
		Tables: tables,
	})
	return supplements, diags, nil
}

// ExecuteMerge joins supplementary metric tables onto a wide table and writes the result.
// It serves as the main entry point for the 'merge' command.
func ExecuteMerge(ctx context.Context, cfg *contract.Config, _ contract.RunStore) error {
	var report func(schema.Diagnostic)
	if !cfg.Quiet {
		report = contract.LogDiagnostic
	}
	res, summary, err := RunMerge(ctx, cfg, report)
	if err != nil {
		return err
	}
	if err := outwriter.NewOutWriter().WriteTable(res.Table, cfg.KeyLayout.KeyColumns(), cfg); err != nil {
		return err
	}
	if !cfg.Quiet {
		w := summaryWriter(cfg)
		if err := outwriter.PrintMergeSummary(w, summary); err != nil {
			return err
		}
		if err := outwriter.PrintDiagnostics(w, res.Diagnostics, 0); err != nil {
			return err
		}
	}
	return telemetry.WriteTextfile(cfg.MetricsFile)
}

// ExecuteCompress drops the leading key columns of a table and writes what remains.
// It serves as the main entry point for the 'compress' command.
func ExecuteCompress(_ context.Context, cfg *contract.Config, _ contract.RunStore) error {
	if cfg.CompressFrom == "" {
		return fmt.Errorf("--input is required")
	}
	contract.LogInfo("Reading %s", cfg.CompressFrom)
	table, err := tabular.ReadTable(cfg.CompressFrom, cfg.HasHeader)
	if err != nil {
		return fmt.Errorf("failed to read table %s: %w", cfg.CompressFrom, err)
	}

	contract.LogInfo("Dropping %d key column(s) from %d rows", cfg.DropColumns, len(table.Rows))
	compressed := merge.DropKeyColumns(table, cfg.DropColumns)
	if err := outwriter.NewOutWriter().WriteTable(compressed, 0, cfg); err != nil {
		return err
	}
	return telemetry.WriteTextfile(cfg.MetricsFile)
}
