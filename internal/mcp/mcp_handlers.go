package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/huangsam/corpusmetrics/core"
	"github.com/huangsam/corpusmetrics/internal/contract"
	"github.com/huangsam/corpusmetrics/internal/outwriter"
	"github.com/huangsam/corpusmetrics/internal/tabular"
	"github.com/huangsam/corpusmetrics/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	runs    contract.RunStore
}

// collectResponse is the JSON body returned by collect_metrics.
type collectResponse struct {
	Metric     string `json:"metric"`
	TotalFiles int    `json:"totalFiles"`
	*schema.CollectOutput
}

// tableResponse is the JSON body returned by merge_tables and read_table.
type tableResponse struct {
	Summary    *schema.MergeSummary `json:"summary,omitempty"`
	OutputFile string               `json:"outputFile,omitempty"`
	TotalRows  int                  `json:"totalRows"`
	Header     []string             `json:"header,omitempty"`
	Rows       [][]string           `json:"rows,omitempty"`
}

// splitList splits a comma-separated tool argument, dropping empty items.
func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func jsonResult(v any) *mcp.CallToolResult {
	jsonData, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(jsonData))
}

func (h *toolHandler) handleCollectMetrics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	root := request.GetString("corpus_root", "")
	if root == "" {
		return mcp.NewToolResultError("corpus_root is required"), nil
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid corpus_root: %v", err)), nil
	}
	cfg.CorpusRoot = abs

	if exts := splitList(request.GetString("ext", "")); len(exts) > 0 {
		cfg.Extensions = cfg.Extensions[:0]
		for _, ext := range exts {
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			cfg.Extensions = append(cfg.Extensions, ext)
		}
	}
	if k := request.GetString("keyword", ""); k != "" {
		cfg.Keyword = k
	}
	if m := request.GetString("metric", ""); m != "" {
		if strings.ContainsAny(m, ",\n") {
			return mcp.NewToolResultError(fmt.Sprintf("metric name %q must not contain commas or newlines", m)), nil
		}
		cfg.MetricName = m
	}
	cfg.StripComments = request.GetBool("strip_comments", cfg.StripComments)
	if p := request.GetString("on_file_error", ""); p != "" {
		policy := schema.FileErrorPolicy(strings.ToLower(p))
		if _, ok := schema.ValidFileErrorPolicies[policy]; !ok {
			return mcp.NewToolResultError(fmt.Sprintf("invalid on_file_error policy '%s'. must be abort, skip", p)), nil
		}
		cfg.OnFileError = policy
	}

	var opts []core.PipelineOption
	if cfg.OnFileError == schema.SkipOnFileError {
		opts = append(opts, core.WithFileErrorHandler(core.SkipFileErrors))
	}
	out, _, err := core.RunCollect(core.WithSuppressProgress(ctx), cfg, h.runs, opts...)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("collect failed: %v", err)), nil
	}

	return jsonResult(collectResponse{
		Metric:        cfg.MetricName,
		TotalFiles:    out.TotalFiles(),
		CollectOutput: out,
	}), nil
}

func (h *toolHandler) handleMergeTables(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	cfg.Quiet = true
	cfg.WidePath = request.GetString("wide", "")
	cfg.NarrowPaths = splitList(request.GetString("narrow", ""))
	cfg.ShardRoot = request.GetString("shard_root", "")
	if f := request.GetString("fill", ""); f != "" {
		cfg.Fill = f
	}
	if l := request.GetString("key_layout", ""); l != "" {
		layout := schema.KeyLayout(strings.ToLower(l))
		if _, ok := schema.ValidKeyLayouts[layout]; !ok {
			return mcp.NewToolResultError(fmt.Sprintf("invalid key layout '%s'. must be columns, path", l)), nil
		}
		cfg.KeyLayout = layout
	}
	if l := request.GetString("narrow_layout", ""); l != "" {
		layout := schema.KeyLayout(strings.ToLower(l))
		if _, ok := schema.ValidKeyLayouts[layout]; !ok {
			return mcp.NewToolResultError(fmt.Sprintf("invalid narrow layout '%s'. must be columns, path", l)), nil
		}
		cfg.NarrowLayout = layout
	}

	res, summary, err := core.RunMerge(ctx, cfg, nil)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("merge failed: %v", err)), nil
	}

	resp := tableResponse{Summary: &summary, TotalRows: len(res.Table.Rows)}
	if out := request.GetString("output_file", ""); out != "" {
		cfg.OutputFile = out
		if err := outwriter.NewOutWriter().WriteTable(res.Table, cfg.KeyLayout.KeyColumns(), cfg); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to write %s: %v", out, err)), nil
		}
		resp.OutputFile = out
		return jsonResult(resp), nil
	}

	resp.Header = res.Table.Header
	resp.Rows = res.Table.Rows
	return jsonResult(resp), nil
}

func (h *toolHandler) handleReadTable(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := request.GetString("path", "")
	if path == "" {
		return mcp.NewToolResultError("path is required"), nil
	}
	table, err := tabular.ReadTable(path, !request.GetBool("no_header", false))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read table: %v", err)), nil
	}

	resp := tableResponse{TotalRows: len(table.Rows), Header: table.Header, Rows: table.Rows}
	if l := request.GetInt("limit", 0); l > 0 && l < len(resp.Rows) {
		resp.Rows = resp.Rows[:l]
	}
	return jsonResult(resp), nil
}
