// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/corpusmetrics/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the corpusmetrics MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, runs contract.RunStore) *server.MCPServer {
	s := server.NewMCPServer(
		"Corpusmetrics Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		runs:    runs,
	}

	// --- 1. Tool: collect_metrics ---
	s.AddTool(mcp.NewTool("collect_metrics",
		mcp.WithDescription("Count keyword occurrences in every source file of an owner/repo corpus and return the narrow metric table."),
		mcp.WithString("corpus_root", mcp.Description("Directory whose grandchildren are the repositories."), mcp.Required()),
		mcp.WithString("ext", mcp.Description("Comma-separated file extensions to analyze (e.g. '.java,.kt').")),
		mcp.WithString("keyword", mcp.Description("Keyword to count as a whole word.")),
		mcp.WithString("metric", mcp.Description("Name of the metric column.")),
		mcp.WithBoolean("strip_comments", mcp.Description("Ignore keywords inside comments.")),
		mcp.WithString("on_file_error", mcp.Description("What to do when a file cannot be read."), mcp.Enum("abort", "skip")),
	), h.handleCollectMetrics)

	// --- 2. Tool: merge_tables ---
	s.AddTool(mcp.NewTool("merge_tables",
		mcp.WithDescription("Join narrow metric tables onto a wide table by (repository, file) key."),
		mcp.WithString("wide", mcp.Description("Path to the wide table."), mcp.Required()),
		mcp.WithString("narrow", mcp.Description("Comma-separated paths to narrow tables, one supplement each.")),
		mcp.WithString("shard_root", mcp.Description("Directory to search for narrow table shards.")),
		mcp.WithString("fill", mcp.Description("Value used when a row has no matching entry. Defaults to '0'.")),
		mcp.WithString("key_layout", mcp.Description("How the wide table encodes its key."), mcp.Enum("columns", "path")),
		mcp.WithString("narrow_layout", mcp.Description("How the narrow tables encode their key. Defaults to columns."), mcp.Enum("columns", "path")),
		mcp.WithString("output_file", mcp.Description("Write the merged table here instead of returning it.")),
	), h.handleMergeTables)

	// --- 3. Tool: read_table ---
	s.AddTool(mcp.NewTool("read_table",
		mcp.WithDescription("Read a metric table and return its header and rows."),
		mcp.WithString("path", mcp.Description("Path to the table file (.lz4 files are decompressed)."), mcp.Required()),
		mcp.WithNumber("limit", mcp.Description("Limit the number of rows returned.")),
		mcp.WithBoolean("no_header", mcp.Description("Treat the first record as data.")),
	), h.handleReadTable)

	return s
}

// StartMCPServer starts the corpusmetrics MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, runs contract.RunStore) error {
	s := NewMCPServer(baseCfg, runs)
	return server.ServeStdio(s)
}
