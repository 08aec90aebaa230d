package outwriter

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/huangsam/corpusmetrics/internal/contract"
	"github.com/huangsam/corpusmetrics/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintCollectSummary(t *testing.T) {
	contract.SetColors(false)
	out := &schema.CollectOutput{
		Entries: make([]schema.MetricEntry, 1200),
		Repositories: []schema.RepositoryResult{
			{Repository: "acme/widget", Files: 1000, Duration: 1500 * time.Millisecond},
			{Repository: "zeta/gadget", Files: 200, Duration: time.Second},
		},
		Diagnostics: []schema.Diagnostic{{Kind: schema.SubtreeDiagnostic, Path: "/x", Message: "denied"}},
		Duration:    3 * time.Second,
	}
	cfg := &contract.Config{MetricName: "nullReferences", Concurrency: 8}

	var buf bytes.Buffer
	require.NoError(t, PrintCollectSummary(&buf, out, cfg))
	text := buf.String()
	assert.Contains(t, text, "acme/widget")
	assert.Contains(t, text, "1,000")
	assert.Contains(t, text, "Collected 1,200 nullReferences values from 1,200 files in 2 repositories")
	assert.Contains(t, text, "concurrency 8 (1 diagnostics)")
}

func TestPrintCollectSummaryEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintCollectSummary(&buf, &schema.CollectOutput{}, &contract.Config{MetricName: "m"}))
	assert.Contains(t, buf.String(), "Collected 0 m values")
}

func TestPrintMergeSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintMergeSummary(&buf, schema.MergeSummary{Rows: 3, Columns: 4, Supplements: 1, Matched: 2, Defaulted: 1}))
	assert.Contains(t, buf.String(), "Merged 1 supplement(s) into 3 rows x 4 columns")
	assert.Contains(t, buf.String(), "Matched: 2, defaulted: 1, key errors: 0")
}

func TestPrintDiagnostics(t *testing.T) {
	contract.SetColors(false)
	var diags []schema.Diagnostic
	for i := range 5 {
		diags = append(diags, schema.Diagnostic{Kind: schema.MissingDiagnostic, Path: fmt.Sprintf("acme/widget/F%d", i), Message: "no value"})
	}
	diags = append(diags, schema.Diagnostic{Kind: schema.KeyDiagnostic, Path: "widget/A.src", Message: "row 7: bad key"})

	var buf bytes.Buffer
	require.NoError(t, PrintDiagnostics(&buf, diags, 2))
	text := buf.String()
	assert.Contains(t, text, "[missing] acme/widget/F0: no value")
	assert.NotContains(t, text, "F2")
	assert.Contains(t, text, "... and 4 more")
	assert.Contains(t, text, "[key] 1")
	assert.Contains(t, text, "[missing] 5")

	buf.Reset()
	require.NoError(t, PrintDiagnostics(&buf, diags, 0))
	assert.NotContains(t, buf.String(), "no value")
	assert.NotContains(t, buf.String(), "more")
	assert.Contains(t, buf.String(), "[missing] 5")

	buf.Reset()
	require.NoError(t, PrintDiagnostics(&buf, nil, 2))
	assert.Empty(t, buf.String())
}

func TestPrintRunStatus(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintRunStatus(&buf, schema.StoreStatus{Backend: "none"}))
	assert.Equal(t, "Store Backend: none\nConnected: false\n", buf.String())

	buf.Reset()
	status := schema.StoreStatus{
		Backend:     "sqlite",
		Connected:   true,
		TotalRuns:   2,
		LastRunID:   2,
		LastRunTime: time.Now().Add(-time.Hour),
		OldestRun:   time.Now().Add(-2 * time.Hour),
		TableSizes:  map[string]int64{"corpusmetrics_runs": 2, "corpusmetrics_entries": 12345},
	}
	require.NoError(t, PrintRunStatus(&buf, status))
	text := buf.String()
	assert.Contains(t, text, "Total Runs: 2")
	assert.Contains(t, text, "1 hour ago")
	assert.Contains(t, text, "12,345")
	assert.Contains(t, text, "corpusmetrics_runs")
}
