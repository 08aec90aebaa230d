package outwriter

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/corpusmetrics/internal/contract"
	"github.com/huangsam/corpusmetrics/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietStatus(t *testing.T) {
	t.Helper()
	prev := statusOutput
	statusOutput = io.Discard
	t.Cleanup(func() { statusOutput = prev })
}

func sampleNarrow() (schema.MetricTable, []schema.MetricEntry) {
	entries := []schema.MetricEntry{
		{Repository: "acme/widget", File: "/src/A.src", Value: 3},
		{Repository: "acme/widget", File: "/src/sub/B.src", Value: 0},
	}
	table := schema.MetricTable{
		Header: []string{"repository", "file", "metric"},
		Rows: [][]string{
			{"acme/widget", "/src/A.src", "3"},
			{"acme/widget", "/src/sub/B.src", "0"},
		},
	}
	return table, entries
}

func TestWriteNarrowCSV(t *testing.T) {
	quietStatus(t)
	table, entries := sampleNarrow()
	path := filepath.Join(t.TempDir(), "out", "narrow.csv")
	cfg := &contract.Config{Output: schema.CSVOut, OutputFile: path, MetricName: "metric"}

	require.NoError(t, NewOutWriter().WriteNarrow(table, entries, cfg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "repository,file,metric\nacme/widget,/src/A.src,3\nacme/widget,/src/sub/B.src,0", string(data))
}

func TestWriteNarrowJSON(t *testing.T) {
	quietStatus(t)
	table, entries := sampleNarrow()
	path := filepath.Join(t.TempDir(), "narrow.json")
	cfg := &contract.Config{Output: schema.JSONOut, OutputFile: path, MetricName: "nullReferences"}

	require.NoError(t, NewOutWriter().WriteNarrow(table, entries, cfg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var rows []jsonEntry
	require.NoError(t, json.Unmarshal(data, &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, jsonEntry{Repository: "acme/widget", File: "/src/A.src", Metric: "nullReferences", Value: 3}, rows[0])
}

func TestWriteNarrowParquet(t *testing.T) {
	quietStatus(t)
	table, entries := sampleNarrow()
	path := filepath.Join(t.TempDir(), "narrow.parquet")
	cfg := &contract.Config{Output: schema.ParquetOut, OutputFile: path, MetricName: "metric"}

	require.NoError(t, NewOutWriter().WriteNarrow(table, entries, cfg))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestWriteTable(t *testing.T) {
	quietStatus(t)
	wide := schema.MetricTable{
		Header: []string{"repository", "file", "loc", "nullReferences"},
		Rows:   [][]string{{"acme/widget", "/A.src", "10", "3"}},
	}
	dir := t.TempDir()

	t.Run("csv compressed", func(t *testing.T) {
		path := filepath.Join(dir, "wide.csv.lz4")
		require.NoError(t, NewOutWriter().WriteTable(wide, 2, &contract.Config{Output: schema.CSVOut, OutputFile: path}))
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	})

	t.Run("json", func(t *testing.T) {
		path := filepath.Join(dir, "wide.json")
		require.NoError(t, NewOutWriter().WriteTable(wide, 2, &contract.Config{Output: schema.JSONOut, OutputFile: path}))
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		var got jsonTable
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, wide.Header, got.Header)
		assert.Equal(t, wide.Rows, got.Rows)
	})

	t.Run("parquet", func(t *testing.T) {
		path := filepath.Join(dir, "wide.parquet")
		require.NoError(t, NewOutWriter().WriteTable(wide, 2, &contract.Config{Output: schema.ParquetOut, OutputFile: path}))
		assert.FileExists(t, path)
	})
}

func TestGetMaxTablePathWidth(t *testing.T) {
	width := GetMaxTablePathWidth()
	assert.GreaterOrEqual(t, width, 15)
	assert.LessOrEqual(t, width, 70)
}
