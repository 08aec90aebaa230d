package tabular

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/corpusmetrics/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable() schema.MetricTable {
	return schema.MetricTable{
		Header: []string{"repository", "file", "metric"},
		Rows: [][]string{
			{"acme/widget", "/src/A.src", "3"},
			{"acme/widget", "/src/a,b.src", "0"},
		},
	}
}

func TestWriteAndReadTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "metrics.csv")

	require.NoError(t, WriteTable(path, sampleTable()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "repository,file,metric\nacme/widget,/src/A.src,3\nacme/widget,/src/a\\,b.src,0", string(raw))

	table, err := ReadTable(path, true)
	require.NoError(t, err)
	assert.Equal(t, sampleTable(), table)
}

func TestWriteFileLeavesNoTemporaryFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")

	require.NoError(t, WriteFile(path, [][]string{{"a"}}))
	require.NoError(t, WriteFile(path, [][]string{{"b"}}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "out.csv", entries[0].Name())

	records, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"b"}}, records)
}

func TestCompressedTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.csv.lz4")

	require.NoError(t, WriteTable(path, sampleTable()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(raw), 4)
	assert.Equal(t, []byte{0x04, 0x22, 0x4d, 0x18}, raw[:4], "file should start with the lz4 frame magic")
	assert.NotEqual(t, Encode(sampleTable().Records()), string(raw))

	table, err := ReadTable(path, true)
	require.NoError(t, err)
	assert.Equal(t, sampleTable(), table)
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "absent.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWriterCountsRecords(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteRecord([]string{"x", "y"}))
	require.NoError(t, w.WriteRecord([]string{"1,2"}))
	require.NoError(t, w.Flush())

	assert.Equal(t, 2, w.Written())
	assert.Equal(t, "x,y\n1\\,2", buf.String())
}

func TestWriteTo(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTo(&buf, sampleTable().Records()))
	assert.Equal(t, sampleTable().Records(), Decode(buf.String()))
}
