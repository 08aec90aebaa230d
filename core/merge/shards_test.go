package merge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/corpusmetrics/internal/admission"
	"github.com/huangsam/corpusmetrics/internal/tabular"
	"github.com/huangsam/corpusmetrics/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoverAndLoadShards(t *testing.T) {
	root := t.TempDir()
	shardA := filepath.Join(root, "acme", "all.csv")
	shardB := filepath.Join(root, "zeta", "nested", "all.csv")
	require.NoError(t, tabular.WriteTable(shardA, narrowTable([]string{"acme/widget", "/A.src", "1"})))
	require.NoError(t, tabular.WriteTable(shardB, narrowTable([]string{"acme/widget", "/A.src", "2"})))
	require.NoError(t, os.WriteFile(filepath.Join(root, "acme", "notes.txt"), []byte("ignored"), 0o644))

	ctrl := admission.New(2)
	paths, diags := DiscoverShards(ctrl, root, schema.DefaultShardName)
	assert.Empty(t, diags)
	assert.Equal(t, []string{shardA, shardB}, paths)

	// Reversed input must not change the load order.
	tables, err := LoadShards(ctrl, []string{shardB, shardA}, true)
	require.NoError(t, err)
	require.Len(t, tables, 2)
	assert.Equal(t, "1", tables[0].Rows[0][2])
	assert.Equal(t, "2", tables[1].Rows[0][2])

	ix, err := BuildIndex(tables, IndexOptions{Layout: schema.ColumnsLayout})
	require.NoError(t, err)
	v, ok := ix.Lookup(Key{"acme/widget", "/A.src"})
	require.True(t, ok)
	assert.Equal(t, "2", v, "last shard in path order wins")
}

func TestLoadShardsMissingFile(t *testing.T) {
	_, err := LoadShards(admission.New(1), []string{filepath.Join(t.TempDir(), "absent.csv")}, true)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSupplementName(t *testing.T) {
	tables := []schema.MetricTable{narrowTable()}
	assert.Equal(t, "explicit", SupplementName("explicit", tables, schema.ColumnsLayout))
	assert.Equal(t, "nullReferences", SupplementName("", tables, schema.ColumnsLayout))
	assert.Equal(t, "file", SupplementName("", tables, schema.PathLayout), "a path layout reads the column after the single key column")
	assert.Equal(t, schema.DefaultMetricName, SupplementName("", nil, schema.ColumnsLayout))
}
