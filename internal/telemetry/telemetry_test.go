package telemetry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(Diagnostics.WithLabelValues("file"))
	Diagnostics.WithLabelValues("file").Inc()
	assert.InDelta(t, before+1, testutil.ToFloat64(Diagnostics.WithLabelValues("file")), 1e-9)

	running := testutil.ToFloat64(AdmissionRunning)
	AdmissionRunning.Inc()
	AdmissionRunning.Inc()
	assert.InDelta(t, running+2, testutil.ToFloat64(AdmissionRunning), 1e-9)
	AdmissionRunning.Dec()
	AdmissionRunning.Dec()
	assert.InDelta(t, running, testutil.ToFloat64(AdmissionRunning), 1e-9)
}

func TestWriteTextfile(t *testing.T) {
	FilesAnalyzed.Inc()
	JoinedRows.WithLabelValues("matched").Inc()

	path := filepath.Join(t.TempDir(), "corpusmetrics.prom")
	require.NoError(t, WriteTextfile(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(content)
	assert.Contains(t, text, "# TYPE corpusmetrics_files_analyzed_total counter")
	assert.Contains(t, text, `corpusmetrics_joined_rows_total{outcome="matched"}`)
	assert.Contains(t, text, "corpusmetrics_admission_waiting")
}

func TestWriteTextfileDisabled(t *testing.T) {
	assert.NoError(t, WriteTextfile(""))
}

func TestWriteTextfileBadPath(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	err := WriteTextfile(filepath.Join(blocker, "metrics.prom"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write metrics")
}
