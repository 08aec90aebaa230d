package cmd

import (
	"bytes"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrintVersion(t *testing.T) {
	var buf bytes.Buffer
	printVersion(&buf)

	out := buf.String()
	assert.Contains(t, out, "corpusmetrics dev (none, built unknown, "+runtime.Version()+")")
	assert.Contains(t, out, "Keyword:     null")
	assert.Contains(t, out, "Extension:   .java")
	assert.Contains(t, out, "Metric:      nullReferences")
}
