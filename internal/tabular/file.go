package tabular

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/huangsam/corpusmetrics/schema"
	"github.com/pierrec/lz4/v4"
)

// compressedSuffix marks table files stored as LZ4 frames.
const compressedSuffix = ".lz4"

// Writer streams records to an underlying writer.
type Writer struct {
	w       *bufio.Writer
	written int
}

// NewWriter wraps w in a buffered record writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// WriteRecord writes one encoded record. Records are separated by newlines.
func (tw *Writer) WriteRecord(fields []string) error {
	if tw.written > 0 {
		if _, err := tw.w.WriteString(newline); err != nil {
			return err
		}
	}
	if _, err := tw.w.WriteString(EncodeRecord(fields)); err != nil {
		return err
	}
	tw.written++
	return nil
}

// Written returns the number of records written so far.
func (tw *Writer) Written() int {
	return tw.written
}

// Flush writes any buffered data.
func (tw *Writer) Flush() error {
	return tw.w.Flush()
}

// ReadFile reads and decodes every record of a table file.
func ReadFile(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	var r io.Reader = file
	if isCompressed(path) {
		r = lz4.NewReader(file)
	}

	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Decode(string(content)), nil
}

// ReadTable reads a table file, optionally treating the first record as the header.
func ReadTable(path string, hasHeader bool) (schema.MetricTable, error) {
	records, err := ReadFile(path)
	if err != nil {
		return schema.MetricTable{}, err
	}
	return schema.NewMetricTable(records, hasHeader), nil
}

// WriteFile encodes records into path. The data lands in a temporary sibling first
// and is renamed into place, so readers never observe a half-written table.
func WriteFile(path string, records [][]string) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file for %s: %w", path, err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = writeRecords(tmp, records, isCompressed(path)); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move table into %s: %w", path, err)
	}
	return nil
}

// WriteTable writes the header (if any) and rows of table to path.
func WriteTable(path string, table schema.MetricTable) error {
	return WriteFile(path, table.Records())
}

// WriteTo encodes records to w without compression.
func WriteTo(w io.Writer, records [][]string) error {
	return writeRecords(w, records, false)
}

func writeRecords(w io.Writer, records [][]string, compress bool) error {
	var zw *lz4.Writer
	if compress {
		zw = lz4.NewWriter(w)
		w = zw
	}

	tw := NewWriter(w)
	for _, r := range records {
		if err := tw.WriteRecord(r); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if zw != nil {
		return zw.Close()
	}
	return nil
}

func isCompressed(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), compressedSuffix)
}
