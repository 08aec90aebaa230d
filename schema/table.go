package schema

import (
	"fmt"
	"slices"
)

// MetricTable is an ordered sequence of records with an optional header row.
// All rows share the same arity.
type MetricTable struct {
	Header []string
	Rows   [][]string
}

// NewMetricTable splits decoded records into a header and rows.
func NewMetricTable(records [][]string, hasHeader bool) MetricTable {
	if hasHeader && len(records) > 0 {
		return MetricTable{Header: records[0], Rows: records[1:]}
	}
	return MetricTable{Rows: records}
}

// HasHeader reports whether the table carries a header row.
func (t MetricTable) HasHeader() bool {
	return t.Header != nil
}

// Records returns the header (if any) followed by all rows.
func (t MetricTable) Records() [][]string {
	records := make([][]string, 0, len(t.Rows)+1)
	if t.Header != nil {
		records = append(records, t.Header)
	}
	return append(records, t.Rows...)
}

// Arity returns the number of columns, taken from the header or the first row.
func (t MetricTable) Arity() int {
	if t.Header != nil {
		return len(t.Header)
	}
	if len(t.Rows) > 0 {
		return len(t.Rows[0])
	}
	return 0
}

// Validate checks that every row has the same number of fields.
// When a header is present, rows must match its width.
func (t MetricTable) Validate() error {
	want := t.Arity()
	for i, row := range t.Rows {
		if len(row) != want {
			return fmt.Errorf("row %d has %d fields, expected %d", i+1, len(row), want)
		}
	}
	return nil
}

// Clone returns a deep copy, so callers can build a new table without mutating the input.
func (t MetricTable) Clone() MetricTable {
	out := MetricTable{Rows: make([][]string, len(t.Rows))}
	if t.Header != nil {
		out.Header = slices.Clone(t.Header)
	}
	for i, row := range t.Rows {
		out.Rows[i] = slices.Clone(row)
	}
	return out
}
