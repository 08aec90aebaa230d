package merge

import (
	"errors"
	"fmt"
	"strings"

	"github.com/huangsam/corpusmetrics/internal/telemetry"
	"github.com/huangsam/corpusmetrics/schema"
)

// ErrArity is returned when the wide table has rows of differing field counts.
var ErrArity = errors.New("inconsistent row arity")

// Supplement is one set of supplementary tables that contributes a single column.
// Several shards of the same metric form one Supplement.
type Supplement struct {
	Name   string
	Tables []schema.MetricTable
}

// Options controls a join.
type Options struct {
	Layout       schema.KeyLayout // wide table
	NarrowLayout schema.KeyLayout // supplementary tables, columns when empty
	Duplicates   schema.DuplicatePolicy
	Fill         string                  // appended when a key is missing or unparsable, "0" when empty
	Report       func(schema.Diagnostic) // optional, called for every diagnostic as it is recorded
}

// Result is the outcome of a join.
type Result struct {
	Table       schema.MetricTable
	Matched     int // cells filled from a supplement
	Defaulted   int // cells filled with the fill value because the key was missing
	KeyErrors   int // wide rows whose key could not be parsed
	Diagnostics []schema.Diagnostic
}

// Join left-joins each supplement onto wide. Every wide row is kept in order and
// gains exactly one trailing value per supplement: the indexed value when the key
// is found, opts.Fill otherwise. A header, when present, gains one name per supplement.
func Join(wide schema.MetricTable, supplements []Supplement, opts Options) (*Result, error) {
	if err := wide.Validate(); err != nil {
		return nil, fmt.Errorf("%w: wide table: %v", ErrArity, err)
	}
	if opts.Layout == "" {
		opts.Layout = schema.ColumnsLayout
	}
	if opts.NarrowLayout == "" {
		opts.NarrowLayout = schema.ColumnsLayout
	}
	if opts.Fill == "" {
		opts.Fill = schema.DefaultFill
	}

	res := &Result{}
	record := func(d schema.Diagnostic) {
		telemetry.Diagnostics.WithLabelValues(string(d.Kind)).Inc()
		res.Diagnostics = append(res.Diagnostics, d)
		if opts.Report != nil {
			opts.Report(d)
		}
	}

	indexes := make([]*Index, len(supplements))
	for i, s := range supplements {
		ix, err := BuildIndex(s.Tables, IndexOptions{Layout: opts.NarrowLayout, Duplicates: opts.Duplicates})
		if err != nil {
			return nil, fmt.Errorf("failed to index %s: %w", s.Name, err)
		}
		for _, d := range ix.Diagnostics {
			record(d)
		}
		indexes[i] = ix
	}

	if wide.HasHeader() {
		header := make([]string, 0, len(wide.Header)+len(supplements))
		header = append(header, wide.Header...)
		for _, s := range supplements {
			header = append(header, s.Name)
		}
		res.Table.Header = header
	}

	res.Table.Rows = make([][]string, len(wide.Rows))
	for r, row := range wide.Rows {
		joined := make([]string, 0, len(row)+len(supplements))
		joined = append(joined, row...)

		key, _, err := keyFromRow(row, opts.Layout)
		if err != nil {
			res.KeyErrors++
			telemetry.JoinedRows.WithLabelValues("key_error").Inc()
			path := strings.Join(row, ",")
			var kerr *KeyError
			if errors.As(err, &kerr) {
				path = kerr.Path
			}
			record(schema.Diagnostic{
				Kind: schema.KeyDiagnostic, Path: path,
				Message: fmt.Sprintf("row %d: %v, using %q", r+1, err, opts.Fill),
			})
			for range supplements {
				joined = append(joined, opts.Fill)
			}
			res.Table.Rows[r] = joined
			continue
		}

		for i, ix := range indexes {
			if v, ok := ix.Lookup(key); ok {
				res.Matched++
				telemetry.JoinedRows.WithLabelValues("matched").Inc()
				joined = append(joined, v)
				continue
			}
			res.Defaulted++
			telemetry.JoinedRows.WithLabelValues("defaulted").Inc()
			record(schema.Diagnostic{
				Kind: schema.MissingDiagnostic, Path: key.String(),
				Message: fmt.Sprintf("no %s value, using %q", supplements[i].Name, opts.Fill),
			})
			joined = append(joined, opts.Fill)
		}
		res.Table.Rows[r] = joined
	}
	return res, nil
}

// DropKeyColumns returns a copy of table without its first n columns.
// Rows shorter than n become empty.
func DropKeyColumns(table schema.MetricTable, n int) schema.MetricTable {
	drop := func(fields []string) []string {
		if n >= len(fields) {
			return []string{}
		}
		return append([]string(nil), fields[max(n, 0):]...)
	}

	out := schema.MetricTable{Rows: make([][]string, len(table.Rows))}
	if table.HasHeader() {
		out.Header = drop(table.Header)
	}
	for i, row := range table.Rows {
		out.Rows[i] = drop(row)
	}
	return out
}
