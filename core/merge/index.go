package merge

import (
	"errors"
	"fmt"

	"github.com/huangsam/corpusmetrics/schema"
)

// ErrDuplicateKey is returned by BuildIndex when a key repeats under the fail policy.
var ErrDuplicateKey = errors.New("duplicate join key")

// IndexOptions controls how supplementary rows are indexed.
type IndexOptions struct {
	Layout     schema.KeyLayout
	Duplicates schema.DuplicatePolicy
}

// Index maps join keys to the value column of supplementary rows.
type Index struct {
	values      map[Key]string
	Diagnostics []schema.Diagnostic
}

// BuildIndex indexes every row of tables, in order. The value of a row is the
// first field after its key. Rows with a bad key or no value field are skipped
// with a diagnostic. A repeated key overwrites the earlier value with a
// diagnostic, or fails with ErrDuplicateKey under the fail policy.
func BuildIndex(tables []schema.MetricTable, opts IndexOptions) (*Index, error) {
	size := 0
	for _, t := range tables {
		size += len(t.Rows)
	}
	ix := &Index{values: make(map[Key]string, size)}

	for _, t := range tables {
		for _, row := range t.Rows {
			key, rest, err := keyFromRow(row, opts.Layout)
			if err != nil {
				var kerr *KeyError
				if errors.As(err, &kerr) {
					ix.Diagnostics = append(ix.Diagnostics, schema.NewDiagnostic(schema.KeyDiagnostic, kerr.Path, err))
					continue
				}
				return nil, err
			}
			if len(rest) == 0 {
				ix.Diagnostics = append(ix.Diagnostics, schema.Diagnostic{
					Kind: schema.ArityDiagnostic, Path: key.String(), Message: "row has no value column",
				})
				continue
			}
			if _, seen := ix.values[key]; seen {
				if opts.Duplicates == schema.FailOnDuplicate {
					return nil, fmt.Errorf("%w: %s", ErrDuplicateKey, key)
				}
				ix.Diagnostics = append(ix.Diagnostics, schema.Diagnostic{
					Kind: schema.DuplicateDiagnostic, Path: key.String(), Message: "later row overwrites earlier value",
				})
			}
			ix.values[key] = rest[0]
		}
	}
	return ix, nil
}

// Lookup returns the indexed value for key.
func (ix *Index) Lookup(key Key) (string, bool) {
	v, ok := ix.values[key]
	return v, ok
}

// Len returns the number of distinct keys.
func (ix *Index) Len() int {
	return len(ix.values)
}
