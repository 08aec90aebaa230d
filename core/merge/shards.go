package merge

import (
	"fmt"
	"slices"

	"github.com/huangsam/corpusmetrics/core/crawl"
	"github.com/huangsam/corpusmetrics/internal/admission"
	"github.com/huangsam/corpusmetrics/internal/tabular"
	"github.com/huangsam/corpusmetrics/schema"
	"golang.org/x/sync/errgroup"
)

// LoadShards reads every shard concurrently, each read gated by ctrl.
// Tables come back in sorted path order so that last-write-wins indexing is
// deterministic. The first read failure is returned.
func LoadShards(ctrl *admission.Controller, paths []string, hasHeader bool) ([]schema.MetricTable, error) {
	sorted := slices.Clone(paths)
	slices.Sort(sorted)

	tables := make([]schema.MetricTable, len(sorted))
	var g errgroup.Group
	g.SetLimit(ctrl.Limit())
	for i, path := range sorted {
		g.Go(func() error {
			table, err := admission.Do(ctrl, func() (schema.MetricTable, error) {
				return tabular.ReadTable(path, hasHeader)
			})
			if err != nil {
				return fmt.Errorf("failed to load shard %s: %w", path, err)
			}
			tables[i] = table
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tables, nil
}

// DiscoverShards finds every file under root whose name ends in suffix, sorted.
// Unlistable subtrees are returned as diagnostics.
func DiscoverShards(ctrl *admission.Controller, root, suffix string, opts ...crawl.Option) ([]string, []schema.Diagnostic) {
	paths, diags := crawl.New(ctrl, opts...).Crawl(root, crawl.SuffixMatcher(suffix))
	slices.Sort(paths)
	return paths, diags
}

// SupplementName picks a column name for a supplement: the explicit name when
// given, otherwise the header name of the first value column of its first table.
func SupplementName(explicit string, tables []schema.MetricTable, layout schema.KeyLayout) string {
	if explicit != "" {
		return explicit
	}
	n := layout.KeyColumns()
	for _, t := range tables {
		if len(t.Header) > n {
			return t.Header[n]
		}
	}
	return schema.DefaultMetricName
}
