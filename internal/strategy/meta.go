package strategy

import (
	"context"
	"fmt"
	"net/http"

	"github.com/usestring/splunk-mcp/internal/ndjson"
	"github.com/usestring/splunk-mcp/internal/reconcile"
	"github.com/usestring/splunk-mcp/internal/spl"
	"github.com/usestring/splunk-mcp/pkg/client"
	"github.com/usestring/splunk-mcp/pkg/types"
)

// Meta reports the indexes and sourcetypes holding each entity. Every row
// carries the entity value it was produced for in its "entity" field.
type Meta struct {
	Client  Searcher
	Options *types.Options
}

func (m *Meta) Run(ctx context.Context, group []types.Entity) ([]types.EntityLookupResult, error) {
	mode := m.Options.SearchType
	match := m.Options.IndexDiscoveryMatch
	search := spl.BuildMeta(mode, match, group)

	req := client.ExportRequest{
		Search:       search,
		EarliestTime: m.Options.EarliestTimeBound,
	}
	if mode == types.SearchModeMetaSearch {
		req.AdhocSearchLevel = "fast"
	}

	resp, err := m.Client.Export(ctx, req, http.StatusOK, http.StatusNotFound)
	if err != nil {
		return nil, fmt.Errorf("%s search: %w", mode, err)
	}

	results := newResults(group, mode, m.Options, func(e types.Entity) string {
		return spl.MetaQuery(mode, match, e.Value)
	})

	if resp.StatusCode == http.StatusNotFound {
		return results, nil
	}

	rows, err := ndjson.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s search: %w", mode, err)
	}

	matcher := &reconcile.FieldEquals{
		Field: "entity",
		Value: func(e types.Entity) string { return spl.Strip(e.Value) },
	}
	a := reconcile.Reconciler{Match: matcher}.Reconcile(group, rows)
	for i := range results {
		results[i].Rows = a.Rows[i]
	}
	logUnattributed(mode, group, len(rows), a.Unattributed)
	return results, nil
}
