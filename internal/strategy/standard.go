package strategy

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/usestring/splunk-mcp/internal/ndjson"
	"github.com/usestring/splunk-mcp/internal/reconcile"
	"github.com/usestring/splunk-mcp/internal/spl"
	"github.com/usestring/splunk-mcp/pkg/client"
	"github.com/usestring/splunk-mcp/pkg/types"
)

// Standard runs the searchString template for every entity of the group as
// one append-chained export search and attributes rows by containment.
type Standard struct {
	Client  Searcher
	Options *types.Options
}

func (s *Standard) Run(ctx context.Context, group []types.Entity) ([]types.EntityLookupResult, error) {
	start := time.Now()
	search := spl.Build(s.Options.SearchString, group)

	slog.Debug("running standard search",
		slog.Int("entities", len(group)),
		slog.String("search", search),
	)

	resp, err := s.Client.Export(ctx, client.ExportRequest{
		Search:       search,
		EarliestTime: s.Options.EarliestTimeBound,
	}, http.StatusOK, http.StatusNotFound)
	if err != nil {
		return nil, fmt.Errorf("standard search: %w", err)
	}

	results := newResults(group, types.SearchModeStandard, s.Options, func(e types.Entity) string {
		return spl.Query(s.Options.SearchString, e.Value)
	})

	if resp.StatusCode == http.StatusNotFound {
		return results, nil
	}

	rows, err := ndjson.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("standard search: %w", err)
	}

	a := reconcile.Reconciler{Match: &reconcile.Containment{}}.Reconcile(group, rows)
	for i := range results {
		results[i].Rows = a.Rows[i]
	}
	logUnattributed(types.SearchModeStandard, group, len(rows), a.Unattributed)

	slog.Debug("standard search completed",
		slog.Int("entities", len(group)),
		slog.Int("rows", len(rows)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return results, nil
}
