package strategy

import (
	"context"
	"fmt"
	"net/http"

	"github.com/usestring/splunk-mcp/internal/ndjson"
	"github.com/usestring/splunk-mcp/internal/spl"
	"github.com/usestring/splunk-mcp/pkg/client"
	"github.com/usestring/splunk-mcp/pkg/types"
)

// Direct runs a user-typed search for a single entity. Splunk rejecting the
// search (400) is reported on the result instead of failing the lookup.
type Direct struct {
	Client  Searcher
	Options *types.Options
}

func (d *Direct) Run(ctx context.Context, group []types.Entity) ([]types.EntityLookupResult, error) {
	if len(group) != 1 {
		return nil, fmt.Errorf("direct search needs exactly one entity, got %d", len(group))
	}
	e := group[0]
	search := spl.Direct(e.Value, d.Options.MaxResults)

	resp, err := d.Client.Export(ctx, client.ExportRequest{
		Search:       search,
		EarliestTime: d.Options.EarliestTimeBound,
	}, http.StatusOK, http.StatusNotFound, http.StatusBadRequest)
	if err != nil {
		return nil, fmt.Errorf("direct search: %w", err)
	}

	result := types.EntityLookupResult{
		Entity:         e,
		SearchType:     types.SearchModeStandard,
		SearchQuery:    search,
		SearchAppQuery: search,
		Rows:           []types.Row{},
	}

	switch resp.StatusCode {
	case http.StatusBadRequest:
		msgs := client.ErrorMessages(resp.Body)
		if len(msgs) == 0 {
			msgs = []string{"Splunk rejected the search"}
		}
		result.SearchSyntaxErrors = msgs
	case http.StatusOK:
		rows, err := ndjson.Parse(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("direct search: %w", err)
		}
		result.Rows = rows
	}

	return []types.EntityLookupResult{result}, nil
}
